package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match is the outcome of resolving one argv against the index
// (spec.md §6: "resolve(argv, opts) -> {filter, matched_words, args,
// reconstructed_command}").
type Match struct {
	Entry                *Entry
	MatchedWords          []string // literal pattern tokens the match consumed
	Args                  []string // {args} binding
	ReconstructedCommand  []string
	PreVariantApplied     bool // true once a pre-execution file-detection variant fired
}

// Resolve implements spec.md §4.9's command-matching procedure:
// env-prefix strip, basename reduction, transparent-flag skipping, and
// a pattern loop across every discovered filter, in tie-break order.
func Resolve(argv []string, idx *Index) (*Match, bool) {
	if len(argv) == 0 {
		return nil, false
	}

	envPrefix, rest := stripEnvPrefix(argv)
	if len(rest) == 0 {
		return nil, false
	}

	working := make([]string, len(rest))
	copy(working, rest)
	working[0] = basename(working[0])

	for _, entry := range idx.ordered {
		for _, pattern := range entry.Def.CommandPatterns() {
			if len(pattern) == 0 {
				continue
			}
			m, ok := tryMatch(working, pattern)
			if !ok {
				continue
			}
			runSet := entry.Def.Run != ""
			return &Match{
				Entry:                entry,
				MatchedWords:         matchedWords(working, m),
				Args:                 argsAfterMatch(working, m, runSet),
				ReconstructedCommand: append(append([]string{}, envPrefix...), argv[len(envPrefix):]...),
			}, true
		}
	}
	return nil, false
}

// stripEnvPrefix removes consecutive leading KEY=VALUE tokens used for
// matching only; they remain part of the command that actually runs
// (spec.md §4.9 step 1).
func stripEnvPrefix(argv []string) (envPrefix, rest []string) {
	i := 0
	for i < len(argv) && looksLikeEnvAssignment(argv[i]) {
		i++
	}
	return argv[:i], argv[i:]
}

func looksLikeEnvAssignment(tok string) bool {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return false
	}
	key := tok[:eq]
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (i > 0 && c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// basename reduces the first argv token to its filename component
// (spec.md §4.9 step 2).
func basename(tok string) string {
	return filepath.Base(tok)
}

// matchResult records how tryMatch consumed a prefix of working: which
// indices were literal pattern tokens (matchedIdx) versus transparent
// flags and their values (flagIdx), plus the index just past the
// matched prefix.
type matchResult struct {
	consumed   int
	matchedIdx []int
	flagIdx    []int
}

// tryMatch tests whether working starts with pattern's tokens,
// skipping any interleaved flag-like tokens as "transparent"
// (spec.md §4.9 step 3).
func tryMatch(working, pattern []string) (matchResult, bool) {
	i, j := 0, 0
	var matchedIdx, flagIdx []int
	for j < len(pattern) {
		if i >= len(working) {
			return matchResult{}, false
		}
		if pattern[j] == "*" || pattern[j] == working[i] {
			matchedIdx = append(matchedIdx, i)
			i++
			j++
			continue
		}
		if looksLikeFlag(working[i]) {
			flagIdx = append(flagIdx, i)
			i++
			// A flag consumes the next token as its value only when
			// that token doesn't itself look like a flag.
			if i < len(working) && !looksLikeFlag(working[i]) {
				flagIdx = append(flagIdx, i)
				i++
			}
			continue
		}
		return matchResult{}, false
	}
	return matchResult{consumed: i, matchedIdx: matchedIdx, flagIdx: flagIdx}, true
}

func looksLikeFlag(tok string) bool {
	return strings.HasPrefix(tok, "-") && tok != "-"
}

// matchedWords returns the literal pattern tokens the match consumed,
// in argv order: the `matched_words` result field (spec.md §3).
func matchedWords(working []string, m matchResult) []string {
	out := make([]string, len(m.matchedIdx))
	for i, idx := range m.matchedIdx {
		out[i] = working[idx]
	}
	return out
}

// argsAfterMatch builds the {args} binding: the trailing tokens beyond
// the matched prefix, plus -- when no `run` override is set -- the
// transparent flags consumed along the way, back in argv order
// (spec.md §3: "excludes transparent flags when run is set; includes
// them otherwise").
func argsAfterMatch(working []string, m matchResult, runSet bool) []string {
	var out []string
	if !runSet && len(m.flagIdx) > 0 {
		flagSet := make(map[int]bool, len(m.flagIdx))
		for _, idx := range m.flagIdx {
			flagSet[idx] = true
		}
		for i := 0; i < m.consumed; i++ {
			if flagSet[i] {
				out = append(out, working[i])
			}
		}
	}
	if m.consumed < len(working) {
		out = append(out, working[m.consumed:]...)
	}
	return out
}

// ResolveVariant implements spec.md §4.9's pre-execution file-detection
// phase: the first variant whose detect.files exists in cwd wins and
// re-resolves to its named child filter, which fully replaces the
// parent (no field merging).
func ResolveVariant(entry *Entry, cwd string, idx *Index) (*Entry, bool) {
	for _, v := range entry.Def.Variant {
		if len(v.Detect.Files) == 0 {
			continue
		}
		if anyFileExists(cwd, v.Detect.Files) {
			if child, ok := idx.Lookup(v.Filter); ok {
				return child, true
			}
		}
	}
	return entry, false
}

// ResolveVariantOutput implements the post-execution fallback: the
// first variant with an output_pattern that matches raw wins.
func ResolveVariantOutput(entry *Entry, raw string, idx *Index) (*Entry, bool) {
	for _, v := range entry.Def.Variant {
		if v.Detect.OutputPattern == "" {
			continue
		}
		if strings.Contains(raw, v.Detect.OutputPattern) {
			if child, ok := idx.Lookup(v.Filter); ok {
				return child, true
			}
		}
	}
	return entry, false
}

func anyFileExists(cwd string, patterns []string) bool {
	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(cwd, pattern)
		}
		if _, err := os.Stat(full); err == nil {
			return true
		}
		if matches, _ := doublestar.Glob(os.DirFS(cwd), filepath.ToSlash(pattern)); len(matches) > 0 {
			return true
		}
	}
	return false
}
