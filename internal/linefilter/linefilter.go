// Package linefilter implements the C3 line-filter stage: replace,
// skip/keep, and dedup (spec.md §4.3).
package linefilter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Fuabioo/tokf/internal/clean"
	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
)

// Options bundles the rules consumed by Apply.
type Options struct {
	Replace       []filterdef.ReplaceRule
	Skip          []string
	Keep          []string
	Dedup         bool
	DedupWindow   int
	PreserveColor bool
}

// Apply runs replace, then skip/keep, then dedup, over lines in
// declaration/input order (spec.md §4.3). The returned slice's Clean
// field reflects any replace substitutions; Colored is updated in
// step with it so the preserve-color emission path stays in sync
// (spec.md §4.8: "the relationship between clean and colored must be
// preserved line-for-line").
func Apply(lines []clean.Line, opts Options, cache *regexcache.Cache) []clean.Line {
	replaced := applyReplace(lines, opts.Replace, cache)
	kept := applySkipKeep(replaced, opts.Skip, opts.Keep, cache)
	if opts.Dedup {
		kept = applyDedup(kept, opts.DedupWindow)
	}
	return kept
}

// applyReplace runs each rule in declaration order; each rule sees the
// previous rule's result. Invalid patterns are skipped silently
// (spec.md §4.3 step 1, §7).
func applyReplace(lines []clean.Line, rules []filterdef.ReplaceRule, cache *regexcache.Cache) []clean.Line {
	if len(rules) == 0 {
		return lines
	}
	out := make([]clean.Line, len(lines))
	copy(out, lines)
	for _, rule := range rules {
		re := cache.MustCompile(rule.Pattern)
		if re == nil {
			continue
		}
		for i, l := range out {
			if loc := re.FindStringSubmatchIndex(l.Clean); loc != nil {
				rendered := expandCaptures(re, l.Clean, loc, rule.Output)
				newLine := l.Clean[:loc[0]] + rendered + l.Clean[loc[1]:]
				out[i] = clean.Line{Clean: newLine, Colored: newLine}
			}
		}
	}
	return out
}

// expandCaptures substitutes `{1}`..`{n}` in output with the
// corresponding submatch text from the first match found via loc
// (as produced by FindStringSubmatchIndex).
func expandCaptures(re *regexp.Regexp, src string, loc []int, output string) string {
	var b strings.Builder
	i := 0
	for i < len(output) {
		if output[i] == '{' {
			end := strings.IndexByte(output[i:], '}')
			if end > 0 {
				ref := output[i+1 : i+end]
				if n, err := strconv.Atoi(ref); err == nil && n >= 1 && 2*n+1 < len(loc) {
					start, stop := loc[2*n], loc[2*n+1]
					if start >= 0 && stop >= 0 {
						b.WriteString(src[start:stop])
					}
					i += end + 1
					continue
				}
			}
		}
		b.WriteByte(output[i])
		i++
	}
	return b.String()
}

// applySkipKeep applies §4.3 step 2: keep wins when both skip and keep
// are set (spec.md §3 invariant).
func applySkipKeep(lines []clean.Line, skip, keep []string, cache *regexcache.Cache) []clean.Line {
	var keepRes, skipRes []*regexp.Regexp
	for _, p := range keep {
		if re := cache.MustCompile(p); re != nil {
			keepRes = append(keepRes, re)
		}
	}
	for _, p := range skip {
		if re := cache.MustCompile(p); re != nil {
			skipRes = append(skipRes, re)
		}
	}

	out := make([]clean.Line, 0, len(lines))
	for _, l := range lines {
		if len(keep) > 0 {
			if anyMatch(keepRes, l.Clean) {
				out = append(out, l)
			}
			continue
		}
		if !anyMatch(skipRes, l.Clean) {
			out = append(out, l)
		}
	}
	return out
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// applyDedup drops a line whose clean form equals any of the previous
// window emitted clean lines (spec.md §4.3 step 3, §8 property 4).
func applyDedup(lines []clean.Line, window int) []clean.Line {
	if window < 1 {
		window = 1
	}
	out := make([]clean.Line, 0, len(lines))
	recent := make([]string, 0, window)
	for _, l := range lines {
		dup := false
		for _, prev := range recent {
			if prev == l.Clean {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, l)
		recent = append(recent, l.Clean)
		if len(recent) > window {
			recent = recent[len(recent)-window:]
		}
	}
	return out
}
