// Package extract implements the C4 structured-extractor stage:
// match_output, sections, and chunks (spec.md §4.4).
package extract

import (
	"strings"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
)

// SectionResult holds the published collections of one section
// (spec.md §3: named_lines / named_blocks).
type SectionResult struct {
	Lines  []string
	Blocks [][]string
}

// Sections runs every section definition over the raw (pre-line-
// filter) cleaned lines, in input order (spec.md §4.4).
func Sections(rawLines []string, defs []filterdef.SectionDef, cache *regexcache.Cache) map[string]*SectionResult {
	results := make(map[string]*SectionResult, len(defs))
	states := make([]*sectionState, len(defs))
	for i, def := range defs {
		results[def.CollectAs] = &SectionResult{}
		states[i] = &sectionState{def: def}
	}

	for _, line := range rawLines {
		for i, def := range defs {
			st := states[i]
			if def.Stateful() {
				runStateful(st, line, cache)
			} else {
				runStateless(st, line, cache)
			}
		}
	}

	for i, def := range defs {
		res := results[def.CollectAs]
		res.Lines = states[i].buf
		if def.SplitOn != "" {
			res.Blocks = splitBlocks(blockSource(def, states[i].buf), def.SplitOn, cache)
		}
	}
	return results
}

// blockSource returns the lines to feed splitBlocks. A toggle section
// with no distinct exit (exit defaults to enter) always collects its
// own trigger line as buf[0]; that line is the section header, not
// content, so it's dropped before splitting into blocks. A section
// with a distinct enter/exit pair keeps its first line -- there, the
// trigger line legitimately opens the first content block.
func blockSource(def filterdef.SectionDef, buf []string) []string {
	if def.Stateful() && def.Exit == "" && len(buf) > 0 {
		return buf[1:]
	}
	return buf
}

type sectionState struct {
	def    filterdef.SectionDef
	active bool
	buf    []string
}

func runStateful(st *sectionState, line string, cache *regexcache.Cache) {
	enterRe := cache.MustCompile(st.def.Enter)
	if enterRe == nil {
		return
	}
	exitPattern := st.def.Exit
	if exitPattern == "" {
		exitPattern = st.def.Enter
	}
	exitRe := cache.MustCompile(exitPattern)

	if !st.active {
		if enterRe.MatchString(line) {
			st.active = true
			st.buf = append(st.buf, line)
		}
		return
	}

	if exitRe != nil && exitRe.MatchString(line) {
		st.active = false
		return
	}
	st.buf = append(st.buf, line)
}

func runStateless(st *sectionState, line string, cache *regexcache.Cache) {
	re := cache.MustCompile(st.def.Match)
	if re == nil {
		return
	}
	if re.MatchString(line) {
		st.buf = append(st.buf, line)
	}
}

// splitBlocks partitions lines into blocks separated by lines matching
// sep, dropping the separator line itself (spec.md §4.4).
func splitBlocks(lines []string, sep string, cache *regexcache.Cache) [][]string {
	re := cache.MustCompile(sep)
	if re == nil {
		return [][]string{lines}
	}
	var blocks [][]string
	var cur []string
	for _, l := range lines {
		if re.MatchString(l) {
			blocks = append(blocks, cur)
			cur = nil
			continue
		}
		cur = append(cur, l)
	}
	blocks = append(blocks, cur)
	// Drop every zero-length block: those produced by a separator at
	// the very start or end of the collected lines, and those between
	// two adjacent separators.
	out := blocks[:0]
	for _, b := range blocks {
		if len(b) == 0 && (len(out) == 0 || allEmpty(b)) {
			if len(b) == 0 {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func allEmpty(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
