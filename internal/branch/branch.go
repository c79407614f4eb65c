// Package branch implements the C6 branch-selector stage: picking
// on_success/on_failure by exit code, branch-scoped skip, output
// rendering, and tail/head truncation (spec.md §4.6).
package branch

import (
	"strings"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/tmpl"
)

// Select returns the branch definition matching exitCode (spec.md
// §4.6: exit code 0 selects on_success, anything else selects
// on_failure). Either may be nil if the filter didn't define it.
func Select(def *filterdef.Definition, exitCode int) *filterdef.BranchDef {
	if exitCode == 0 {
		return def.OnSuccess
	}
	return def.OnFailure
}

// Apply runs the selected branch's skip filter over lines, then
// either renders its output template (if set) or truncates to
// tail/head (spec.md §4.6: "output takes precedence over tail/head
// when both are present"). resolver supplies the named collections and
// scalars the branch's output template may reference.
func Apply(branch *filterdef.BranchDef, lines []string, resolver tmpl.Resolver, cache *regexcache.Cache) (string, error) {
	if branch == nil {
		return strings.Join(lines, "\n"), nil
	}

	lines = applySkip(lines, branch.Skip, cache)

	if branch.Output != "" {
		t, err := tmpl.Parse(branch.Output)
		if err != nil {
			return "", err
		}
		return tmpl.Render(t, resolver, cache), nil
	}

	if branch.Tail != nil {
		return strings.Join(tail(lines, *branch.Tail), "\n"), nil
	}
	if branch.Head != nil {
		return strings.Join(head(lines, *branch.Head), "\n"), nil
	}
	return strings.Join(lines, "\n"), nil
}

func applySkip(lines []string, patterns []string, cache *regexcache.Cache) []string {
	if len(patterns) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if matchesAny(l, patterns, cache) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesAny(line string, patterns []string, cache *regexcache.Cache) bool {
	for _, p := range patterns {
		re := cache.MustCompile(p)
		if re != nil && re.MatchString(line) {
			return true
		}
	}
	return false
}

func tail(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}

func head(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[:n]
}
