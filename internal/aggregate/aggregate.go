// Package aggregate implements the C5 aggregator stage: scanning a
// line collection with a pattern to produce sum/count scalars
// (spec.md §4.5), shared between branch-level and chunk-level use.
package aggregate

import (
	"strconv"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
)

// Run scans lines with rule.Pattern. Each matching line's capture
// group 1 is parsed as a signed integer and added to sum; count tracks
// how many lines matched. A parse failure contributes 0 to sum but
// still increments count (spec.md §4.5: "on failure the line
// contributes 0 to the sum but still increments count_as").
func Run(lines []string, rule filterdef.AggregateRule, cache *regexcache.Cache) (sum int64, count int64) {
	re := cache.MustCompile(rule.Pattern)
	if re == nil {
		return 0, 0
	}
	for _, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil || len(m) < 2 {
			continue
		}
		count++
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			sum += n
		}
	}
	return sum, count
}

// Scalars holds the named scalar results of one or more aggregate
// rules, ready to be merged into a template Resolver.
type Scalars map[string]int64

// RunAll applies every rule in order against the named collection it
// references (looked up via lookup), writing `sum`/`count_as` results
// into the returned Scalars map.
func RunAll(rules []filterdef.AggregateRule, lookup func(name string) []string, cache *regexcache.Cache) Scalars {
	out := Scalars{}
	for _, rule := range rules {
		lines := lookup(rule.From)
		sum, count := Run(lines, rule, cache)
		if rule.Sum != "" {
			out[rule.Sum] = sum
		}
		if rule.CountAs != "" {
			out[rule.CountAs] = count
		}
	}
	return out
}
