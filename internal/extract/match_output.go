package extract

import (
	"strings"

	"github.com/Fuabioo/tokf/internal/filterdef"
)

// MatchOutput scans rules in declaration order and returns the output
// of the first rule whose Contains substring is found anywhere in raw
// (spec.md §4.4: "a whole-output shortcut, checked before any
// line-level work"). matched is false when no rule fires, in which
// case the rest of the pipeline proceeds normally.
func MatchOutput(raw string, rules []filterdef.MatchOutputRule, resolve func(output string) string) (string, bool) {
	for _, rule := range rules {
		if rule.Contains == "" {
			continue
		}
		if strings.Contains(raw, rule.Contains) {
			return resolve(rule.Output), true
		}
	}
	return "", false
}
