package testrunner

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	stylePass = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Summary aggregates every evaluated case across a test run.
type Summary struct {
	Results []*CaseResult
}

// Passed reports whether every case in the summary passed.
func (s *Summary) Passed() bool {
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Render produces a colorized, human-readable report (spec.md's
// supplemented `tokf test` runner).
func (s *Summary) Render() string {
	var b strings.Builder
	passCount := 0
	for _, r := range s.Results {
		label := fmt.Sprintf("%s/%s", r.FilterName, r.CaseName)
		if r.Passed {
			passCount++
			b.WriteString(stylePass.Render("PASS") + " " + label + "\n")
			continue
		}
		b.WriteString(styleFail.Render("FAIL") + " " + label + "\n")
		for _, f := range r.Failures {
			b.WriteString(styleDim.Render("       "+f) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n%d/%d passed\n", passCount, len(s.Results)))
	return b.String()
}
