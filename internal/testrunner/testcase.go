// Package testrunner implements the filter test-case format and
// verification runner described in spec.md §6: for each filter at
// `name.toml`, a sibling `name_test/` directory holds TOML test case
// files asserting on the filter's output.
package testrunner

// Expectation is one `[[expect]]` block. Exactly one field is set
// (spec.md §6).
type Expectation struct {
	Equals      *string `toml:"equals"`
	Contains    *string `toml:"contains"`
	NotContains *string `toml:"not_contains"`
	StartsWith  *string `toml:"starts_with"`
	EndsWith    *string `toml:"ends_with"`
	LineCount   *int    `toml:"line_count"`
	Matches     *string `toml:"matches"`
	NotMatches  *string `toml:"not_matches"`
}

// Case is one test file's parsed content.
type Case struct {
	Name     string        `toml:"name"`
	Fixture  string        `toml:"fixture"`
	Inline   string        `toml:"inline"`
	ExitCode int           `toml:"exit_code"`
	Args     []string      `toml:"args"`
	Expect   []Expectation `toml:"expect"`
}

// EffectiveExitCode returns the configured exit code, defaulting to 0
// (spec.md §6).
func (c *Case) EffectiveExitCode() int { return c.ExitCode }
