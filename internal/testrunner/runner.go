package testrunner

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/pipeline"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/script"
)

// CaseResult is one evaluated test case.
type CaseResult struct {
	FilterName string
	CaseName   string
	Passed     bool
	Failures   []string
}

// LoadCases reads every TOML file in dir (name_test/) as a Case.
// fsys is the project/user filesystem root or the embedded builtin
// filter library, matching whichever tier discovered the filter.
func LoadCases(fsys fs.FS, dir string) ([]*Case, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var cases []*Case
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("testrunner: read %s: %w", e.Name(), err)
		}
		var c Case
		if err := toml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("testrunner: parse %s: %w", e.Name(), err)
		}
		cases = append(cases, &c)
	}
	return cases, nil
}

// Run loads def's captured text (fixture or inline), runs it through
// the pipeline, and checks every [[expect]] block.
func Run(def *filterdef.Definition, fsys fs.FS, testDir string, c *Case, cache *regexcache.Cache) (*CaseResult, error) {
	raw, err := captureFor(fsys, testDir, c)
	if err != nil {
		return nil, err
	}

	out := pipeline.Run(pipeline.Input{
		Def:      def,
		Raw:      raw,
		ExitCode: c.EffectiveExitCode(),
		Args:     c.Args,
	}, cache, script.DefaultBudget)

	res := &CaseResult{FilterName: def.Name, CaseName: c.Name, Passed: true}
	for _, exp := range c.Expect {
		if msg, ok := check(out.Text, exp); !ok {
			res.Passed = false
			res.Failures = append(res.Failures, msg)
		}
	}
	return res, nil
}

func captureFor(fsys fs.FS, testDir string, c *Case) (string, error) {
	if c.Fixture != "" {
		raw, err := fs.ReadFile(fsys, path.Join(testDir, c.Fixture))
		if err != nil {
			return "", fmt.Errorf("testrunner: read fixture %s: %w", c.Fixture, err)
		}
		return string(raw), nil
	}
	return c.Inline, nil
}

func check(text string, exp Expectation) (string, bool) {
	switch {
	case exp.Equals != nil:
		if text != *exp.Equals {
			return fmt.Sprintf("equals: got %q, want %q", text, *exp.Equals), false
		}
	case exp.Contains != nil:
		if !strings.Contains(text, *exp.Contains) {
			return fmt.Sprintf("contains: %q not found in %q", *exp.Contains, text), false
		}
	case exp.NotContains != nil:
		if strings.Contains(text, *exp.NotContains) {
			return fmt.Sprintf("not_contains: %q unexpectedly found in %q", *exp.NotContains, text), false
		}
	case exp.StartsWith != nil:
		if !strings.HasPrefix(text, *exp.StartsWith) {
			return fmt.Sprintf("starts_with: %q does not start with %q", text, *exp.StartsWith), false
		}
	case exp.EndsWith != nil:
		if !strings.HasSuffix(text, *exp.EndsWith) {
			return fmt.Sprintf("ends_with: %q does not end with %q", text, *exp.EndsWith), false
		}
	case exp.LineCount != nil:
		if n := nonEmptyLineCount(text); n != *exp.LineCount {
			return fmt.Sprintf("line_count: got %d, want %d", n, *exp.LineCount), false
		}
	case exp.Matches != nil:
		re, err := regexp.Compile(*exp.Matches)
		if err != nil || !re.MatchString(text) {
			return fmt.Sprintf("matches: %q does not match %q", text, *exp.Matches), false
		}
	case exp.NotMatches != nil:
		re, err := regexp.Compile(*exp.NotMatches)
		if err == nil && re.MatchString(text) {
			return fmt.Sprintf("not_matches: %q unexpectedly matches %q", text, *exp.NotMatches), false
		}
	}
	return "", true
}

func nonEmptyLineCount(text string) int {
	n := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
