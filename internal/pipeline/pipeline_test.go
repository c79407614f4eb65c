package pipeline

import (
	"strings"
	"testing"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/script"
)

func TestRunMatchOutputShortcut(t *testing.T) {
	def := &filterdef.Definition{
		MatchOutput: []filterdef.MatchOutputRule{
			{Contains: "up to date", Output: "nothing to do"},
		},
	}
	out := Run(Input{Def: def, Raw: "Already up to date.\n", ExitCode: 0}, regexcache.New(), script.DefaultBudget)
	if out.Text != "nothing to do" {
		t.Fatalf("got %q", out.Text)
	}
}

func TestRunSkipAndReplace(t *testing.T) {
	def := &filterdef.Definition{
		Skip:    []string{`^noise`},
		Replace: []filterdef.ReplaceRule{{Pattern: `modified: (\S+)`, Output: "M {1}"}},
	}
	raw := "noise line\nmodified: foo.go\nkept line"
	out := Run(Input{Def: def, Raw: raw, ExitCode: 0}, regexcache.New(), script.DefaultBudget)
	if strings.Contains(out.Text, "noise") {
		t.Fatalf("skip rule should have dropped the noise line: %q", out.Text)
	}
	if !strings.Contains(out.Text, "M foo.go") {
		t.Fatalf("replace rule should have rewritten the line: %q", out.Text)
	}
}

func TestRunBranchSelectionByExitCode(t *testing.T) {
	tail := 1
	def := &filterdef.Definition{
		OnSuccess: &filterdef.BranchDef{Output: "build ok"},
		OnFailure: &filterdef.BranchDef{Tail: &tail},
	}
	ok := Run(Input{Def: def, Raw: "line1\nline2", ExitCode: 0}, regexcache.New(), script.DefaultBudget)
	if ok.Text != "build ok" {
		t.Fatalf("got %q", ok.Text)
	}
	failed := Run(Input{Def: def, Raw: "line1\nline2", ExitCode: 1}, regexcache.New(), script.DefaultBudget)
	if failed.Text != "line2" {
		t.Fatalf("got %q", failed.Text)
	}
}

func TestRunMetricsReflectOutput(t *testing.T) {
	def := &filterdef.Definition{}
	out := Run(Input{Def: def, Raw: "a\nb\nc", ExitCode: 0}, regexcache.New(), script.DefaultBudget)
	if out.Metrics.InputBytes != len("a\nb\nc") {
		t.Fatalf("unexpected input bytes: %d", out.Metrics.InputBytes)
	}
	if out.Metrics.InputLines != 3 {
		t.Fatalf("unexpected input lines: %d", out.Metrics.InputLines)
	}
}
