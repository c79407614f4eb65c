package script

import (
	"strings"
	"testing"

	"github.com/Fuabioo/tokf/internal/filterdef"
)

func TestRunNilReturnIsNoop(t *testing.T) {
	s := &filterdef.LuaScript{Source: `-- no return`}
	res := Run(s, "original", 0, nil, DefaultBudget)
	if res.Changed || res.Text != "original" {
		t.Fatalf("got %+v", res)
	}
}

func TestRunReturnsNewText(t *testing.T) {
	s := &filterdef.LuaScript{Source: `return string.upper(output)`}
	res := Run(s, "hello", 0, nil, DefaultBudget)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !res.Changed || res.Text != "HELLO" {
		t.Fatalf("got %+v", res)
	}
}

func TestRunExitCodeAndArgsGlobals(t *testing.T) {
	s := &filterdef.LuaScript{Source: `
		if exit_code ~= 0 then
			return "failed: " .. args[1]
		end
	`}
	res := Run(s, "ignored", 1, []string{"build"}, DefaultBudget)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Text != "failed: build" {
		t.Fatalf("got %+v", res)
	}
}

func TestRunErrorIsDiagnosticOnly(t *testing.T) {
	s := &filterdef.LuaScript{Source: `error("boom")`}
	res := Run(s, "original", 0, nil, DefaultBudget)
	if res.Err == nil {
		t.Fatal("expected an error")
	}
	if res.Text != "original" {
		t.Fatalf("script error must leave text unchanged, got %q", res.Text)
	}
	if !strings.Contains(res.Err.Error(), "boom") {
		t.Fatalf("expected underlying message preserved, got %v", res.Err)
	}
}

func TestRunNilScriptIsNoop(t *testing.T) {
	res := Run(nil, "original", 0, nil, DefaultBudget)
	if res.Changed || res.Text != "original" {
		t.Fatalf("got %+v", res)
	}
}
