package branch

import (
	"testing"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/tmpl"
)

func TestSelectByExitCode(t *testing.T) {
	def := &filterdef.Definition{
		OnSuccess: &filterdef.BranchDef{Output: "ok"},
		OnFailure: &filterdef.BranchDef{Output: "fail"},
	}
	if b := Select(def, 0); b != def.OnSuccess {
		t.Fatal("exit code 0 should select on_success")
	}
	if b := Select(def, 1); b != def.OnFailure {
		t.Fatal("nonzero exit code should select on_failure")
	}
}

func TestApplyOutputPrecedesTailHead(t *testing.T) {
	cache := regexcache.New()
	tail := 1
	b := &filterdef.BranchDef{Output: "done: {count}", Tail: &tail}
	resolver := tmpl.MapResolver{"count": tmpl.IntValue(3)}
	got, err := Apply(b, []string{"a", "b", "c"}, resolver, cache)
	if err != nil {
		t.Fatal(err)
	}
	if got != "done: 3" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyTailTruncation(t *testing.T) {
	cache := regexcache.New()
	n := 2
	b := &filterdef.BranchDef{Tail: &n}
	got, err := Apply(b, []string{"a", "b", "c"}, tmpl.MapResolver{}, cache)
	if err != nil {
		t.Fatal(err)
	}
	if got != "b\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestApplySkipThenHead(t *testing.T) {
	cache := regexcache.New()
	n := 2
	b := &filterdef.BranchDef{Skip: []string{"^drop"}, Head: &n}
	got, err := Apply(b, []string{"drop me", "a", "b", "c"}, tmpl.MapResolver{}, cache)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyNilBranchPassesThrough(t *testing.T) {
	cache := regexcache.New()
	got, err := Apply(nil, []string{"a", "b"}, tmpl.MapResolver{}, cache)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}
