package testrunner

import (
	"os"
	"testing"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
)

func TestRunInlineFixtureEqualsPass(t *testing.T) {
	def := &filterdef.Definition{Name: "git/status"}
	equals := "clean tree"
	c := &Case{
		Name:   "clean",
		Inline: "clean tree",
		Expect: []Expectation{{Equals: &equals}},
	}
	res, err := Run(def, os.DirFS(t.TempDir()), ".", c, regexcache.New())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed {
		t.Fatalf("expected pass, got failures: %v", res.Failures)
	}
}

func TestRunContainsFailureRecordsMessage(t *testing.T) {
	def := &filterdef.Definition{Name: "git/status"}
	contains := "nope"
	c := &Case{
		Name:   "mismatch",
		Inline: "clean tree",
		Expect: []Expectation{{Contains: &contains}},
	}
	res, err := Run(def, os.DirFS(t.TempDir()), ".", c, regexcache.New())
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed || len(res.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", res)
	}
}

func TestRunLineCountCountsNonEmptyLines(t *testing.T) {
	def := &filterdef.Definition{Name: "x"}
	n := 2
	c := &Case{
		Name:   "lines",
		Inline: "a\n\nb\n",
		Expect: []Expectation{{LineCount: &n}},
	}
	res, err := Run(def, os.DirFS(t.TempDir()), ".", c, regexcache.New())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed {
		t.Fatalf("expected pass, got %+v", res.Failures)
	}
}
