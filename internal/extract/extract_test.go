package extract

import (
	"testing"

	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/regexcache"
)

func TestMatchOutputFirstRuleWins(t *testing.T) {
	rules := []filterdef.MatchOutputRule{
		{Contains: "up to date", Output: "nothing to do"},
		{Contains: "error", Output: "failed"},
	}
	out, matched := MatchOutput("Already up to date.\n", rules, func(s string) string { return s })
	if !matched || out != "nothing to do" {
		t.Fatalf("got (%q, %v)", out, matched)
	}
}

func TestMatchOutputNoRuleFires(t *testing.T) {
	rules := []filterdef.MatchOutputRule{{Contains: "nope", Output: "x"}}
	_, matched := MatchOutput("some output", rules, func(s string) string { return s })
	if matched {
		t.Fatal("expected no match")
	}
}

func TestSectionsStatefulToggle(t *testing.T) {
	cache := regexcache.New()
	lines := []string{"before", "START", "a", "b", "STOP", "after"}
	defs := []filterdef.SectionDef{
		{Name: "body", CollectAs: "body", Enter: "^START$", Exit: "^STOP$"},
	}
	res := Sections(lines, defs, cache)
	got := res["body"].Lines
	want := []string{"START", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSectionsStatefulNeverClosed(t *testing.T) {
	cache := regexcache.New()
	lines := []string{"START", "a", "b"}
	defs := []filterdef.SectionDef{{CollectAs: "body", Enter: "^START$", Exit: "^STOP$"}}
	res := Sections(lines, defs, cache)
	got := res["body"].Lines
	if len(got) != 3 {
		t.Fatalf("expected section left open through EOF, got %v", got)
	}
}

func TestSectionsStatelessMatchOnly(t *testing.T) {
	cache := regexcache.New()
	lines := []string{"foo", "error: x", "bar", "error: y"}
	defs := []filterdef.SectionDef{{CollectAs: "errs", Match: "^error:"}}
	res := Sections(lines, defs, cache)
	got := res["errs"].Lines
	if len(got) != 2 || got[0] != "error: x" || got[1] != "error: y" {
		t.Fatalf("got %v", got)
	}
}

func TestSectionsSplitOnBlocks(t *testing.T) {
	cache := regexcache.New()
	lines := []string{"START", "a1", "a2", "---", "b1", "STOP"}
	defs := []filterdef.SectionDef{
		{CollectAs: "body", Enter: "^START$", Exit: "^STOP$", SplitOn: "^---$"},
	}
	res := Sections(lines, defs, cache)
	blocks := res["body"].Blocks
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if len(blocks[0]) != 3 || blocks[0][0] != "START" { // enter line + a1 + a2
		t.Fatalf("unexpected first block: %v", blocks[0])
	}
	if len(blocks[1]) != 1 || blocks[1][0] != "b1" {
		t.Fatalf("unexpected second block: %v", blocks[1])
	}
}

func TestSectionsSplitOnToggleNeverClosesDropsHeaderLine(t *testing.T) {
	cache := regexcache.New()
	lines := []string{"failures:", "", "a", "b", "", "c"}
	defs := []filterdef.SectionDef{
		{CollectAs: "failures", Enter: "^failures:", SplitOn: "^$"},
	}
	res := Sections(lines, defs, cache)
	blocks := res["failures"].Blocks
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if len(blocks[0]) != 2 || blocks[0][0] != "a" || blocks[0][1] != "b" {
		t.Fatalf("unexpected first block: %v", blocks[0])
	}
	if len(blocks[1]) != 1 || blocks[1][0] != "c" {
		t.Fatalf("unexpected second block: %v", blocks[1])
	}
}

func TestChunksExtractAndBodyExtract(t *testing.T) {
	cache := regexcache.New()
	lines := []string{
		"test result: ok. 3 passed",
		"  running foo_test",
		"  running bar_test",
		"test result: FAILED. 1 passed; 1 failed",
		"  running baz_test",
	}
	def := filterdef.ChunkDef{
		SplitOn: `^test result:`,
		Extract: []filterdef.ExtractRule{
			{Pattern: `test result: (\w+)`, As: "status"},
		},
		BodyExtract: []filterdef.ExtractRule{
			{Pattern: `running (\w+)`, As: "first_test"},
		},
	}
	items := Chunks(lines, def, cache)
	if len(items) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(items))
	}
	if items[0]["status"] != "ok" || items[0]["first_test"] != "foo_test" {
		t.Fatalf("unexpected first chunk: %+v", items[0])
	}
	if items[1]["status"] != "FAILED" || items[1]["first_test"] != "baz_test" {
		t.Fatalf("unexpected second chunk: %+v", items[1])
	}
}

func TestChunksCarryForward(t *testing.T) {
	cache := regexcache.New()
	lines := []string{
		"suite: pkg/foo",
		"ok",
		"suite:", // no match, should carry forward
		"ok",
	}
	def := filterdef.ChunkDef{
		SplitOn: `^suite:`,
		Extract: []filterdef.ExtractRule{
			{Pattern: `^suite: (\S+)`, As: "pkg", CarryForward: true},
		},
	}
	items := Chunks(lines, def, cache)
	if len(items) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(items))
	}
	if items[0]["pkg"] != "pkg/foo" {
		t.Fatalf("unexpected first chunk: %+v", items[0])
	}
	if items[1]["pkg"] != "pkg/foo" {
		t.Fatalf("expected carry-forward, got %+v", items[1])
	}
}

func TestChunksGroupBySumsNumericFields(t *testing.T) {
	cache := regexcache.New()
	lines := []string{
		"pkg: foo",
		"  3 passed",
		"pkg: foo",
		"  2 passed",
		"pkg: bar",
		"  1 passed",
	}
	def := filterdef.ChunkDef{
		SplitOn: `^pkg:`,
		Extract: []filterdef.ExtractRule{
			{Pattern: `^pkg: (\S+)`, As: "pkg"},
		},
		Aggregate: []filterdef.AggregateRule{
			{Pattern: `(\d+) passed`, Sum: "passed"},
		},
		GroupBy:    "pkg",
		ChildrenAs: "runs",
	}
	items := Chunks(lines, def, cache)
	if len(items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(items))
	}
	if items[0]["pkg"] != "foo" || items[0]["passed"] != int64(5) {
		t.Fatalf("unexpected merged group: %+v", items[0])
	}
	if items[0]["runs"] == nil {
		t.Fatal("expected children_as key to be populated")
	}
}
