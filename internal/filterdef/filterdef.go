// Package filterdef defines the FilterDefinition data model (spec.md
// §3) and parses it from TOML filter files (spec.md §6).
package filterdef

// ReplaceRule is one `[[replace]]` entry: spec.md §3.
type ReplaceRule struct {
	Pattern string `toml:"pattern"`
	Output  string `toml:"output"`
}

// MatchOutputRule is one `[[match_output]]` entry: spec.md §3, §4.4.
type MatchOutputRule struct {
	Contains string `toml:"contains"`
	Output   string `toml:"output"`
}

// SectionDef is one `[[section]]` entry: spec.md §3, §4.4.
type SectionDef struct {
	Name      string `toml:"name"`
	CollectAs string `toml:"collect_as"`
	Enter     string `toml:"enter"`
	Exit      string `toml:"exit"`
	Match     string `toml:"match"`
	SplitOn   string `toml:"split_on"`
}

// Stateful reports whether the section uses enter/exit toggling rather
// than a stateless `match` scan (spec.md §4.4).
func (s SectionDef) Stateful() bool { return s.Enter != "" }

// ExtractRule is one `extract`/`body_extract` entry inside a chunk:
// spec.md §3.
type ExtractRule struct {
	Pattern      string `toml:"pattern"`
	As           string `toml:"as"`
	CarryForward bool   `toml:"carry_forward"`
}

// AggregateRule is one aggregator: spec.md §4.5.
type AggregateRule struct {
	From     string `toml:"from"`
	Pattern  string `toml:"pattern"`
	Sum      string `toml:"sum"`
	CountAs  string `toml:"count_as"`
}

// ChunkDef is one `[[chunk]]` entry: spec.md §3, §4.4.
type ChunkDef struct {
	SplitOn           string          `toml:"split_on"`
	IncludeSplitLine  *bool           `toml:"include_split_line"`
	CollectAs         string          `toml:"collect_as"`
	Extract           []ExtractRule   `toml:"extract"`
	BodyExtract       []ExtractRule   `toml:"body_extract"`
	Aggregate         []AggregateRule `toml:"aggregate"`
	GroupBy           string          `toml:"group_by"`
	ChildrenAs        string          `toml:"children_as"`
}

// IncludeHeader returns the effective include_split_line value
// (default true per spec.md §4.4).
func (c ChunkDef) IncludeHeader() bool {
	if c.IncludeSplitLine == nil {
		return true
	}
	return *c.IncludeSplitLine
}

// BranchDef is `[on_success]` / `[on_failure]`: spec.md §3, §4.6.
type BranchDef struct {
	Output     string          `toml:"output"`
	Tail       *int            `toml:"tail"`
	Head       *int            `toml:"head"`
	Aggregate  *AggregateRule  `toml:"aggregate"`
	Aggregates []AggregateRule `toml:"aggregates"`
	Skip       []string        `toml:"skip"`
}

// AllAggregates merges the singular and plural aggregate forms
// (spec.md §6: "both aggregate = {…} and aggregates = [{…},{…}] are
// accepted and merged").
func (b BranchDef) AllAggregates() []AggregateRule {
	out := make([]AggregateRule, 0, len(b.Aggregates)+1)
	if b.Aggregate != nil {
		out = append(out, *b.Aggregate)
	}
	out = append(out, b.Aggregates...)
	return out
}

// VariantDetect is `variant[].detect`: spec.md §3, §4.9.
type VariantDetect struct {
	Files         []string `toml:"files"`
	OutputPattern string   `toml:"output_pattern"`
}

// VariantDef is one `[[variant]]` entry: spec.md §3, §4.9.
type VariantDef struct {
	Name   string        `toml:"name"`
	Detect VariantDetect `toml:"detect"`
	Filter string        `toml:"filter"`
}

// LuaScript is `lua_script`: spec.md §3, §4.7.
type LuaScript struct {
	Source string `toml:"source"`
	File   string `toml:"file"`
	Lang   string `toml:"lang"`
}

// commandPatterns stores `command` as it was parsed — either a single
// string or an array of strings in the TOML source — but always
// normalized to a slice of pattern strings.
type commandPatterns []string

// Definition is the immutable, parsed form of a filter file
// (spec.md §3: "FilterDefinition. Immutable after parse.").
type Definition struct {
	Name    string `toml:"-"` // discovery name, not part of the file itself
	Command commandPatterns `toml:"command"`
	Run     string          `toml:"run"`

	Skip    []string      `toml:"skip"`
	Keep    []string      `toml:"keep"`
	Replace []ReplaceRule `toml:"replace"`

	MatchOutput []MatchOutputRule `toml:"match_output"`

	Dedup       bool `toml:"dedup"`
	DedupWindow *int `toml:"dedup_window"`

	StripAnsi          bool `toml:"strip_ansi"`
	TrimLines          bool `toml:"trim_lines"`
	StripEmptyLines    bool `toml:"strip_empty_lines"`
	CollapseEmptyLines bool `toml:"collapse_empty_lines"`
	PreserveColor      bool `toml:"preserve_color"`

	Section []SectionDef `toml:"section"`
	Chunk   []ChunkDef   `toml:"chunk"`

	OnSuccess *BranchDef `toml:"on_success"`
	OnFailure *BranchDef `toml:"on_failure"`

	ShowHistoryHint bool `toml:"show_history_hint"`

	LuaScript *LuaScript `toml:"lua_script"`

	Variant []VariantDef `toml:"variant"`
}

// EffectiveDedupWindow returns the configured window, defaulting to 1
// (spec.md §3: "omitted means only compare against the immediately
// previous emitted line").
func (d *Definition) EffectiveDedupWindow() int {
	if d.DedupWindow == nil || *d.DedupWindow < 1 {
		return 1
	}
	return *d.DedupWindow
}

// CommandPatterns returns the filter's command match patterns, each
// already split into whitespace-separated tokens.
func (d *Definition) CommandPatterns() [][]string {
	out := make([][]string, 0, len(d.Command))
	for _, pattern := range d.Command {
		out = append(out, splitWhitespace(pattern))
	}
	return out
}

func splitWhitespace(s string) []string {
	var tokens []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			flush()
			continue
		}
		cur = append(cur, c)
	}
	flush()
	return tokens
}
