// Package pipeline implements the C8 orchestrator: the fixed stage
// order that turns one captured command's raw output into filtered
// text plus metrics (spec.md §4.8).
package pipeline

import (
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/Fuabioo/tokf/internal/aggregate"
	"github.com/Fuabioo/tokf/internal/branch"
	"github.com/Fuabioo/tokf/internal/clean"
	"github.com/Fuabioo/tokf/internal/extract"
	"github.com/Fuabioo/tokf/internal/filterdef"
	"github.com/Fuabioo/tokf/internal/linefilter"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/script"
	"github.com/Fuabioo/tokf/internal/tmpl"
)

// Input bundles everything one pipeline run needs. Args is already
// resolved by the filter resolver (C9) by the time it reaches here; a
// `run` override is applied by the executor before the command runs
// (spec.md §4.8 step 1).
type Input struct {
	Def      *filterdef.Definition
	Raw      string
	ExitCode int
	Args     []string
}

// Metrics reports the shape of one run's input/output (spec.md §4.8
// step 9).
type Metrics struct {
	InputBytes  int
	OutputBytes int
	InputLines  int
	OutputLines int
	ElapsedNS   int64
}

// Output is the pipeline's return value.
type Output struct {
	Text    string
	Metrics Metrics
}

// Run executes the nine-step stage order from spec.md §4.8 over one
// captured command's output.
func Run(in Input, cache *regexcache.Cache, budget script.Budget) Output {
	start := time.Now()
	def := in.Def

	if text, fired := runMatchOutput(def, in, cache); fired {
		text, _ = runScript(def, text, in, budget)
		return finish(in.Raw, text, start)
	}

	flags := clean.Flags{
		StripANSI:          def.StripAnsi,
		TrimLines:          def.TrimLines,
		StripEmptyLines:    def.StripEmptyLines,
		CollapseEmptyLines: def.CollapseEmptyLines,
		PreserveColor:      def.PreserveColor,
	}
	cleanedLines := clean.Apply(in.Raw, flags)

	rawClean := make([]string, len(cleanedLines))
	for i, l := range cleanedLines {
		rawClean[i] = l.Clean
	}

	sections := extract.Sections(rawClean, def.Section, cache)
	namedLines := make(map[string][]string, len(sections))
	for name, res := range sections {
		namedLines[name] = res.Lines
	}
	namedChunks := extract.AllChunks(rawClean, def.Chunk, cache)

	filtered := linefilter.Apply(cleanedLines, linefilter.Options{
		Replace:       def.Replace,
		Skip:          def.Skip,
		Keep:          def.Keep,
		Dedup:         def.Dedup,
		DedupWindow:   def.EffectiveDedupWindow(),
		PreserveColor: flags.PreserveColor,
	}, cache)

	workingLines := make([]string, len(filtered))
	for i, l := range filtered {
		if flags.PreserveColor {
			workingLines[i] = l.Colored
		} else {
			workingLines[i] = l.Clean
		}
	}
	workingText := strings.Join(workingLines, "\n")

	br := branch.Select(def, in.ExitCode)
	scalars := branchScalars(br, namedLines, cache)
	resolver := buildScope(workingText, namedLines, namedChunks, scalars, in.ExitCode, in.Args)

	branched, _ := branch.Apply(br, workingLines, resolver, cache)

	text, _ := runScript(def, branched, in, budget)
	return finish(in.Raw, text, start)
}

func runMatchOutput(def *filterdef.Definition, in Input, cache *regexcache.Cache) (string, bool) {
	if len(def.MatchOutput) == 0 {
		return "", false
	}
	resolver := buildScope(in.Raw, nil, nil, nil, in.ExitCode, in.Args)
	rendered := func(output string) string {
		t, err := tmpl.Parse(output)
		if err != nil {
			return output
		}
		return tmpl.Render(t, resolver, cache)
	}
	return extract.MatchOutput(in.Raw, def.MatchOutput, rendered)
}

func runScript(def *filterdef.Definition, text string, in Input, budget script.Budget) (string, error) {
	if def.LuaScript == nil {
		return text, nil
	}
	res := script.Run(def.LuaScript, text, in.ExitCode, in.Args, budget)
	return res.Text, res.Err
}

func branchScalars(br *filterdef.BranchDef, namedLines map[string][]string, cache *regexcache.Cache) aggregate.Scalars {
	if br == nil {
		return nil
	}
	rules := br.AllAggregates()
	if len(rules) == 0 {
		return nil
	}
	lookup := func(name string) []string { return namedLines[name] }
	return aggregate.RunAll(rules, lookup, cache)
}

func buildScope(workingText string, namedLines map[string][]string, namedChunks map[string][]tmpl.Item, scalars aggregate.Scalars, exitCode int, args []string) tmpl.MapResolver {
	scope := tmpl.MapResolver{
		"output":    tmpl.StrValue(workingText),
		"exit_code": tmpl.IntValue(int64(exitCode)),
		// {args} is the trailing unmatched argv, space-joined with
		// shell-safe escaping (spec.md §3) -- a Str, not a Collection,
		// so a bare `{args}` in a run-override template is directly
		// safe to exec through a shell.
		"args": tmpl.StrValue(shellescape.QuoteCommand(args)),
	}
	for name, lines := range namedLines {
		scope[name] = tmpl.CollectionValue(lines)
	}
	for name, items := range namedChunks {
		scope[name] = tmpl.StructuredValue(items)
	}
	for name, n := range scalars {
		scope[name] = tmpl.IntValue(n)
	}
	return scope
}

func finish(raw, text string, start time.Time) Output {
	return Output{
		Text: text,
		Metrics: Metrics{
			InputBytes:  len(raw),
			OutputBytes: len(text),
			InputLines:  countLines(raw),
			OutputLines: countLines(text),
			ElapsedNS:   time.Since(start).Nanoseconds(),
		},
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
