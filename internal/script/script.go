// Package script implements the C7 sandboxed script stage: an
// optional Lua post-process step run under an instruction and memory
// budget, diagnostic-only on failure (spec.md §4.7).
package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/Fuabioo/tokf/internal/filterdef"
)

// Budget bounds one script run (spec.md §4.7: "a runaway or hostile
// script must never hang or crash the host process").
type Budget struct {
	MaxSteps    int
	MaxMemoryMB int
}

// DefaultBudget is the budget applied when a filter doesn't override
// it (spec.md §4.7).
var DefaultBudget = Budget{MaxSteps: 1_000_000, MaxMemoryMB: 16}

// stepsPerSecond calibrates the wall-clock deadline that stands in for
// gopher-lua's lack of a native per-instruction counter; the VM checks
// its context on (approximately) every instruction, so a deadline
// derived from MaxSteps approximates an instruction budget.
const stepsPerSecond = 2_000_000

// Result is the outcome of one script run.
type Result struct {
	Text    string
	Changed bool
	Err     error
}

// Run executes script.Source against text, with output/exit_code/args
// bound as globals. script.File is not read: a script with an empty
// Source leaves text unchanged. A script that errors, times out, or
// returns nil or a non-string leaves text unchanged — script failures
// are reported in Result.Err and never abort the pipeline (spec.md
// §4.7, §7).
func Run(script *filterdef.LuaScript, text string, exitCode int, args []string, budget Budget) Result {
	if script == nil || script.Source == "" {
		return Result{Text: text}
	}

	L := lua.NewState(lua.Options{
		CallStackSize:       256,
		RegistrySize:        1024 * 8,
		RegistryMaxSize:     budget.MaxMemoryMB * 1024, // proxy for a byte budget
		RegistryGrowStep:    32,
		SkipOpenLibs:        false,
		IncludeGoStackTrace: false,
	})
	defer L.Close()

	deadline := time.Duration(float64(budget.MaxSteps)/stepsPerSecond*1000) * time.Millisecond
	if deadline <= 0 {
		deadline = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()
	L.SetContext(ctx)

	L.SetGlobal("output", lua.LString(text))
	L.SetGlobal("exit_code", lua.LNumber(exitCode))
	argsTable := L.NewTable()
	for i, a := range args {
		L.RawSetInt(argsTable, i+1, lua.LString(a))
	}
	L.SetGlobal("args", argsTable)

	if err := L.DoString(script.Source); err != nil {
		return Result{Text: text, Err: fmt.Errorf("script: %w", err)}
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LNil || ret.Type() == lua.LTNil {
		return Result{Text: text}
	}
	if s, ok := ret.(lua.LString); ok {
		return Result{Text: string(s), Changed: true}
	}
	return Result{Text: text}
}
