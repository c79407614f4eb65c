package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// supportedCommands caches the set of base commands discovered filters
// can handle (derived from each entry's leading command-pattern token,
// e.g. "git/push" -> command pattern "git push" -> "git"), so the hook
// stays in sync with whatever filters are actually installed instead
// of a hardcoded list (spec.md §4.9's discovery tiers are the source
// of truth for what tokf can filter).
var (
	supportedOnce sync.Once
	supported     map[string]bool
)

func supportedCommands() map[string]bool {
	supportedOnce.Do(func() {
		supported = make(map[string]bool)
		idx := newResolver().Index()
		for _, entry := range idx.Ordered() {
			for _, pattern := range entry.Def.CommandPatterns() {
				if len(pattern) == 0 {
					continue
				}
				supported[pattern[0]] = true
			}
		}
	})
	return supported
}

// hookInput represents the JSON structure Claude Code sends to PreToolUse hooks.
type hookInput struct {
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		Command string `json:"command"`
	} `json:"tool_input"`
}

// hookOutput represents the JSON structure we return to Claude Code.
type hookOutput struct {
	HookSpecificOutput struct {
		HookEventName      string `json:"hookEventName"`
		PermissionDecision string `json:"permissionDecision"`
		UpdatedInput       struct {
			Command string `json:"command"`
		} `json:"updatedInput"`
	} `json:"hookSpecificOutput"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Claude Code PreToolUse hook handler",
	Long:  "Reads Claude Code hook input from stdin and rewrites supported commands to use tokf.",
	RunE:  runHook,
}

// runHook implements the Claude Code PreToolUse hook contract.
//
// This function silently returns nil on ALL errors. Claude Code hooks
// that exit non-zero or produce unexpected output break ALL subsequent
// tool invocations in the session. The hook must be invisible when it
// cannot help — a broken hook is worse than no hook.
//
// To debug hook behavior, run manually:
//
//	echo '{"tool_name":"Bash","tool_input":{"command":"git status"}}' | tokf hook
func runHook(_ *cobra.Command, _ []string) error {
	inputBytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil
	}

	var input hookInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return nil
	}

	if input.ToolName != "Bash" {
		return nil
	}

	command := strings.TrimSpace(input.ToolInput.Command)
	if command == "" {
		return nil
	}

	// Don't wrap shell pipelines or chains — tokf can't handle them.
	if containsShellOps(command) {
		return nil
	}

	firstWord := extractFirstWord(command)
	if firstWord == "" {
		return nil
	}

	// Don't double-wrap if already tokf-prefixed.
	if firstWord == "tokf" {
		return nil
	}

	if !isSupportedCommand(firstWord) {
		return nil
	}

	var output hookOutput
	output.HookSpecificOutput.HookEventName = "PreToolUse"
	output.HookSpecificOutput.PermissionDecision = "allow"
	output.HookSpecificOutput.UpdatedInput.Command = "tokf " + command

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return nil
	}

	if _, err := os.Stdout.Write(outputBytes); err != nil {
		return nil
	}

	return nil
}

// containsShellOps checks if the command contains shell operators that would
// prevent tokf from wrapping it (pipes, chains, subshells, etc.).
//
// NOTE: this uses naive string matching and may produce false positives for
// operators inside quoted strings (e.g., git log --grep="|pattern"). A false
// positive simply means the command runs unwrapped, never filtered.
func containsShellOps(cmd string) bool {
	return strings.Contains(cmd, "|") ||
		strings.Contains(cmd, "&&") ||
		strings.Contains(cmd, "||") ||
		strings.Contains(cmd, ";") ||
		strings.Contains(cmd, "$(") ||
		strings.Contains(cmd, "`")
}

// extractFirstWord returns the first whitespace-separated word from the command.
func extractFirstWord(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// isSupportedCommand checks if the command is one of the base commands
// some discovered filter handles.
func isSupportedCommand(cmd string) bool {
	return supportedCommands()[cmd]
}
