package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the tokf hook into Claude Code",
	Long:  "Installs a PreToolUse hook in Claude Code settings that transparently wraps supported commands with tokf.",
	RunE:  runInit,
}

var uninstallFlag bool

func init() {
	initCmd.Flags().BoolVar(&uninstallFlag, "uninstall", false, "Remove the tokf hook from Claude Code settings")
}

func runInit(_ *cobra.Command, _ []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}

	settingsPath := filepath.Join(homeDir, ".claude", "settings.json")

	if uninstallFlag {
		return uninstallHook(settingsPath)
	}

	return installHook(settingsPath)
}

func installHook(settingsPath string) error {
	data, err := os.ReadFile(settingsPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read settings.json: %w", err)
	}
	if os.IsNotExist(err) {
		data = []byte("{}")
	}

	result, alreadyPresent, err := addHookToSettings(data)
	if err != nil {
		return err
	}

	if alreadyPresent {
		fmt.Println("tokf hook already installed in ~/.claude/settings.json")
		return nil
	}

	if err := writeSettings(settingsPath, result); err != nil {
		return err
	}

	fmt.Println("tokf hook installed in ~/.claude/settings.json")
	return nil
}

func uninstallHook(settingsPath string) error {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("tokf hook not found, nothing to remove")
			return nil
		}
		return fmt.Errorf("failed to read settings.json: %w", err)
	}

	result, removed, err := removeHookFromSettings(data)
	if err != nil {
		return err
	}

	if !removed {
		fmt.Println("tokf hook not found, nothing to remove")
		return nil
	}

	if err := writeSettings(settingsPath, result); err != nil {
		return err
	}

	fmt.Println("tokf hook removed from ~/.claude/settings.json")
	return nil
}

// writeSettings atomically writes data to path using a temp-file + rename.
func writeSettings(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// hookCommand is the PreToolUse command entry tokf installs.
const hookCommand = "tokf hook"

// addHookToSettings surgically inserts the tokf Bash hook via sjson,
// preserving the rest of settings.json's key order and formatting
// instead of a full unmarshal/remarshal round trip. Returns
// (result, alreadyPresent, error).
func addHookToSettings(input []byte) ([]byte, bool, error) {
	if len(input) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if !gjson.ValidBytes(input) {
		return nil, false, fmt.Errorf("failed to parse JSON: invalid settings.json")
	}

	matcherIdx, hookIdx, found := findHookEntry(input)
	if found {
		_ = matcherIdx
		_ = hookIdx
		return input, true, nil
	}

	entries := gjson.GetBytes(input, "hooks.PreToolUse")
	newEntryIdx := 0
	if entries.IsArray() {
		newEntryIdx = len(entries.Array())
	}

	path := fmt.Sprintf("hooks.PreToolUse.%d", newEntryIdx)
	result, err := sjson.SetBytes(input, path+".matcher", "Bash")
	if err != nil {
		return nil, false, fmt.Errorf("failed to set matcher: %w", err)
	}
	result, err = sjson.SetBytes(result, path+".hooks.0.type", "command")
	if err != nil {
		return nil, false, fmt.Errorf("failed to set hook type: %w", err)
	}
	result, err = sjson.SetBytes(result, path+".hooks.0.command", hookCommand)
	if err != nil {
		return nil, false, fmt.Errorf("failed to set hook command: %w", err)
	}
	return result, false, nil
}

// removeHookFromSettings removes the tokf Bash hook entry, surgically,
// via sjson.Delete. Returns (result, wasRemoved, error).
func removeHookFromSettings(input []byte) ([]byte, bool, error) {
	if len(input) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if !gjson.ValidBytes(input) {
		return nil, false, fmt.Errorf("failed to parse JSON: invalid settings.json")
	}

	matcherIdx, hookIdx, found := findHookEntry(input)
	if !found {
		return input, false, nil
	}

	hooksPath := fmt.Sprintf("hooks.PreToolUse.%d.hooks", matcherIdx)
	hooksArr := gjson.GetBytes(input, hooksPath)
	result := input
	var err error
	if len(hooksArr.Array()) == 1 {
		// Last hook under this matcher: drop the whole matcher entry.
		result, err = sjson.DeleteBytes(result, fmt.Sprintf("hooks.PreToolUse.%d", matcherIdx))
	} else {
		result, err = sjson.DeleteBytes(result, fmt.Sprintf("%s.%d", hooksPath, hookIdx))
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to remove hook: %w", err)
	}
	return result, true, nil
}

// findHookEntry locates the Bash matcher entry carrying hookCommand,
// returning its PreToolUse array index and the nested hooks[] index.
func findHookEntry(input []byte) (matcherIdx, hookIdx int, found bool) {
	entries := gjson.GetBytes(input, "hooks.PreToolUse")
	if !entries.IsArray() {
		return 0, 0, false
	}
	for i, entry := range entries.Array() {
		if entry.Get("matcher").String() != "Bash" {
			continue
		}
		hooks := entry.Get("hooks")
		if !hooks.IsArray() {
			continue
		}
		for j, h := range hooks.Array() {
			if h.Get("type").String() == "command" && h.Get("command").String() == hookCommand {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
