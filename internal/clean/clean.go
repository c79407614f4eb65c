// Package clean implements the C2 text-cleanup stage: ANSI stripping,
// line trimming, and blank-line normalization (spec.md §4.2).
package clean

import (
	"regexp"
	"strings"
)

// ansiPattern matches ANSI escape sequences (CSI, OSC, simple escapes).
// Carried from the teacher's internal/filter/ansi.go unchanged — it is
// already the correct, battle-tested pattern for this concern.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;:?]*[a-zA-Z]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[()][AB012]|\x1b[=>]`)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// Flags mirrors FilterDefinition's cleanup flags (spec.md §3).
type Flags struct {
	StripANSI           bool
	TrimLines            bool
	StripEmptyLines      bool
	CollapseEmptyLines   bool
	PreserveColor        bool
}

// Line is one line of output after cleanup: Clean is the
// pattern-matching text, Colored is the original (untrimmed,
// unstripped) text. Both are always set; the pipeline emits Colored
// only when PreserveColor is active (spec.md §4.2 step 1, §4.8
// "Preserve-color mode").
type Line struct {
	Clean   string
	Colored string
}

// Apply runs the ordered cleanup steps of spec.md §4.2 over raw
// captured text and returns the resulting lines.
func Apply(raw string, f Flags) []Line {
	rawLines := strings.Split(raw, "\n")
	lines := make([]Line, len(rawLines))

	stripAnsi := f.StripANSI || f.PreserveColor
	for i, l := range rawLines {
		if stripAnsi {
			lines[i] = Line{Clean: StripANSI(l), Colored: l}
		} else {
			lines[i] = Line{Clean: l, Colored: l}
		}
	}

	if f.TrimLines {
		for i := range lines {
			// Only the clean copy is trimmed; colored text is preserved
			// line-for-line (spec.md §4.2 step 2).
			lines[i].Clean = strings.Trim(lines[i].Clean, " \t\r\n\v\f")
		}
	}

	switch {
	case f.StripEmptyLines:
		lines = stripEmpty(lines)
	case f.CollapseEmptyLines:
		lines = collapseEmpty(lines)
	}

	return lines
}

func stripEmpty(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Clean == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func collapseEmpty(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	prevEmpty := false
	for _, l := range lines {
		empty := l.Clean == ""
		if empty && prevEmpty {
			continue
		}
		out = append(out, l)
		prevEmpty = empty
	}
	return out
}

// CleanText joins the Clean side of lines with "\n".
func CleanText(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Clean
	}
	return strings.Join(parts, "\n")
}

// ColoredText joins the Colored side of lines with "\n".
func ColoredText(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Colored
	}
	return strings.Join(parts, "\n")
}
