// Package diag carries the diagnostic-recording contract used across
// the core (spec.md §7: regex/config/script errors never abort a
// pipeline, but must surface "on the verbose channel"). Core packages
// depend only on the Recorder interface; internal/cli wires the zap-backed
// implementation so no core package imports zap directly.
package diag

// Recorder records non-fatal diagnostics produced during discovery or
// a pipeline run. Implementations must not block or panic.
type Recorder interface {
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
}

// Field is a lazily-typed key/value pair, mirroring zap's field
// constructors without requiring callers to import zap.
type Field struct {
	Key   string
	Value any
}

// Str builds a string Field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an integer Field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Noop discards every diagnostic. Used by callers (and tests) that
// don't care about the verbose channel.
type Noop struct{}

func (Noop) Warn(string, ...Field)         {}
func (Noop) Error(string, error, ...Field) {}
