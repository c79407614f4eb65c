package diag

import "go.uber.org/zap"

// ZapRecorder implements Recorder over a *zap.Logger (spec.md §7:
// diagnostics surface "on the verbose channel").
type ZapRecorder struct {
	logger *zap.Logger
}

// NewZapRecorder wraps an already-configured zap logger.
func NewZapRecorder(logger *zap.Logger) *ZapRecorder {
	return &ZapRecorder{logger: logger}
}

func (r *ZapRecorder) Warn(msg string, fields ...Field) {
	r.logger.Warn(msg, toZapFields(fields)...)
}

func (r *ZapRecorder) Error(msg string, err error, fields ...Field) {
	zf := append(toZapFields(fields), zap.Error(err))
	r.logger.Error(msg, zf...)
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}
