package diag

import "testing"

func TestNoopNeverPanics(t *testing.T) {
	var r Recorder = Noop{}
	r.Warn("hello", Str("k", "v"))
	r.Error("boom", nil, Int("n", 1))
}
