package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreSortedAndErrorsNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := current.Load()
	current.Store(zap.New(core))
	t.Cleanup(func() { current.Store(prev) })

	Info("optimization.status", map[string]any{
		"status": "done",
		"error":  errors.New("boom"),
		"cv_id":  int64(3),
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["status"] != "done" || ctx["error"] != "boom" || ctx["cv_id"] != int64(3) {
		t.Fatalf("unexpected fields %#v", ctx)
	}
	if entries[0].Context[0].Key != "cv_id" {
		t.Fatalf("expected sorted keys, first was %s", entries[0].Context[0].Key)
	}
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}
