package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for name, want := range cases {
		if got := ParseLevel(name); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestZapLogsObjectUnderKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZap(zap.New(core))

	log.WarnObj("sensor poll failed", "sensor_error", map[string]any{"sensor_id": "wind"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].Message != "sensor poll failed" {
		t.Fatalf("unexpected entry %+v", entries[0].Entry)
	}
	field, ok := entries[0].ContextMap()["sensor_error"].(map[string]any)
	if !ok || field["sensor_id"] != "wind" {
		t.Fatalf("unexpected field %#v", entries[0].ContextMap())
	}
}

func TestNewZapNilIsSafe(t *testing.T) {
	NewZap(nil).InfoObj("noop", "k", 1)
}
