package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	prev := L
	defer func() { L = prev }()

	tests := []struct {
		Level    string
		Expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, c := range tests {
		if err := Init(c.Level); err != nil {
			t.Fatalf("Init(%q): %v", c.Level, err)
		}
		if !L.Core().Enabled(c.Expected) {
			t.Errorf("Init(%q): level %s should be enabled", c.Level, c.Expected)
		}
		if c.Expected > zapcore.DebugLevel && L.Core().Enabled(c.Expected-1) {
			t.Errorf("Init(%q): level %s should be disabled", c.Level, c.Expected-1)
		}
	}
}

func TestNamed_BeforeInit(t *testing.T) {
	if Named("test") == nil {
		t.Fatal("expected a logger before Init")
	}
}
