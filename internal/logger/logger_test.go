package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, want := range cases {
		for _, encoding := range []string{"json", "console"} {
			log, err := New(level, encoding)
			if err != nil {
				t.Fatalf("New(%q, %q): %v", level, encoding, err)
			}
			if !log.Core().Enabled(want) || (want > zapcore.DebugLevel && log.Core().Enabled(want-1)) {
				t.Errorf("New(%q, %q) does not log at %v", level, encoding, want)
			}
		}
	}
}
