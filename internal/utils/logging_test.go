package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  zerolog.Level
	}{
		{name: "default", debug: false, want: zerolog.InfoLevel},
		{name: "debug", debug: true, want: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("GetLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)

	logger.Debug().Msg("hidden")
	logger.Warn().Str("code", "UNBALANCED_TRACE").Msg("unbalanced call-return pair")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message written at info level")
	}
	if !strings.Contains(out, "unbalanced call-return pair") || !strings.Contains(out, "UNBALANCED_TRACE") {
		t.Errorf("unexpected log output: %q", out)
	}
}
