package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLevelString(t *testing.T) {
	defer SetLevel(zerolog.InfoLevel)

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", Log.GetLevel())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestComponent(t *testing.T) {
	saved := Log
	defer func() { Log = saved }()

	var buf bytes.Buffer
	Log = zerolog.New(&buf)
	l := Component("resolver")
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"resolver"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}
