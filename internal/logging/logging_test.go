package logging

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" error ", LevelError},
		{"warn", LevelWarn},
		{"", LevelWarn},
		{"verbose", LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLogging_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	t.Cleanup(func() { Init(LevelWarn, io.Discard) })

	Debug("translator", "hidden %d", 1)
	Info("translator", "shown %d", 2)
	Error("runner", errors.New("exit status 1"), "adapter failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "subsystem=translator")
	assert.Contains(t, out, `error="exit status 1"`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
