package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug")
	t.Cleanup(func() { Init("info") })

	Component("tracking").Debug("state changed", "to", "locked")
	assert.Contains(t, buf.String(), "component=tracking")
	assert.Contains(t, buf.String(), "to=locked")
}
