package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "parseLevel(%q)", tt.input)
	}
}

func TestNewStampsServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Level: "info", Format: "json", Service: "ledgerimport", Output: &buf}), "importer")

	log.Info().Str("batch_id", "b1").Msg("import completed")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "ledgerimport", event["service"])
	assert.Equal(t, "importer", event["component"])
	assert.Equal(t, "b1", event["batch_id"])
	assert.Equal(t, "import completed", event["message"])
	assert.Contains(t, event, "time")
	assert.Contains(t, event, "caller")
}

func TestNewOmitsEmptyService(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Output: &buf}).Info().Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.NotContains(t, event, "service")
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "Console", Service: "ledgerctl", Output: &buf}).Info().Msg("migrations applied")

	out := buf.String()
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), out)
	assert.Contains(t, out, "migrations applied")
	assert.Contains(t, out, "ledgerctl")
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "error", Output: &buf})

	log.Info().Msg("rows staged")
	assert.Empty(t, buf.String())

	log.Error().Msg("chunk failed")
	assert.Contains(t, buf.String(), "chunk failed")
}
