package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestConfigureJSON(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Level: "info", Format: FormatText}) })

	var buf bytes.Buffer
	Configure(Config{Level: "warn", Format: FormatJSON, Output: &buf, Service: "academia"})

	Info().Msg("dropped")
	Warn().Str("entity", "student").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "student", entry["entity"])
	assert.Equal(t, "academia", entry["service"])
}
