package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/fieldorders/internal/logging"
)

func TestNew_RedactsSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "json")
	require.NoError(t, err)

	logger.Debug("login",
		"username", "tech1",
		"password", "secret",
		"token", "abc123",
		"Authorization", "Bearer abc123",
		slog.Group("request", "firma", "iVBORw0KGgo="),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "tech1", entry["username"])
	assert.Equal(t, logging.Redacted, entry["password"])
	assert.Equal(t, logging.Redacted, entry["token"])
	assert.Equal(t, logging.Redacted, entry["Authorization"])
	assert.Equal(t, map[string]any{"firma": logging.Redacted}, entry["request"])
	assert.NotContains(t, buf.String(), "abc123")
	assert.NotContains(t, buf.String(), "secret\"")
}

func TestNew_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", "text")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "order_id", 5)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "order_id=5")
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = logging.New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	assert.True(t, logging.IsSensitiveKey("SECRET_KEY"))
	assert.True(t, logging.IsSensitiveKey("signature_payload"))
	assert.False(t, logging.IsSensitiveKey("order_id"))
	assert.False(t, logging.IsSensitiveKey("path"))
}
