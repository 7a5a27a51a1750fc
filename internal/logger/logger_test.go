package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/wuxia-session/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTo_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupTo(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithRequestID(WithSessionID(log, "sess-1"), "req-1").Info("Submitted action")
	log.Debug("Dropped below level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Submitted action", entry["msg"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestSetupTo_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := SetupTo(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelDebug})

	WithError(log, errors.New("boom")).Debug("Request failed")
	assert.Contains(t, buf.String(), "msg=\"Request failed\"")
	assert.Contains(t, buf.String(), "error=boom")
}
