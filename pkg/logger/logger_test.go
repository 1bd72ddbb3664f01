package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize(Config{Level: "disabled", Format: "json"}) })

	Info("user registered", map[string]interface{}{"user_id": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "user registered", entry["message"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize(Config{Level: "disabled", Format: "json"}) })

	Debug("hidden")
	Info("hidden too")
	Error("failed to save", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"error":"boom"`)
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize(Config{Level: "disabled", Format: "json"}) })

	WithContext(map[string]interface{}{"request_id": "abc"}).Warn("slow request")

	assert.Contains(t, buf.String(), `"request_id":"abc"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
