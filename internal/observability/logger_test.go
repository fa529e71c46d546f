package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Level: InfoLevel, Output: &buf, Service: "petalbrew", Version: "test"})

	log.Info("stage complete", map[string]interface{}{"stage": "load_flowers", "rows": 3})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "stage complete", entry.Message)
	assert.Equal(t, "petalbrew", entry.Service)
	assert.EqualValues(t, 3, entry.Fields["rows"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Level: WarnLevel, Output: &buf})

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Zero(t, buf.Len())

	log.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(LoggerConfig{Level: InfoLevel, Output: &buf})
	child := parent.WithField("run_id", "abc123")

	child.Info("from child")
	assert.Contains(t, buf.String(), "abc123")

	buf.Reset()
	parent.Info("from parent")
	assert.NotContains(t, buf.String(), "abc123")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, InfoLevel, ParseLevel("whatever"))
}
