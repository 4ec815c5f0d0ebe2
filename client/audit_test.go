package client

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestAuditLogger_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	audit := NewAuditLogger(logger, "alice", "http://h:5985/wsman")
	require.NotEmpty(t, audit.CorrelationID())

	audit.LogCommand(SubtypeCommandExecute, OutcomeAttempt, map[string]any{"mode": "cmd"})
	audit.LogAuthentication(SubtypeAuthFailure, OutcomeDenied, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	event := lines[0]["event"].(map[string]any)
	assert.Equal(t, EventCommand, event["event_type"])
	assert.Equal(t, "alice", event["user"])
	assert.Equal(t, "cmd", event["mode"])
	assert.Equal(t, audit.CorrelationID(), event["correlation_id"])

	assert.Equal(t, "WARN", lines[1]["level"])
	event = lines[1]["event"].(map[string]any)
	assert.Equal(t, EventAuthentication, event["event_type"])
	assert.Equal(t, OutcomeDenied, event["outcome"])
	assert.Equal(t, audit.CorrelationID(), event["correlation_id"])
}

func TestAuditLogger_Nil(t *testing.T) {
	var audit *AuditLogger
	assert.NotPanics(t, func() {
		audit.LogCommand(SubtypeCommandExecute, OutcomeAttempt, nil)
	})
}

func TestAuditLogger_DistinctCorrelationIDs(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	a := NewAuditLogger(logger, "u", "t")
	b := NewAuditLogger(logger, "u", "t")
	assert.NotEqual(t, a.CorrelationID(), b.CorrelationID())
}
