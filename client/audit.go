package client

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Audit event types.
const (
	EventAuthentication = "authentication"
	EventCommand        = "command"
)

// Audit event subtypes.
const (
	SubtypeAuthFailure     = "failure"
	SubtypeCommandExecute  = "execute"
	SubtypeCommandComplete = "complete"
	SubtypeCommandFailed   = "failed"
)

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
	OutcomeAttempt = "attempt"
)

// AuditEvent is one structured audit record. Command lines are never
// recorded verbatim since they may carry secrets.
type AuditEvent struct {
	Timestamp     string
	EventType     string
	Subtype       string
	User          string
	Target        string
	CorrelationID string
	Outcome       string
	Details       map[string]any
}

// LogValue renders the event as a group.
func (e *AuditEvent) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("timestamp", e.Timestamp),
		slog.String("event_type", e.EventType),
		slog.String("subtype", e.Subtype),
		slog.String("user", e.User),
		slog.String("target", e.Target),
		slog.String("correlation_id", e.CorrelationID),
		slog.String("outcome", e.Outcome),
	}
	for k, v := range e.Details {
		attrs = append(attrs, slog.Any(k, v))
	}
	return slog.GroupValue(attrs...)
}

// AuditLogger writes audit events for one client. All of its events share
// a correlation ID.
type AuditLogger struct {
	logger        *slog.Logger
	user          string
	target        string
	correlationID string
}

// NewAuditLogger creates an audit logger with a fresh correlation ID.
func NewAuditLogger(logger *slog.Logger, user, target string) *AuditLogger {
	return &AuditLogger{
		logger:        logger,
		user:          user,
		target:        target,
		correlationID: uuid.New().String(),
	}
}

// CorrelationID returns the ID shared by this logger's events.
func (l *AuditLogger) CorrelationID() string {
	return l.correlationID
}

// LogEvent writes one event at a level derived from the outcome.
func (l *AuditLogger) LogEvent(eventType, subtype, outcome string, details map[string]any) {
	if l == nil || l.logger == nil {
		return
	}

	event := &AuditEvent{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EventType:     eventType,
		Subtype:       subtype,
		User:          l.user,
		Target:        l.target,
		CorrelationID: l.correlationID,
		Outcome:       outcome,
		Details:       details,
	}

	switch outcome {
	case OutcomeFailure, OutcomeDenied:
		l.logger.Warn("audit", "event", event)
	default:
		l.logger.Info("audit", "event", event)
	}
}

// LogCommand logs a command event.
func (l *AuditLogger) LogCommand(subtype, outcome string, details map[string]any) {
	l.LogEvent(EventCommand, subtype, outcome, details)
}

// LogAuthentication logs an authentication event.
func (l *AuditLogger) LogAuthentication(subtype, outcome string, details map[string]any) {
	l.LogEvent(EventAuthentication, subtype, outcome, details)
}
