package audit

import (
	"context"
	"log/slog"

	id "voicegate/pkg/domain"
	"voicegate/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger provides structured audit logging with optional event emission.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. Either argument may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Record logs an audit event to text and emits it when an emitter is configured.
// The request ID and timestamp are taken from ctx.
func (l *Logger) Record(ctx context.Context, event AuditEvent, profileID id.ProfileID, decision, reason string, attributes ...any) {
	if l == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	clientIP := requestcontext.ClientIP(ctx)
	actor := requestcontext.Actor(ctx)

	if l.textLogger != nil {
		args := append(attributes,
			"event", string(event),
			"log_type", "audit",
			"profile_id", profileID.String(),
		)
		if decision != "" {
			args = append(args, "decision", decision)
		}
		if reason != "" {
			args = append(args, "reason", reason)
		}
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if clientIP != "" {
			args = append(args, "client_ip", clientIP)
		}
		if actor != "" {
			args = append(args, "actor", actor)
		}
		l.textLogger.InfoContext(ctx, string(event), args...)
	}

	if l.emitter == nil {
		return
	}
	err := l.emitter.Emit(ctx, Event{
		Timestamp: requestcontext.Now(ctx),
		ProfileID: profileID,
		Action:    string(event),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestID,
		ClientIP:  clientIP,
		Actor:     actor,
	})
	if err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", string(event),
		)
	}
}
