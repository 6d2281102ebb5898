// Package tracer provides a lightweight tracing abstraction.
//
// Services depend on the Tracer interface instead of OpenTelemetry APIs so
// tests can run with NoopTracer while production uses OTelTracer.
//
// Attributes carry scores, verdicts and identifiers only. Embeddings and
// phoneme transcripts are never attached to spans.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span. The returned context carries the span.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanEvaluate,
	//       tracer.String(tracer.AttrProfileID, profileID.String()),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanBegin          = "voiceauth.session.begin"
	SpanEvaluate       = "voiceauth.session.evaluate"
	SpanScoreVoice     = "voiceauth.score.similarity"
	SpanScorePhrase    = "voiceauth.score.phonetic"
	SpanBookkeeping    = "voiceauth.session.bookkeeping"
	SpanEnrollPhrase   = "voiceauth.enrollment.passphrase"
	SpanEnrollVoice    = "voiceauth.enrollment.voice"
	SpanEnrollFinalize = "voiceauth.enrollment.finalize"
	SpanPerceive       = "voiceauth.perception.perceive"
)

// Attribute keys.
const (
	AttrProfileID       = "profile.id"
	AttrSessionID       = "session.id"
	AttrProfileStatus   = "profile.status"
	AttrSimilarityScore = "score.similarity"
	AttrPhoneticScore   = "score.phonetic"
	AttrVerdict         = "decision.verdict"
	AttrReason          = "decision.reason"
	AttrMode            = "decision.mode"
	AttrFailures        = "attempts.consecutive_failures"
	AttrConflictRetries = "store.conflict_retries"
	AttrSpeech          = "perception.speech_ms"
)

// Event names.
const (
	EventProfileLocked   = "profile.locked"
	EventProfileUnlocked = "profile.unlocked"
)
