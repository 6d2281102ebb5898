package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "voicegate/pkg/platform/audit"
)

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event audit.Event) error
}

// Publisher captures structured audit events. It is append-only and delegates
// persistence to a Sink so tests can swap sinks easily.
type Publisher struct {
	sink   Sink
	events chan audit.Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.sink.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"profile_id", event.ProfileID.String(),
			)
		}
	}
}

// Emit records an event. In async mode it never blocks on the sink; when the
// buffer is full the event is persisted synchronously.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.async {
		select {
		case p.events <- event:
			return nil
		default:
		}
	}
	return p.sink.Append(ctx, event)
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// MemorySink keeps events in process. Used by tests and the CLI.
type MemorySink struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Append(_ context.Context, event audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the recorded events in append order.
func (m *MemorySink) Events() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Event, len(m.events))
	copy(out, m.events)
	return out
}

// LogSink writes events as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Append(ctx context.Context, event audit.Event) error {
	l.logger.InfoContext(ctx, "audit_event",
		"action", event.Action,
		"profile_id", event.ProfileID.String(),
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
		"actor", event.Actor,
		"timestamp", event.Timestamp,
	)
	return nil
}
