package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lifeline/contracts/events"
	"lifeline/internal/notification/metrics"
	"lifeline/pkg/requestcontext"
)

// Publisher turns service-level events into envelopes and hands them to the
// outbox. Emit never blocks and never fails the calling operation: in async
// mode a full buffer drops the event with a warning, in sync mode a failed
// outbox write is logged and swallowed. Notifications are best-effort by
// contract; the business write they describe has already committed.
type Publisher struct {
	outbox  OutboxStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	buffer    chan events.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// WithPublisherMetrics attaches pipeline metrics.
func WithPublisherMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithAsyncBuffer switches the publisher to async mode: Emit enqueues onto a
// buffer of the given size and a background worker drains it to the outbox.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan events.Envelope, size)
		}
	}
}

// NewPublisher constructs a Publisher. Synchronous by default; pass
// WithAsyncBuffer to decouple Emit from outbox latency.
func NewPublisher(outbox OutboxStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		outbox: outbox,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		go p.drain()
	}
	return p
}

// Emit wraps the payload in an envelope and queues it for publication. The
// envelope ID doubles as the Kafka message key downstream.
func (p *Publisher) Emit(ctx context.Context, kind string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "notification payload marshal failed",
			"kind", kind,
			"error", err,
		)
		return
	}

	env := events.Envelope{
		ID:            uuid.NewString(),
		Kind:          kind,
		OccurredAt:    requestcontext.Now(ctx),
		CorrelationID: requestcontext.RequestID(ctx),
		Payload:       raw,
	}

	if p.buffer == nil {
		p.append(ctx, env)
		return
	}

	select {
	case p.buffer <- env:
	default:
		p.metrics.IncDropped()
		p.logger.WarnContext(ctx, "notification buffer full, dropping event",
			"kind", kind,
			"event_id", env.ID,
		)
	}
}

// Close stops the async worker after draining whatever is already buffered.
// No-op in sync mode.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.buffer == nil {
			return
		}
		close(p.buffer)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for env := range p.buffer {
		p.append(context.Background(), env)
	}
}

func (p *Publisher) append(ctx context.Context, env events.Envelope) {
	if err := p.outbox.Append(ctx, env); err != nil {
		p.metrics.IncOutboxFailure()
		p.logger.ErrorContext(ctx, "outbox append failed",
			"kind", env.Kind,
			"event_id", env.ID,
			"error", err,
		)
		return
	}
	p.metrics.IncEmitted()
}
