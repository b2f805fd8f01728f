package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"lifeline/contracts/events"
	"lifeline/internal/notification/metrics"
	"lifeline/pkg/platform/circuit"
)

const (
	defaultRelayInterval = time.Second
	defaultRelayBatch    = 100
)

// RelayProducer is the broker slice the relay needs.
type RelayProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Relay ships outbox entries to Kafka in commit order. A circuit breaker
// stops it hammering a down broker: while open, each tick publishes a single
// probe entry and the rest of the backlog stays in the outbox untouched.
type Relay struct {
	outbox   OutboxStore
	producer RelayProducer
	breaker  *circuit.Breaker
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// RelayOption configures the Relay.
type RelayOption func(*Relay)

// WithRelayLogger sets the relay logger.
func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

// WithRelayMetrics attaches pipeline metrics.
func WithRelayMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) { r.metrics = m }
}

// WithRelayInterval sets the poll interval.
func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRelayBatchSize caps how many entries one tick ships.
func WithRelayBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

// NewRelay constructs a Relay over the given outbox and producer.
func NewRelay(outbox OutboxStore, producer RelayProducer, opts ...RelayOption) *Relay {
	r := &Relay{
		outbox:   outbox,
		producer: producer,
		breaker:  circuit.New("notification-relay"),
		interval: defaultRelayInterval,
		batch:    defaultRelayBatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls the outbox until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch of pending entries. A publish failure abandons
// the rest of the batch; the unpublished rows are picked up again next tick.
// Exported so tests and shutdown paths can flush without the ticker.
func (r *Relay) Drain(ctx context.Context) {
	entries, err := r.outbox.NextBatch(ctx, r.batch)
	if err != nil {
		r.logger.ErrorContext(ctx, "outbox poll failed", "error", err)
		return
	}
	if r.breaker.IsOpen() && len(entries) > 1 {
		entries = entries[:1]
	}

	for _, entry := range entries {
		if err := r.publish(ctx, entry); err != nil {
			r.metrics.IncRelayFailure()
			if _, change := r.breaker.RecordFailure(); change.Opened {
				r.metrics.SetBreakerOpen(true)
				r.logger.WarnContext(ctx, "relay circuit opened",
					"event_id", entry.Envelope.ID,
					"error", err,
				)
			} else {
				r.logger.ErrorContext(ctx, "publish failed, leaving entry in outbox",
					"event_id", entry.Envelope.ID,
					"error", err,
				)
			}
			return
		}

		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.metrics.SetBreakerOpen(false)
			r.logger.InfoContext(ctx, "relay circuit closed")
		}
		if err := r.outbox.MarkPublished(ctx, entry.ID); err != nil {
			// The event went out but the row survives; the consumer's
			// idempotent insert absorbs the redelivery.
			r.logger.ErrorContext(ctx, "mark published failed",
				"entry_id", entry.ID,
				"error", err,
			)
			return
		}
		r.metrics.IncRelayPublished()
	}
}

func (r *Relay) publish(ctx context.Context, entry OutboxEntry) error {
	value, err := json.Marshal(entry.Envelope)
	if err != nil {
		return err
	}
	return r.producer.Produce(ctx, events.Topic, []byte(entry.Envelope.ID), value)
}
