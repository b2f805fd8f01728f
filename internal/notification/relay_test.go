package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/contracts/events"
)

type stubProducer struct {
	mu      sync.Mutex
	fail    bool
	records [][]byte
	keys    []string
	topics  []string
}

func (p *stubProducer) Produce(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	p.records = append(p.records, value)
	return nil
}

func (p *stubProducer) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func (p *stubProducer) produced() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func appendEnvelopes(t *testing.T, outbox *InMemoryOutbox, n int) {
	t.Helper()
	for i := range n {
		err := outbox.Append(context.Background(), events.Envelope{
			ID:      fmt.Sprintf("event-%d", i),
			Kind:    events.KindMilestone,
			Payload: []byte(`{}`),
		})
		require.NoError(t, err)
	}
}

func TestRelay_ShipsInOrder(t *testing.T) {
	outbox := NewInMemoryOutbox()
	producer := &stubProducer{}
	relay := NewRelay(outbox, producer, WithRelayLogger(discardLogger()))

	appendEnvelopes(t, outbox, 3)
	relay.Drain(context.Background())

	assert.Equal(t, 0, outbox.Pending())
	require.Equal(t, 3, producer.produced())
	assert.Equal(t, []string{"event-0", "event-1", "event-2"}, producer.keys)
	assert.Equal(t, events.Topic, producer.topics[0])
}

func TestRelay_FailureLeavesRows(t *testing.T) {
	outbox := NewInMemoryOutbox()
	producer := &stubProducer{fail: true}
	relay := NewRelay(outbox, producer, WithRelayLogger(discardLogger()))

	appendEnvelopes(t, outbox, 3)
	relay.Drain(context.Background())

	assert.Equal(t, 3, outbox.Pending(), "nothing may be marked published on failure")
	assert.Equal(t, 0, producer.produced())
}

func TestRelay_BreakerOpensAndRecovers(t *testing.T) {
	outbox := NewInMemoryOutbox()
	producer := &stubProducer{fail: true}
	relay := NewRelay(outbox, producer, WithRelayLogger(discardLogger()))

	appendEnvelopes(t, outbox, 4)

	// Default failure threshold is five consecutive failures.
	for range 5 {
		relay.Drain(context.Background())
	}
	assert.Equal(t, 4, outbox.Pending())

	// Broker heals. While open the relay probes one entry per drain and the
	// default success threshold is two, so the circuit closes on the second
	// probe and the third drain flushes the backlog.
	producer.setFail(false)
	relay.Drain(context.Background())
	assert.Equal(t, 3, outbox.Pending())

	relay.Drain(context.Background())
	assert.Equal(t, 2, outbox.Pending())

	relay.Drain(context.Background())
	assert.Equal(t, 0, outbox.Pending())
}

func TestRelay_BatchSizeCapsOneDrain(t *testing.T) {
	outbox := NewInMemoryOutbox()
	producer := &stubProducer{}
	relay := NewRelay(outbox, producer,
		WithRelayLogger(discardLogger()),
		WithRelayBatchSize(2),
	)

	appendEnvelopes(t, outbox, 5)
	relay.Drain(context.Background())
	assert.Equal(t, 3, outbox.Pending())

	relay.Drain(context.Background())
	relay.Drain(context.Background())
	assert.Equal(t, 0, outbox.Pending())
}
