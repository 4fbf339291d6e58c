package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	batch  []Event
	sent   []int64
	failed map[int64]string
}

func (s *stubStore) LockBatch(context.Context, string, int, time.Duration) ([]Event, error) {
	out := s.batch
	s.batch = nil
	return out, nil
}

func (s *stubStore) MarkSent(_ context.Context, ids []int64) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *stubStore) MarkFailed(_ context.Context, id int64, msg string) error {
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = msg
	return nil
}

type stubProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *stubProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func TestRelayFlushMarksSentAndFailed(t *testing.T) {
	store := &stubStore{batch: []Event{
		{ID: 1, AggregateType: "order", AggregateID: "o-1", Type: "order.created", Payload: []byte(`{"code":"ORD-20240101-001"}`)},
		{ID: 2, AggregateType: "order", AggregateID: "o-2", Type: "order.created", Payload: []byte(`{}`)},
	}}
	producer := &stubProducer{failOn: "o-2"}
	relay := NewRelay(nil, store, NewDispatcher(nil, producer, "orders.events"), nil, "test")

	sent, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Contains(t, store.failed, int64(2))

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "orders.events", msg.Topic)
	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order.created", string(msg.Headers[0].Value))
}

func TestRelayFlushEmptyBatch(t *testing.T) {
	store := &stubStore{}
	relay := NewRelay(nil, store, NewDispatcher(nil, &stubProducer{}, "t"), nil, "test")

	sent, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, store.sent)
}
