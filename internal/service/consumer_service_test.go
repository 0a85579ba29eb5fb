package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/events"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
)

const testTopic = "intake_completed"

type recordingRelay struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingRelay) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingRelay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type delivered struct {
	sessionID string
	eventType string
	data      interface{}
}

type recordingDelivery struct {
	mu   sync.Mutex
	sent []delivered
}

func (d *recordingDelivery) Send(_ context.Context, sessionID, eventType string, data interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, delivered{sessionID, eventType, data})
	return nil
}

func (d *recordingDelivery) Sent() []delivered {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivered(nil), d.sent...)
}

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

func sampleRecord() record.Record {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return record.Record{
		SessionID:   "abc",
		CreatedAt:   created,
		CompletedAt: created.Add(5 * time.Minute),
		Fields:      field.Values{U1: "Stanford", C1: "Computer Science", U2: "MIT", C2: "Mathematics"},
	}
}

func TestCompletionFlowsToRelayAndDelivery(t *testing.T) {
	ps := newPubSub(t)
	relay := &recordingRelay{}
	delivery := &recordingDelivery{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(ps, testTopic, relay, delivery, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(ps, testTopic)
	require.NoError(t, publisher.NotifyCompleted(ctx, sampleRecord()))

	require.Eventually(t, func() bool { return len(delivery.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, relay.Len())

	got := delivery.Sent()[0]
	assert.Equal(t, "abc", got.sessionID)
	assert.Equal(t, events.IntakeCompleted, got.eventType)
	payload, ok := got.data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2026-03-01T10:05:00Z", payload["completed_at"])
}

func TestRelayFailureStillDelivers(t *testing.T) {
	ps := newPubSub(t)
	relay := &recordingRelay{err: errors.New("nats down")}
	delivery := &recordingDelivery{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewConsumerService(ps, testTopic, relay, delivery, logger.NewNop()).Consume(ctx))
	require.NoError(t, NewPublisherService(ps, testTopic).NotifyCompleted(ctx, sampleRecord()))

	require.Eventually(t, func() bool { return len(delivery.Sent()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestMalformedPayloadIsAcked(t *testing.T) {
	ps := newPubSub(t)
	delivery := &recordingDelivery{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewConsumerService(ps, testTopic, nil, delivery, logger.NewNop()).Consume(ctx))

	publisher := NewPublisherService(ps, testTopic)
	require.NoError(t, publisher.Publish(ctx, []byte("not json")))
	require.NoError(t, publisher.NotifyCompleted(ctx, sampleRecord()))

	require.Eventually(t, func() bool { return len(delivery.Sent()) == 1 }, time.Second, 10*time.Millisecond)
}
