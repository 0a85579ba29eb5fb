package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/pkg/events"
	"ppm-intake-be/pkg/intake/record"
)

const consumerModule = "ConsumerService"

// SessionDelivery pushes an event to the live connections of one session.
// Implemented by the websocket hub.
type SessionDelivery interface {
	Send(ctx context.Context, sessionID string, eventType string, data interface{}) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      events.Publisher
	delivery   SessionDelivery
	logger     logger.ILogger
}

// NewConsumerService handles completion records. relay and delivery are optional.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay events.Publisher,
	delivery SessionDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		delivery:   delivery,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Relay and delivery are best effort, a failed
// push is logged and never redelivered.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var rec record.Record
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		cs.logger.Error(consumerModule, "failed to decode completion record", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	event := events.NewIntakeCompletedEvent(rec)

	if cs.relay != nil {
		if err := cs.relay.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "failed to relay completion event", map[string]interface{}{
				"session_id": rec.SessionID,
				"error":      err.Error(),
			})
		}
	}

	if cs.delivery != nil {
		if err := cs.delivery.Send(ctx, rec.SessionID, event.EventType(), event.Payload()); err != nil {
			cs.logger.Warn(consumerModule, "failed to push completion event", map[string]interface{}{
				"session_id": rec.SessionID,
				"error":      err.Error(),
			})
		}
	}

	cs.logger.Info(consumerModule, "completion event handled", map[string]interface{}{
		"session_id": rec.SessionID,
	})
}
