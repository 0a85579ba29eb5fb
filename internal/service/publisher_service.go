package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"ppm-intake-be/pkg/intake/record"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	record.Notifier
}

type publisherService struct {
	publisher message.Publisher
	topicName string
}

func NewPublisherService(publisher message.Publisher, topicName string) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topicName: topicName,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}

// NotifyCompleted queues the final record for the completion consumer
func (p *publisherService) NotifyCompleted(ctx context.Context, rec record.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode completion record: %w", err)
	}
	return p.Publish(ctx, payload)
}
