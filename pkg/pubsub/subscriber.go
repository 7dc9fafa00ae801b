package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

// Handler processes one message. Returning an error nacks the message
// so Pub/Sub redelivers it.
type Handler func(ctx context.Context, data []byte, attributes map[string]string) error

type Subscriber struct {
	client *pubsub.Client
	sub    *pubsub.Subscriber
}

func NewSubscriber(ctx context.Context, cfg config.PubSubConfig) (*Subscriber, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		client: client,
		sub:    client.Subscriber(cfg.NotificationSubID),
	}, nil
}

// Receive blocks until ctx is cancelled, invoking handler per message.
func (s *Subscriber) Receive(ctx context.Context, handler Handler) error {
	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := handler(ctx, msg.Data, msg.Attributes); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}
