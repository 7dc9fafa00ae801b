package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

// Publisher wraps the Pub/Sub topic publisher. When an emulator host is
// configured it connects insecurely, which is how tests and local dev run.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

func NewPublisher(ctx context.Context, cfg config.PubSubConfig) (*Publisher, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicID),
	}, nil
}

func newClient(ctx context.Context, cfg config.PubSubConfig) (*pubsub.Client, error) {
	if cfg.EmulatorHost != "" {
		conn, err := grpc.NewClient(cfg.EmulatorHost, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial pubsub emulator: %w", err)
		}
		client, err := pubsub.NewClient(ctx, cfg.ProjectID, option.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("pubsub emulator client: %w", err)
		}
		return client, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return client, nil
}

// Publish sends one message and blocks for the server ack.
func (p *Publisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return id, nil
}

func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
