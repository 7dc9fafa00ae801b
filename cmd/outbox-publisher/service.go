package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
)

const publishTimeout = 15 * time.Second

// publisher is the slice of pkg/pubsub.Publisher the service needs;
// tests substitute a fake.
type publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// Service drains outbox_events to Pub/Sub. Events survive process
// crashes: anything not marked published is retried on the next poll,
// up to the attempt cap.
type Service struct {
	client  *db.Client
	pub     publisher
	cfg     config.OutboxConfig
	metrics *metrics.Registry
	logg    *logger.Logger
}

func NewService(client *db.Client, pub publisher, cfg config.OutboxConfig, reg *metrics.Registry, logg *logger.Logger) *Service {
	return &Service{client: client, pub: pub, cfg: cfg, metrics: reg, logg: logg}
}

// Run polls until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Drain(ctx); err != nil {
				s.logg.Error(ctx, "outbox drain failed", err)
			}
		}
	}
}

// Drain publishes one batch of pending events.
func (s *Service) Drain(ctx context.Context) error {
	events, err := s.fetchBatch(ctx)
	if err != nil {
		return err
	}

	for _, event := range events {
		s.publishOne(ctx, event)
	}

	if s.metrics != nil {
		var pending int64
		if err := s.client.Gorm().WithContext(ctx).
			Model(&models.OutboxEvent{}).
			Where("status = ?", enums.OutboxStatusPending).
			Count(&pending).Error; err == nil {
			s.metrics.OutboxLag.Set(float64(pending))
		}
	}
	return nil
}

func (s *Service) fetchBatch(ctx context.Context) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := s.client.Gorm().WithContext(ctx).
		Where("status = ? AND attempts < ?", enums.OutboxStatusPending, s.cfg.MaxAttempts).
		Order("created_at ASC").
		Limit(s.cfg.BatchSize).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Service) publishOne(ctx context.Context, event models.OutboxEvent) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err := s.pub.Publish(pubCtx, event.Payload, map[string]string{
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID.String(),
	})
	if err != nil {
		s.markFailed(ctx, event, err)
		return
	}
	s.markPublished(ctx, event.ID)
}

func (s *Service) markPublished(ctx context.Context, id uuid.UUID) {
	now := time.Now().UTC()
	err := s.client.Gorm().WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.OutboxStatusPublished,
			"published_at": now,
		}).Error
	if err != nil {
		// The event will be republished next poll; the consumer must
		// tolerate duplicates.
		s.logg.Error(ctx, "mark outbox event published", err)
		return
	}
	if s.metrics != nil {
		s.metrics.OutboxPublished.Inc()
	}
}

func (s *Service) markFailed(ctx context.Context, event models.OutboxEvent, cause error) {
	if s.metrics != nil {
		s.metrics.OutboxFailures.Inc()
	}

	attempts := event.Attempts + 1
	status := enums.OutboxStatusPending
	if attempts >= s.cfg.MaxAttempts {
		status = enums.OutboxStatusFailed
		s.logg.Error(ctx, "outbox event exhausted attempts", cause)
	}

	err := s.client.Gorm().WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"attempts":   attempts,
			"status":     status,
			"last_error": truncateError(cause),
		}).Error
	if err != nil {
		s.logg.Error(ctx, "mark outbox event failed", err)
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 500 {
		return msg[:500]
	}
	return msg
}
