package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
)

type fakePublisher struct {
	published [][]byte
	attrs     []map[string]string
	fail      bool
}

func (f *fakePublisher) Publish(_ context.Context, data []byte, attributes map[string]string) (string, error) {
	if f.fail {
		return "", errors.New("pubsub unavailable")
	}
	f.published = append(f.published, data)
	f.attrs = append(f.attrs, attributes)
	return "msg-1", nil
}

func newPublisherService(t *testing.T, pub publisher) (*Service, *db.Client) {
	t.Helper()
	client := testutil.OpenDB(t)
	cfg := config.OutboxConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		MaxAttempts:  3,
	}
	logg := logger.New(logger.Options{ServiceName: "test"})
	return NewService(client, pub, cfg, metrics.New(), logg), client
}

func seedEvent(t *testing.T, client *db.Client, eventType string) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"type":"` + eventType + `"}`),
		Status:      enums.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, client.Gorm().Create(&event).Error)
	return event
}

func TestDrainPublishesAndMarks(t *testing.T) {
	pub := &fakePublisher{}
	svc, client := newPublisherService(t, pub)

	seedEvent(t, client, "order.placed")
	seedEvent(t, client, "delivery.assigned")

	require.NoError(t, svc.Drain(context.Background()))
	require.Len(t, pub.published, 2)
	assert.Equal(t, "order.placed", pub.attrs[0]["event_type"])

	var remaining int64
	require.NoError(t, client.Gorm().Model(&models.OutboxEvent{}).
		Where("status = ?", enums.OutboxStatusPending).Count(&remaining).Error)
	assert.Zero(t, remaining)

	var published models.OutboxEvent
	require.NoError(t, client.Gorm().First(&published, "event_type = ?", "order.placed").Error)
	assert.Equal(t, enums.OutboxStatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
}

func TestDrainRetriesUntilAttemptCap(t *testing.T) {
	pub := &fakePublisher{fail: true}
	svc, client := newPublisherService(t, pub)

	event := seedEvent(t, client, "order.placed")

	// MaxAttempts is 3; the third failure parks the event.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Drain(context.Background()))
	}

	var got models.OutboxEvent
	require.NoError(t, client.Gorm().First(&got, "id = ?", event.ID).Error)
	assert.Equal(t, enums.OutboxStatusFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	assert.Contains(t, got.LastError, "pubsub unavailable")

	// Parked events are not retried.
	require.NoError(t, svc.Drain(context.Background()))
	require.NoError(t, client.Gorm().First(&got, "id = ?", event.ID).Error)
	assert.Equal(t, 3, got.Attempts)
}

func TestDrainRecoversAfterOutage(t *testing.T) {
	pub := &fakePublisher{fail: true}
	svc, client := newPublisherService(t, pub)

	event := seedEvent(t, client, "payment.confirmed")
	require.NoError(t, svc.Drain(context.Background()))

	pub.fail = false
	require.NoError(t, svc.Drain(context.Background()))

	var got models.OutboxEvent
	require.NoError(t, client.Gorm().First(&got, "id = ?", event.ID).Error)
	assert.Equal(t, enums.OutboxStatusPublished, got.Status)
	require.Len(t, pub.published, 1)
}
