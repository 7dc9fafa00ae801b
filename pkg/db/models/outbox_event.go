package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published to Pub/Sub by the outbox publisher process.
type OutboxEvent struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	EventType   string             `gorm:"size:64;not null;index" json:"event_type"`
	AggregateID uuid.UUID          `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	Payload     []byte             `gorm:"type:jsonb;not null" json:"payload"`
	Status      enums.OutboxStatus `gorm:"size:16;not null;index" json:"status"`
	Attempts    int                `gorm:"not null;default:0" json:"attempts"`
	LastError   string             `gorm:"size:500" json:"last_error,omitempty"`

	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
