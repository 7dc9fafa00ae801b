package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Notification is a persisted per-user feed entry. Retention is capped
// per recipient; the oldest read rows are pruned on insert.
type Notification struct {
	Base

	RecipientID uuid.UUID              `gorm:"type:uuid;not null;index:idx_notifications_recipient" json:"recipient_id"`
	Type        enums.NotificationType `gorm:"size:48;not null" json:"type"`
	Title       string                 `gorm:"size:160;not null" json:"title"`
	Body        string                 `gorm:"size:500" json:"body"`
	Data        types.JSONB            `gorm:"type:jsonb" json:"data,omitempty"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
