package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingPoint is an append-only partner location sample for an active
// delivery. Writes are throttled server-side before reaching this table.
type TrackingPoint struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeliveryRequestID uuid.UUID `gorm:"type:uuid;not null;index:idx_tracking_request_time" json:"delivery_request_id"`
	PartnerID         uuid.UUID `gorm:"type:uuid;not null" json:"partner_id"`
	Latitude          float64   `gorm:"not null" json:"latitude"`
	Longitude         float64   `gorm:"not null" json:"longitude"`
	RecordedAt        time.Time `gorm:"not null;index:idx_tracking_request_time" json:"recorded_at"`
}

func (TrackingPoint) TableName() string { return "tracking_points" }
