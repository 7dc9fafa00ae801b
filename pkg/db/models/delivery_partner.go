package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
)

type DeliveryPartner struct {
	Base

	UserID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	VehicleType enums.VehicleType `gorm:"size:20;not null" json:"vehicle_type"`
	VehicleRegn string            `gorm:"size:20" json:"vehicle_regn"`
	OnDuty      bool              `gorm:"not null;default:false;index" json:"on_duty"`
	Approved    bool              `gorm:"not null;default:false" json:"approved"`

	// Last reported device position, refreshed as the partner moves.
	LastLatitude      *float64   `json:"last_latitude,omitempty"`
	LastLongitude     *float64   `json:"last_longitude,omitempty"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DeliveryPartner) TableName() string { return "delivery_partners" }
