package models

import "github.com/google/uuid"

type Address struct {
	Base

	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Label     string    `gorm:"size:40" json:"label"`
	Line1     string    `gorm:"size:255;not null" json:"line1"`
	Line2     string    `gorm:"size:255" json:"line2"`
	City      string    `gorm:"size:80;not null" json:"city"`
	State     string    `gorm:"size:80" json:"state"`
	Pincode   string    `gorm:"size:12;not null" json:"pincode"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
}

func (Address) TableName() string { return "addresses" }
