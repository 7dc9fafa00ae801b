package models

import "github.com/google/uuid"

type Vendor struct {
	Base

	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	StoreName string    `gorm:"size:255;not null" json:"store_name"`
	Line1     string    `gorm:"size:255" json:"line1"`
	City      string    `gorm:"size:80" json:"city"`
	Pincode   string    `gorm:"size:12" json:"pincode"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Open      bool      `gorm:"not null;default:true" json:"open"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Vendor) TableName() string { return "vendors" }
