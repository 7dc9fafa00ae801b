package models

import (
	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/types"
)

type Product struct {
	Base

	VendorID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Category    string      `gorm:"size:80;index" json:"category"`
	ImageURL    string      `gorm:"size:512" json:"image_url"`
	Price       types.Money `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int         `gorm:"not null;default:0" json:"stock"`
	Available   bool        `gorm:"not null;default:true" json:"available"`
}

func (Product) TableName() string { return "products" }
