package models

import (
	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/types"
)

// OrderItem snapshots name and unit price so later catalog edits never
// change what the customer was charged.
type OrderItem struct {
	Base

	OrderID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID   `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string      `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   types.Money `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int         `gorm:"not null" json:"quantity"`
	LineTotal   types.Money `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

func (OrderItem) TableName() string { return "order_items" }
