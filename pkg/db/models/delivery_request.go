package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
)

// DeliveryRequest is the assignment workflow record for one order.
// The unique index on order_id guarantees at most one per order.
type DeliveryRequest struct {
	Base

	OrderID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_request_order" json:"order_id"`
	VendorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	PartnerID *uuid.UUID `gorm:"type:uuid;index" json:"partner_id,omitempty"`

	Status enums.DeliveryStatus `gorm:"size:32;not null;index" json:"status"`

	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt       *time.Time `json:"picked_up_at,omitempty"`
	OutForDeliveryAt *time.Time `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`

	Order   *Order           `gorm:"foreignKey:OrderID;references:ID" json:"order,omitempty"`
	Vendor  *Vendor          `gorm:"foreignKey:VendorID;references:ID" json:"vendor,omitempty"`
	Partner *DeliveryPartner `gorm:"foreignKey:PartnerID;references:ID" json:"partner,omitempty"`
}

func (DeliveryRequest) TableName() string { return "delivery_requests" }
