package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Order is the customer-facing order document. Delivery progress lives
// on the delivery request; once one exists its status is authoritative
// for presentation.
type Order struct {
	Base

	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	VendorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_id"`

	Status        enums.OrderStatus   `gorm:"size:32;not null;index" json:"status"`
	PaymentMethod enums.PaymentMethod `gorm:"size:16;not null" json:"payment_method"`
	PaymentStatus enums.PaymentStatus `gorm:"size:16;not null" json:"payment_status"`
	PaymentRef    string              `gorm:"size:128" json:"payment_ref,omitempty"`

	Subtotal       types.Money `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount types.Money `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	DeliveryFee    types.Money `gorm:"type:numeric(12,2);not null" json:"delivery_fee"`
	Total          types.Money `gorm:"type:numeric(12,2);not null" json:"total"`

	CouponCode *string `gorm:"size:40" json:"coupon_code,omitempty"`

	// Delivery destination snapshot, frozen at checkout.
	DeliveryLine1   string   `gorm:"size:255;not null" json:"delivery_line1"`
	DeliveryLine2   string   `gorm:"size:255" json:"delivery_line2"`
	DeliveryCity    string   `gorm:"size:80;not null" json:"delivery_city"`
	DeliveryPincode string   `gorm:"size:12;not null" json:"delivery_pincode"`
	DeliveryLat     *float64 `json:"delivery_lat,omitempty"`
	DeliveryLng     *float64 `json:"delivery_lng,omitempty"`

	// Alternate recipient, when the order is placed for someone else.
	RecipientName  string `gorm:"size:120" json:"recipient_name,omitempty"`
	RecipientPhone string `gorm:"size:20" json:"recipient_phone,omitempty"`

	Instructions string     `gorm:"size:500" json:"instructions,omitempty"`
	PlacedAt     time.Time  `gorm:"not null" json:"placed_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	DeliveryRequest *DeliveryRequest `gorm:"foreignKey:OrderID" json:"delivery_request,omitempty"`
}

func (Order) TableName() string { return "orders" }
