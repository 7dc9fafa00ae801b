package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Coupon is vendor-scoped when VendorID is set, platform-wide otherwise.
// UsedCount is only ever advanced with a conditional UPDATE so the
// usage limit holds under concurrent checkouts.
type Coupon struct {
	Base

	Code     string           `gorm:"size:40;uniqueIndex;not null" json:"code"`
	Kind     enums.CouponKind `gorm:"size:16;not null" json:"kind"`
	VendorID *string          `gorm:"type:uuid;index" json:"vendor_id,omitempty"`

	// Percent is the discount percentage for percent coupons; Amount is
	// the flat discount for flat coupons. Exactly one is meaningful.
	Percent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"percent"`
	Amount  types.Money     `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`

	MinOrderValue types.Money `gorm:"type:numeric(12,2);not null;default:0" json:"min_order_value"`
	MaxDiscount   types.Money `gorm:"type:numeric(12,2);not null;default:0" json:"max_discount"`

	ValidFrom  time.Time `gorm:"not null" json:"valid_from"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`

	UsageLimit int  `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount  int  `gorm:"not null;default:0" json:"used_count"`
	Active     bool `gorm:"not null;default:true" json:"active"`
}

func (Coupon) TableName() string { return "coupons" }
