package enums

// CouponKind distinguishes percentage coupons from flat-amount coupons.
type CouponKind string

const (
	CouponKindPercent CouponKind = "percent"
	CouponKindFlat    CouponKind = "flat"
)

func (k CouponKind) IsValid() bool {
	return k == CouponKindPercent || k == CouponKindFlat
}

func (k CouponKind) String() string { return string(k) }

func ParseCouponKind(value string) (CouponKind, bool) {
	kind := CouponKind(value)
	return kind, kind.IsValid()
}
