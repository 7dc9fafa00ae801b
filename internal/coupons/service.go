package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Service validates and redeems coupons. Redemption happens inside the
// checkout transaction through a conditional update, so the usage limit
// holds even when two checkouts race on the last slot.
type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Validation is the outcome of checking a coupon against a subtotal.
type Validation struct {
	Coupon   *models.Coupon
	Discount types.Money
}

// Validate checks the coupon in a fixed order: existence and active
// flag, validity window, usage limit, then minimum order value. The
// first failing check decides the error message.
func (s *Service) Validate(ctx context.Context, code string, vendorID uuid.UUID, subtotal types.Money) (*Validation, error) {
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeValidation, "coupon does not exist")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load coupon")
	}
	if !coupon.Active {
		return nil, errors.New(errors.CodeValidation, "coupon is inactive")
	}
	if coupon.VendorID != nil && *coupon.VendorID != vendorID.String() {
		return nil, errors.New(errors.CodeValidation, "coupon not valid for this store")
	}

	now := s.now()
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, errors.New(errors.CodeValidation, "coupon is outside its validity window")
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, errors.New(errors.CodeValidation, "coupon usage limit reached")
	}

	if subtotal.LessThan(coupon.MinOrderValue) {
		return nil, errors.New(errors.CodeValidation, "order value below coupon minimum").
			WithDetails(map[string]string{
				"min_order_value": coupon.MinOrderValue.Decimal.StringFixed(2),
			})
	}

	discount := s.discountFor(coupon, subtotal)
	return &Validation{Coupon: coupon, Discount: discount}, nil
}

func (s *Service) discountFor(coupon *models.Coupon, subtotal types.Money) types.Money {
	var discount types.Money
	switch coupon.Kind {
	case enums.CouponKindPercent:
		discount = subtotal.Percent(coupon.Percent)
		if !coupon.MaxDiscount.IsZero() && coupon.MaxDiscount.LessThan(discount) {
			discount = coupon.MaxDiscount
		}
	case enums.CouponKindFlat:
		discount = coupon.Amount
	}

	// Never discount past the subtotal.
	if subtotal.LessThan(discount) {
		discount = subtotal
	}
	return discount.RoundPaise()
}

// Redeem claims one usage slot inside tx. The conditional update is the
// concurrency guard; a zero row count means someone else took the last
// slot after validation.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	affected, err := s.repo.WithTx(tx).IncrementUsage(ctx, couponID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "redeem coupon")
	}
	if affected == 0 {
		return errors.New(errors.CodeConflict, "coupon usage limit reached")
	}
	return nil
}

// ReleaseUsage returns a slot after an order that redeemed the coupon
// is cancelled.
func (s *Service) ReleaseUsage(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	if err := s.repo.WithTx(tx).DecrementUsage(ctx, couponID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "release coupon usage")
	}
	return nil
}

// ReleaseUsageByCode resolves the coupon an order redeemed and returns
// its slot. A coupon that has since been deleted is a no-op; the
// cancellation must not fail over it.
func (s *Service) ReleaseUsageByCode(ctx context.Context, tx *gorm.DB, code string) error {
	coupon, err := s.repo.WithTx(tx).GetByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(errors.CodeInternal, err, "load coupon")
	}
	return s.ReleaseUsage(ctx, tx, coupon.ID)
}

type AdminInput struct {
	Code          string
	Kind          enums.CouponKind
	VendorID      *uuid.UUID
	Percent       decimal.Decimal
	Amount        types.Money
	MinOrderValue types.Money
	MaxDiscount   types.Money
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    int
	Active        bool
}

func (s *Service) Create(ctx context.Context, in AdminInput) (*models.Coupon, error) {
	if !in.Kind.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown coupon kind")
	}
	if !in.ValidUntil.After(in.ValidFrom) {
		return nil, errors.New(errors.CodeValidation, "validity window is empty")
	}

	coupon := &models.Coupon{
		Code:          in.Code,
		Kind:          in.Kind,
		Percent:       in.Percent,
		Amount:        in.Amount,
		MinOrderValue: in.MinOrderValue,
		MaxDiscount:   in.MaxDiscount,
		ValidFrom:     in.ValidFrom,
		ValidUntil:    in.ValidUntil,
		UsageLimit:    in.UsageLimit,
		Active:        in.Active,
	}
	if in.VendorID != nil {
		id := in.VendorID.String()
		coupon.VendorID = &id
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "coupon code already exists")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "create coupon")
	}
	return coupon, nil
}

func (s *Service) List(ctx context.Context, vendorID *uuid.UUID) ([]models.Coupon, error) {
	out, err := s.repo.List(ctx, vendorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list coupons")
	}
	return out, nil
}

func (s *Service) SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error) {
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "coupon not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load coupon")
	}
	coupon.Active = active
	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update coupon")
	}
	return coupon, nil
}
