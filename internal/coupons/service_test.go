package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

func money(t *testing.T, s string) types.Money {
	t.Helper()
	m, err := types.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func seedCoupon(t *testing.T, client *db.Client, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	require.NoError(t, client.Gorm().Create(coupon).Error)
	return coupon
}

func percentCoupon(t *testing.T, client *db.Client, code string, pct int64) *models.Coupon {
	t.Helper()
	return seedCoupon(t, client, &models.Coupon{
		Code:       code,
		Kind:       enums.CouponKindPercent,
		Percent:    decimal.NewFromInt(pct),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 0,
		Active:     true,
	})
}

func TestValidatePercentCoupon(t *testing.T) {
	client := testutil.OpenDB(t)
	percentCoupon(t, client, "SAVE10", 10)
	svc := NewService(NewRepo(client))

	v, err := svc.Validate(context.Background(), "SAVE10", uuid.New(), money(t, "500.00"))
	require.NoError(t, err)
	assert.Equal(t, "50.00", v.Discount.Decimal.StringFixed(2))
}

func TestValidateFlatCouponBelowMinimum(t *testing.T) {
	client := testutil.OpenDB(t)
	seedCoupon(t, client, &models.Coupon{
		Code:          "FLAT100",
		Kind:          enums.CouponKindFlat,
		Amount:        money(t, "100.00"),
		MinOrderValue: money(t, "600.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		Active:        true,
	})
	svc := NewService(NewRepo(client))

	_, err := svc.Validate(context.Background(), "FLAT100", uuid.New(), money(t, "500.00"))
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "below coupon minimum")
}

func TestValidateChecksInFixedOrder(t *testing.T) {
	client := testutil.OpenDB(t)
	svc := NewService(NewRepo(client))
	ctx := context.Background()
	vendorID := uuid.New()

	// Unknown code fails first.
	_, err := svc.Validate(ctx, "NOPE", vendorID, money(t, "500.00"))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "does not exist")

	// Inactive beats window and minimum.
	seedCoupon(t, client, &models.Coupon{
		Code:          "DISABLED",
		Kind:          enums.CouponKindFlat,
		Amount:        money(t, "50.00"),
		MinOrderValue: money(t, "9999.00"),
		ValidFrom:     time.Now().Add(time.Hour),
		ValidUntil:    time.Now().Add(2 * time.Hour),
		Active:        false,
	})
	_, err = svc.Validate(ctx, "DISABLED", vendorID, money(t, "100.00"))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "inactive")

	// Window beats usage and minimum.
	seedCoupon(t, client, &models.Coupon{
		Code:          "EXPIRED",
		Kind:          enums.CouponKindFlat,
		Amount:        money(t, "50.00"),
		MinOrderValue: money(t, "9999.00"),
		ValidFrom:     time.Now().Add(-2 * time.Hour),
		ValidUntil:    time.Now().Add(-time.Hour),
		UsageLimit:    1,
		UsedCount:     1,
		Active:        true,
	})
	_, err = svc.Validate(ctx, "EXPIRED", vendorID, money(t, "100.00"))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "validity window")

	// Usage beats minimum.
	seedCoupon(t, client, &models.Coupon{
		Code:          "USEDUP",
		Kind:          enums.CouponKindFlat,
		Amount:        money(t, "50.00"),
		MinOrderValue: money(t, "9999.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		UsageLimit:    5,
		UsedCount:     5,
		Active:        true,
	})
	_, err = svc.Validate(ctx, "USEDUP", vendorID, money(t, "100.00"))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "usage limit")
}

func TestValidatePercentCapsAtMaxDiscount(t *testing.T) {
	client := testutil.OpenDB(t)
	seedCoupon(t, client, &models.Coupon{
		Code:        "BIG50",
		Kind:        enums.CouponKindPercent,
		Percent:     decimal.NewFromInt(50),
		MaxDiscount: money(t, "75.00"),
		ValidFrom:   time.Now().Add(-time.Hour),
		ValidUntil:  time.Now().Add(time.Hour),
		Active:      true,
	})
	svc := NewService(NewRepo(client))

	v, err := svc.Validate(context.Background(), "BIG50", uuid.New(), money(t, "500.00"))
	require.NoError(t, err)
	assert.Equal(t, "75.00", v.Discount.Decimal.StringFixed(2))
}

func TestFlatDiscountNeverExceedsSubtotal(t *testing.T) {
	client := testutil.OpenDB(t)
	seedCoupon(t, client, &models.Coupon{
		Code:       "FLAT100",
		Kind:       enums.CouponKindFlat,
		Amount:     money(t, "100.00"),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Active:     true,
	})
	svc := NewService(NewRepo(client))

	v, err := svc.Validate(context.Background(), "FLAT100", uuid.New(), money(t, "60.00"))
	require.NoError(t, err)
	assert.Equal(t, "60.00", v.Discount.Decimal.StringFixed(2))
}

func TestVendorScopedCoupon(t *testing.T) {
	client := testutil.OpenDB(t)
	owner := uuid.New()
	ownerID := owner.String()
	seedCoupon(t, client, &models.Coupon{
		Code:       "STORE5",
		Kind:       enums.CouponKindPercent,
		Percent:    decimal.NewFromInt(5),
		VendorID:   &ownerID,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		Active:     true,
	})
	svc := NewService(NewRepo(client))
	ctx := context.Background()

	_, err := svc.Validate(ctx, "STORE5", owner, money(t, "200.00"))
	require.NoError(t, err)

	_, err = svc.Validate(ctx, "STORE5", uuid.New(), money(t, "200.00"))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "not valid for this store")
}

func TestRedeemStopsAtUsageLimit(t *testing.T) {
	client := testutil.OpenDB(t)
	coupon := seedCoupon(t, client, &models.Coupon{
		Code:       "LAST1",
		Kind:       enums.CouponKindFlat,
		Amount:     money(t, "10.00"),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 1,
		Active:     true,
	})
	svc := NewService(NewRepo(client))
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Redeem(ctx, tx, coupon.ID)
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Redeem(ctx, tx, coupon.ID)
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())

	var reloaded models.Coupon
	require.NoError(t, client.Gorm().First(&reloaded, "code = ?", "LAST1").Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestReleaseUsageReturnsSlot(t *testing.T) {
	client := testutil.OpenDB(t)
	coupon := seedCoupon(t, client, &models.Coupon{
		Code:       "REFUNDME",
		Kind:       enums.CouponKindFlat,
		Amount:     money(t, "10.00"),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 1,
		UsedCount:  1,
		Active:     true,
	})
	svc := NewService(NewRepo(client))
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.ReleaseUsage(ctx, tx, coupon.ID)
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Redeem(ctx, tx, coupon.ID)
	})
	require.NoError(t, err)
}
