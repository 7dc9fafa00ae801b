package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkart/zapkart-backend/internal/address"
	"github.com/zapkart/zapkart-backend/internal/cart"
	"github.com/zapkart/zapkart-backend/internal/coupons"
	"github.com/zapkart/zapkart-backend/internal/delivery"
	"github.com/zapkart/zapkart-backend/internal/orders"
	"github.com/zapkart/zapkart-backend/internal/products"
	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/gateway"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type fakeGateway struct {
	inner       *gateway.Client
	initiateErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{inner: gateway.New(config.GatewayConfig{
		BaseURL:       "http://unused",
		SigningSecret: "test-secret",
		Timeout:       time.Second,
	})}
}

func (f *fakeGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return &gateway.InitiateResponse{
		PaymentID:   "pay_" + req.OrderRef[:8],
		RedirectURL: "https://gateway.example.com/pay/" + req.OrderRef,
	}, nil
}

func (f *fakeGateway) VerifyConfirmation(raw []byte, signature string) (*gateway.Confirmation, error) {
	return f.inner.VerifyConfirmation(raw, signature)
}

func (f *fakeGateway) sign(raw []byte) string {
	return f.inner.Sign(raw)
}

type fixture struct {
	client   *db.Client
	svc      *Service
	gw       *fakeGateway
	customer *models.User
	vendor   *models.Vendor
	addr     *models.Address
	milk     *models.Product
	bread    *models.Product
}

func money(t *testing.T, s string) types.Money {
	t.Helper()
	m, err := types.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func setup(t *testing.T) *fixture {
	t.Helper()
	client := testutil.OpenDB(t)
	gdb := client.Gorm()

	customer := &models.User{Email: "c@example.com", PasswordHash: "x", FullName: "Customer", Role: enums.UserRoleCustomer, Active: true}
	vendorUser := &models.User{Email: "v@example.com", PasswordHash: "x", FullName: "Vendor", Role: enums.UserRoleVendor, Active: true}
	require.NoError(t, gdb.Create(customer).Error)
	require.NoError(t, gdb.Create(vendorUser).Error)

	vendor := &models.Vendor{UserID: vendorUser.ID, StoreName: "Fresh Mart", Approved: true, Open: true}
	require.NoError(t, gdb.Create(vendor).Error)

	addr := &models.Address{UserID: customer.ID, Line1: "12 MG Road", City: "Bengaluru", Pincode: "560001"}
	require.NoError(t, gdb.Create(addr).Error)

	milk := &models.Product{VendorID: vendor.ID, Name: "Milk 1L", Price: money(t, "100.00"), Stock: 10, Available: true}
	bread := &models.Product{VendorID: vendor.ID, Name: "Bread", Price: money(t, "50.00"), Stock: 5, Available: true}
	require.NoError(t, gdb.Create(milk).Error)
	require.NoError(t, gdb.Create(bread).Error)

	gw := newFakeGateway()
	logg := logger.New(logger.Options{ServiceName: "test"})

	svc := NewService(
		cart.NewRepo(client),
		products.NewRepo(client),
		coupons.NewService(coupons.NewRepo(client)),
		orders.NewRepo(client),
		delivery.NewRepo(client),
		address.NewRepo(client),
		client,
		gw,
		metrics.New(),
		logg,
	)

	return &fixture{
		client: client, svc: svc, gw: gw,
		customer: customer, vendor: vendor, addr: addr,
		milk: milk, bread: bread,
	}
}

func (f *fixture) fillCart(t *testing.T, quantities map[uuid.UUID]int) {
	t.Helper()
	for productID, qty := range quantities {
		item := &models.CartItem{UserID: f.customer.ID, ProductID: productID, Quantity: qty}
		require.NoError(t, f.client.Gorm().Create(item).Error)
	}
}

func (f *fixture) seedCoupon(t *testing.T, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	require.NoError(t, f.client.Gorm().Create(coupon).Error)
	return coupon
}

func TestCheckoutCODWithPercentCoupon(t *testing.T) {
	f := setup(t)
	// 4x100 + 2x50 = 500.00
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 4, f.bread.ID: 2})
	f.seedCoupon(t, &models.Coupon{
		Code: "SAVE10", Kind: enums.CouponKindPercent, Percent: decimal.NewFromInt(10),
		ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), Active: true,
	})

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    "SAVE10",
	})
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, "500.00", order.Subtotal.Decimal.StringFixed(2))
	assert.Equal(t, "50.00", order.DiscountAmount.Decimal.StringFixed(2))
	assert.Equal(t, "450.00", order.Total.Decimal.StringFixed(2))
	assert.Equal(t, enums.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Empty(t, result.RedirectURL)

	// Cart cleared.
	var remaining int64
	require.NoError(t, f.client.Gorm().Model(&models.CartItem{}).Where("user_id = ?", f.customer.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	// Stock reserved.
	var milk models.Product
	require.NoError(t, f.client.Gorm().First(&milk, "id = ?", f.milk.ID).Error)
	assert.Equal(t, 6, milk.Stock)

	// Exactly one pending delivery request.
	var request models.DeliveryRequest
	require.NoError(t, f.client.Gorm().First(&request, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.DeliveryStatusPending, request.Status)

	// Items snapshot prices.
	var items []models.OrderItem
	require.NoError(t, f.client.Gorm().Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 2)

	// Outbox carries the placement event.
	var events []models.OutboxEvent
	require.NoError(t, f.client.Gorm().Where("event_type = ?", "order.placed").Find(&events).Error)
	require.Len(t, events, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "order.placed", payload["type"])
}

func TestCheckoutRejectsCouponBelowMinimum(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 5}) // 500.00
	f.seedCoupon(t, &models.Coupon{
		Code: "FLAT100", Kind: enums.CouponKindFlat, Amount: money(t, "100.00"),
		MinOrderValue: money(t, "600.00"),
		ValidFrom:     time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour), Active: true,
	})

	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    "FLAT100",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())

	// Nothing was created.
	var count int64
	require.NoError(t, f.client.Gorm().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.bread.ID: 4})
	coupon := f.seedCoupon(t, &models.Coupon{
		Code: "SAVE10", Kind: enums.CouponKindPercent, Percent: decimal.NewFromInt(10),
		ValidFrom: time.Now().Add(-time.Hour), ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 5, Active: true,
	})

	// Someone buys out the bread between cart and checkout.
	require.NoError(t, f.client.Gorm().Model(&models.Product{}).
		Where("id = ?", f.bread.ID).Update("stock", 1).Error)

	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    "SAVE10",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())

	// Coupon slot returned by the rollback.
	var reloaded models.Coupon
	require.NoError(t, f.client.Gorm().First(&reloaded, "id = ?", coupon.ID).Error)
	assert.Zero(t, reloaded.UsedCount)

	// Cart untouched.
	var remaining int64
	require.NoError(t, f.client.Gorm().Model(&models.CartItem{}).Where("user_id = ?", f.customer.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestCheckoutToDropLocation(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 2})

	lat, lng := 12.9141, 74.8560
	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		PaymentMethod:  enums.PaymentMethodCOD,
		DropLine1:      "4 Beach Road",
		DropCity:       "Mangaluru",
		DropPincode:    "575001",
		DropLat:        &lat,
		DropLng:        &lng,
		RecipientName:  "Asha",
		RecipientPhone: "+919812345678",
	})
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, "4 Beach Road", order.DeliveryLine1)
	assert.Equal(t, "Mangaluru", order.DeliveryCity)
	assert.Equal(t, "575001", order.DeliveryPincode)
	require.NotNil(t, order.DeliveryLat)
	assert.Equal(t, lat, *order.DeliveryLat)
	require.NotNil(t, order.DeliveryLng)
	assert.Equal(t, lng, *order.DeliveryLng)
	assert.Equal(t, "Asha", order.RecipientName)
}

func TestCheckoutRejectsIncompleteDropLocation(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 1})

	// City, pincode and coordinates missing.
	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		PaymentMethod: enums.PaymentMethodCOD,
		DropLine1:     "4 Beach Road",
	})
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "incomplete")

	// Nothing was created.
	var count int64
	require.NoError(t, f.client.Gorm().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutRequiresSomeDestination(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 1})

	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "destination required")
}

func TestCheckoutRejectsAddressAndDropTogether(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 1})

	lat, lng := 12.9141, 74.8560
	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		DropLine1:     "4 Beach Road",
		DropCity:      "Mangaluru",
		DropPincode:   "575001",
		DropLat:       &lat,
		DropLng:       &lng,
	})
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "not both")
}

func TestDeliveryRequestUniquePerOrder(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 1})

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	// A second request for the same order trips the unique constraint
	// that backs the one-delivery-per-order guarantee.
	dup := &models.DeliveryRequest{
		OrderID:  result.Order.ID,
		VendorID: f.vendor.ID,
		Status:   enums.DeliveryStatusPending,
	}
	err = f.client.Gorm().Create(dup).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	var count int64
	require.NoError(t, f.client.Gorm().Model(&models.DeliveryRequest{}).
		Where("order_id = ?", result.Order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "cart is empty")
}

func TestCheckoutOnlineReturnsRedirect(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 2})

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodOnline,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RedirectURL)

	var reloaded models.Order
	require.NoError(t, f.client.Gorm().First(&reloaded, "id = ?", result.Order.ID).Error)
	assert.NotEmpty(t, reloaded.PaymentRef)
}

func TestCheckoutSurvivesGatewayOutage(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 1})
	f.gw.initiateErr = fmt.Errorf("gateway down")

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodOnline,
	})
	require.NoError(t, err)
	assert.Empty(t, result.RedirectURL)
	assert.NotNil(t, result.Order)
}

func TestConfirmPaymentVerifiesSignature(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 2})

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodOnline,
	})
	require.NoError(t, err)

	conf := gateway.Confirmation{
		PaymentID:   "pay_done",
		OrderRef:    result.Order.ID.String(),
		AmountPaise: 20000,
		Status:      "succeeded",
		Timestamp:   time.Now().Unix(),
	}
	raw, _ := json.Marshal(conf)

	// Tampered signature is rejected and nothing changes.
	_, err = f.svc.ConfirmPayment(context.Background(), raw, "bogus")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())

	// Genuine signature marks the order paid.
	order, err := f.svc.ConfirmPayment(context.Background(), raw, f.gw.sign(raw))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "pay_done", order.PaymentRef)

	// Replay is a no-op, not an error.
	again, err := f.svc.ConfirmPayment(context.Background(), raw, f.gw.sign(raw))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, again.PaymentStatus)
}

func TestConfirmPaymentAmountMismatch(t *testing.T) {
	f := setup(t)
	f.fillCart(t, map[uuid.UUID]int{f.milk.ID: 2})

	result, err := f.svc.Checkout(context.Background(), f.customer.ID, Input{
		AddressID:     f.addr.ID,
		PaymentMethod: enums.PaymentMethodOnline,
	})
	require.NoError(t, err)

	conf := gateway.Confirmation{
		PaymentID:   "pay_short",
		OrderRef:    result.Order.ID.String(),
		AmountPaise: 100,
		Status:      "succeeded",
		Timestamp:   time.Now().Unix(),
	}
	raw, _ := json.Marshal(conf)

	_, err = f.svc.ConfirmPayment(context.Background(), raw, f.gw.sign(raw))
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "amount mismatch")
}
