package delivery

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkart/zapkart-backend/internal/orders"
	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type openThrottle struct{ blocked bool }

func (o *openThrottle) Try(context.Context, string) (bool, error) {
	return !o.blocked, nil
}

type fixture struct {
	client   *db.Client
	svc      *Service
	throttle *openThrottle

	customer *models.User
	vendor   *models.Vendor
	partner  *models.DeliveryPartner
	order    *models.Order
	request  *models.DeliveryRequest
}

func setup(t *testing.T, method enums.PaymentMethod) *fixture {
	t.Helper()
	client := testutil.OpenDB(t)
	gdb := client.Gorm()

	customer := &models.User{Email: "c@example.com", PasswordHash: "x", FullName: "Customer", Role: enums.UserRoleCustomer, Active: true}
	vendorUser := &models.User{Email: "v@example.com", PasswordHash: "x", FullName: "Vendor", Role: enums.UserRoleVendor, Active: true}
	partnerUser := &models.User{Email: "p@example.com", PasswordHash: "x", FullName: "Partner", Role: enums.UserRolePartner, Active: true}
	require.NoError(t, gdb.Create(customer).Error)
	require.NoError(t, gdb.Create(vendorUser).Error)
	require.NoError(t, gdb.Create(partnerUser).Error)

	vendor := &models.Vendor{UserID: vendorUser.ID, StoreName: "Fresh Mart", Approved: true, Open: true}
	require.NoError(t, gdb.Create(vendor).Error)

	partner := &models.DeliveryPartner{UserID: partnerUser.ID, VehicleType: enums.VehicleTypeScooter, OnDuty: true, Approved: true}
	require.NoError(t, gdb.Create(partner).Error)

	subtotal, err := types.MoneyFromString("450.00")
	require.NoError(t, err)
	lat, lng := 12.9716, 77.5946
	order := &models.Order{
		CustomerID:      customer.ID,
		VendorID:        vendor.ID,
		Status:          enums.OrderStatusPlaced,
		PaymentMethod:   method,
		PaymentStatus:   enums.PaymentStatusPending,
		Subtotal:        subtotal,
		DiscountAmount:  types.ZeroMoney(),
		DeliveryFee:     types.ZeroMoney(),
		Total:           subtotal,
		DeliveryLine1:   "12 MG Road",
		DeliveryCity:    "Bengaluru",
		DeliveryPincode: "560001",
		DeliveryLat:     &lat,
		DeliveryLng:     &lng,
	}
	require.NoError(t, gdb.Create(order).Error)
	if method == enums.PaymentMethodOnline {
		require.NoError(t, gdb.Model(order).Update("payment_status", enums.PaymentStatusPaid).Error)
		order.PaymentStatus = enums.PaymentStatusPaid
	}

	request := &models.DeliveryRequest{
		OrderID:  order.ID,
		VendorID: vendor.ID,
		Status:   enums.DeliveryStatusPending,
	}
	require.NoError(t, gdb.Create(request).Error)

	throttle := &openThrottle{}
	svc := NewService(
		NewRepo(client),
		orders.NewRepo(client),
		client,
		throttle,
		config.TrackingConfig{RetentionPerOrder: 3},
		metrics.New(),
		logger.New(logger.Options{ServiceName: "test"}),
	)

	return &fixture{
		client: client, svc: svc, throttle: throttle,
		customer: customer, vendor: vendor, partner: partner,
		order: order, request: request,
	}
}

func (f *fixture) assignAndAccept(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Assign(ctx, f.vendor.ID, f.request.ID, f.partner.ID)
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, f.partner.ID, f.request.ID, enums.PartnerDecisionAccepted, "")
	require.NoError(t, err)
}

func TestAssignAndAccept(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()

	request, err := f.svc.Assign(ctx, f.vendor.ID, f.request.ID, f.partner.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusAssigned, request.Status)
	require.NotNil(t, request.PartnerID)
	assert.Equal(t, f.partner.ID, *request.PartnerID)
	assert.NotNil(t, request.AssignedAt)

	request, err = f.svc.Respond(ctx, f.partner.ID, f.request.ID, enums.PartnerDecisionAccepted, "")
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusAccepted, request.Status)
	assert.NotNil(t, request.AcceptedAt)

	responses, err := f.svc.Responses(ctx, f.vendor.ID, f.request.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, enums.PartnerDecisionAccepted, responses[0].Decision)
}

func TestRejectReturnsToUnassignedPool(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, f.vendor.ID, f.request.ID, f.partner.ID)
	require.NoError(t, err)

	request, err := f.svc.Respond(ctx, f.partner.ID, f.request.ID, enums.PartnerDecisionRejected, "too far")
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusRejectedByPartner, request.Status)
	assert.Nil(t, request.PartnerID)

	pool, err := f.svc.Unassigned(ctx, f.vendor.ID)
	require.NoError(t, err)
	require.Len(t, pool, 1)

	// Vendor can re-offer to the same or another partner.
	request, err = f.svc.Assign(ctx, f.vendor.ID, f.request.ID, f.partner.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusAssigned, request.Status)
}

func TestAssignRequiresAvailablePartner(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()

	require.NoError(t, f.client.Gorm().Model(f.partner).Update("on_duty", false).Error)

	_, err := f.svc.Assign(ctx, f.vendor.ID, f.request.ID, f.partner.ID)
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "not available")
}

func TestFullOnlineDeliveryFlow(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)

	request, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusPickedUp, request.Status)

	request, err = f.svc.OutForDelivery(ctx, f.partner.ID, f.request.ID, 12.9700, 77.5900)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusOutForDelivery, request.Status)

	request, err = f.svc.Delivered(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, request.Status)
	assert.NotNil(t, request.DeliveredAt)

	var order models.Order
	require.NoError(t, f.client.Gorm().First(&order, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
}

func TestSkippingStepsIsRejected(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)

	// accepted -> out_for_delivery skips pickup.
	_, err := f.svc.OutForDelivery(ctx, f.partner.ID, f.request.ID, 12.9700, 77.5900)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateConflict, errors.As(err).Code())

	// accepted -> delivered skips everything.
	_, err = f.svc.Delivered(ctx, f.partner.ID, f.request.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateConflict, errors.As(err).Code())
}

func TestOtherPartnerCannotAct(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)

	stranger := &models.User{Email: "p2@example.com", PasswordHash: "x", FullName: "Other", Role: enums.UserRolePartner, Active: true}
	require.NoError(t, f.client.Gorm().Create(stranger).Error)
	other := &models.DeliveryPartner{UserID: stranger.ID, VehicleType: enums.VehicleTypeBike, OnDuty: true, Approved: true}
	require.NoError(t, f.client.Gorm().Create(other).Error)

	_, err := f.svc.Pickup(ctx, other.ID, f.request.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestCODDeliveredRequiresCollection(t *testing.T) {
	f := setup(t, enums.PaymentMethodCOD)
	ctx := context.Background()
	f.assignAndAccept(t)

	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)
	_, err = f.svc.OutForDelivery(ctx, f.partner.ID, f.request.ID, 12.9700, 77.5900)
	require.NoError(t, err)

	// Cannot complete before cash collection.
	_, err = f.svc.Delivered(ctx, f.partner.ID, f.request.ID)
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "collect payment")

	_, err = f.svc.MarkPaymentReceived(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.client.Gorm().First(&order, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.PaymentStatusCollected, order.PaymentStatus)

	// Double collection is rejected.
	_, err = f.svc.MarkPaymentReceived(ctx, f.partner.ID, f.request.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())

	request, err := f.svc.Delivered(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, request.Status)
}

func TestMarkPaymentReceivedRejectsOnlineOrders(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)

	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkPaymentReceived(ctx, f.partner.ID, f.request.ID)
	require.Error(t, err)
	assert.Contains(t, errors.As(err).Message(), "not cash on delivery")
}

func TestRecordLocationThrottledAndPruned(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)
	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		accepted, err := f.svc.RecordLocation(ctx, f.partner.ID, f.request.ID, 12.97+float64(i)/1000, 77.59)
		require.NoError(t, err)
		assert.True(t, accepted)
	}

	// Retention keeps only the newest three.
	points, err := f.svc.Track(ctx, f.customer.ID, f.order.ID, 10)
	require.NoError(t, err)
	assert.Len(t, points, 3)

	// Throttle drops fast samples without error.
	f.throttle.blocked = true
	accepted, err := f.svc.RecordLocation(ctx, f.partner.ID, f.request.ID, 12.98, 77.59)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestOutForDeliverySeedsTrackingAndPosition(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)
	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	request, err := f.svc.OutForDelivery(ctx, f.partner.ID, f.request.ID, 12.9611, 77.6387)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusOutForDelivery, request.Status)

	// The departure position opens the tracking trail.
	points, err := f.svc.Track(ctx, f.customer.ID, f.order.ID, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 12.9611, points[0].Latitude)
	assert.Equal(t, 77.6387, points[0].Longitude)

	var partner models.DeliveryPartner
	require.NoError(t, f.client.Gorm().First(&partner, "id = ?", f.partner.ID).Error)
	require.NotNil(t, partner.LastLatitude)
	require.NotNil(t, partner.LastLongitude)
	assert.Equal(t, 12.9611, *partner.LastLatitude)
	assert.Equal(t, 77.6387, *partner.LastLongitude)
	assert.NotNil(t, partner.LocationUpdatedAt)
}

func TestOutForDeliveryValidatesCoordinates(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)
	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	_, err = f.svc.OutForDelivery(ctx, f.partner.ID, f.request.ID, 95, 77.59)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestRecordLocationUpdatesPartnerPosition(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)
	_, err := f.svc.Pickup(ctx, f.partner.ID, f.request.ID)
	require.NoError(t, err)

	accepted, err := f.svc.RecordLocation(ctx, f.partner.ID, f.request.ID, 12.9511, 77.6001)
	require.NoError(t, err)
	require.True(t, accepted)

	var partner models.DeliveryPartner
	require.NoError(t, f.client.Gorm().First(&partner, "id = ?", f.partner.ID).Error)
	require.NotNil(t, partner.LastLatitude)
	assert.Equal(t, 12.9511, *partner.LastLatitude)

	// Each accepted sample moves the pin.
	accepted, err = f.svc.RecordLocation(ctx, f.partner.ID, f.request.ID, 12.9611, 77.6101)
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, f.client.Gorm().First(&partner, "id = ?", f.partner.ID).Error)
	assert.Equal(t, 12.9611, *partner.LastLatitude)
	assert.Equal(t, 77.6101, *partner.LastLongitude)
}

func TestRecordLocationValidatesCoordinates(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	f.assignAndAccept(t)

	_, err := f.svc.RecordLocation(context.Background(), f.partner.ID, f.request.ID, 120, 500)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestTrackHiddenFromOtherCustomers(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	_, err := f.svc.Track(context.Background(), uuid.New(), f.order.ID, 10)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestNavigationLinkUsesCoordinates(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	f.assignAndAccept(t)

	link, err := f.svc.NavigationLink(context.Background(), f.partner.ID, f.request.ID, "customer")
	require.NoError(t, err)
	assert.True(t, strings.Contains(link, "12.971600"))

	// No destination means the customer leg.
	same, err := f.svc.NavigationLink(context.Background(), f.partner.ID, f.request.ID, "")
	require.NoError(t, err)
	assert.Equal(t, link, same)
}

func TestNavigationLinkFallsBackToAddress(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	f.assignAndAccept(t)
	require.NoError(t, f.client.Gorm().Model(&models.Order{}).
		Where("id = ?", f.order.ID).
		Updates(map[string]any{"delivery_lat": nil, "delivery_lng": nil}).Error)

	link, err := f.svc.NavigationLink(context.Background(), f.partner.ID, f.request.ID, "")
	require.NoError(t, err)
	assert.Contains(t, link, "MG+Road")
}

func TestNavigationLinkToVendor(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	ctx := context.Background()
	f.assignAndAccept(t)

	// Without store coordinates the link falls back to the store address.
	link, err := f.svc.NavigationLink(ctx, f.partner.ID, f.request.ID, "vendor")
	require.NoError(t, err)
	assert.Contains(t, link, "Fresh+Mart")

	require.NoError(t, f.client.Gorm().Model(f.vendor).
		Updates(map[string]any{"latitude": 12.9352, "longitude": 77.6245}).Error)

	link, err = f.svc.NavigationLink(ctx, f.partner.ID, f.request.ID, "vendor")
	require.NoError(t, err)
	assert.Contains(t, link, "12.935200")
}

func TestNavigationLinkRejectsUnknownDestination(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	f.assignAndAccept(t)

	_, err := f.svc.NavigationLink(context.Background(), f.partner.ID, f.request.ID, "warehouse")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestOrderDetailsOnlyForAssignedPartner(t *testing.T) {
	f := setup(t, enums.PaymentMethodOnline)
	f.assignAndAccept(t)

	details, err := f.svc.OrderDetails(context.Background(), f.partner.ID, f.request.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Order)
	assert.Equal(t, f.order.ID, details.Order.ID)

	_, err = f.svc.OrderDetails(context.Background(), uuid.New(), f.request.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}
