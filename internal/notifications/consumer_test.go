package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/outbox"
)

type world struct {
	client      *db.Client
	consumer    *Consumer
	svc         *Service
	customer    *models.User
	vendorUser  *models.User
	partnerUser *models.User
	vendor      *models.Vendor
	partner     *models.DeliveryPartner
}

func newWorld(t *testing.T) *world {
	t.Helper()
	client := testutil.OpenDB(t)
	gdb := client.Gorm()

	customer := &models.User{Email: "c@example.com", PasswordHash: "x", FullName: "Customer", Role: enums.UserRoleCustomer, Active: true}
	vendorUser := &models.User{Email: "v@example.com", PasswordHash: "x", FullName: "Vendor", Role: enums.UserRoleVendor, Active: true}
	partnerUser := &models.User{Email: "p@example.com", PasswordHash: "x", FullName: "Partner", Role: enums.UserRolePartner, Active: true}
	require.NoError(t, gdb.Create(customer).Error)
	require.NoError(t, gdb.Create(vendorUser).Error)
	require.NoError(t, gdb.Create(partnerUser).Error)

	vendor := &models.Vendor{UserID: vendorUser.ID, StoreName: "Fresh Mart", Approved: true}
	require.NoError(t, gdb.Create(vendor).Error)
	partner := &models.DeliveryPartner{UserID: partnerUser.ID, VehicleType: enums.VehicleTypeScooter, Approved: true, OnDuty: true}
	require.NoError(t, gdb.Create(partner).Error)

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc := NewService(NewRepo(client), 5, logg)
	consumer := NewConsumer(svc, client, logg)

	return &world{
		client: client, consumer: consumer, svc: svc,
		customer: customer, vendorUser: vendorUser, partnerUser: partnerUser,
		vendor: vendor, partner: partner,
	}
}

func eventBytes(t *testing.T, event outbox.DomainEvent) []byte {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestOrderPlacedNotifiesVendorAndCustomer(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	raw := eventBytes(t, outbox.DomainEvent{
		Type: "order.placed",
		Data: map[string]any{
			"customer_id": w.customer.ID.String(),
			"vendor_id":   w.vendor.ID.String(),
		},
	})
	require.NoError(t, w.consumer.Handle(ctx, raw, nil))

	vendorFeed, err := w.svc.Feed(ctx, w.vendorUser.ID, 10)
	require.NoError(t, err)
	require.Len(t, vendorFeed, 1)
	assert.Equal(t, enums.NotificationOrderPlaced, vendorFeed[0].Type)

	customerFeed, err := w.svc.Feed(ctx, w.customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, customerFeed, 1)
}

func TestDeliveryAssignedNotifiesPartnerOnly(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	raw := eventBytes(t, outbox.DomainEvent{
		Type: "delivery.assigned",
		Data: map[string]any{
			"customer_id":     w.customer.ID.String(),
			"vendor_id":       w.vendor.ID.String(),
			"partner_id":      w.partner.ID.String(),
			"partner_user_id": w.partnerUser.ID.String(),
		},
	})
	require.NoError(t, w.consumer.Handle(ctx, raw, nil))

	partnerFeed, err := w.svc.Feed(ctx, w.partnerUser.ID, 10)
	require.NoError(t, err)
	require.Len(t, partnerFeed, 1)
	assert.Equal(t, enums.NotificationDeliveryAssigned, partnerFeed[0].Type)

	customerFeed, err := w.svc.Feed(ctx, w.customer.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, customerFeed)
}

func TestUnknownEventTypeIsDropped(t *testing.T) {
	w := newWorld(t)
	raw := eventBytes(t, outbox.DomainEvent{
		Type: "something.else",
		Data: map[string]any{"customer_id": w.customer.ID.String()},
	})
	require.NoError(t, w.consumer.Handle(context.Background(), raw, nil))
}

func TestGarbageMessageIsAcked(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.consumer.Handle(context.Background(), []byte("not-json"), nil))
}

func TestRetentionCapPrunesOldest(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, w.svc.Notify(ctx, w.customer.ID, enums.NotificationOrderPlaced, "Order placed", "body", nil))
	}

	feed, err := w.svc.Feed(ctx, w.customer.ID, 20)
	require.NoError(t, err)
	assert.Len(t, feed, 5)
}

func TestMarkReadFlow(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.svc.Notify(ctx, w.customer.ID, enums.NotificationOrderPlaced, "Order placed", "body", nil))
	feed, err := w.svc.Feed(ctx, w.customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	count, err := w.svc.UnreadCount(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, w.svc.MarkRead(ctx, w.customer.ID, feed[0].ID))

	count, err = w.svc.UnreadCount(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Second mark is a 404.
	err = w.svc.MarkRead(ctx, w.customer.ID, feed[0].ID)
	require.Error(t, err)
}
