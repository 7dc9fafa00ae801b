package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/outbox"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

// Consumer turns published domain events into persisted notification
// feed entries. It runs in the notification worker process, fed by the
// Pub/Sub subscription.
type Consumer struct {
	svc    *Service
	client *db.Client
	logg   *logger.Logger
}

func NewConsumer(svc *Service, client *db.Client, logg *logger.Logger) *Consumer {
	return &Consumer{svc: svc, client: client, logg: logg}
}

// Handle processes one event. Unknown event types are acked and
// dropped; failing a known type nacks so Pub/Sub redelivers.
func (c *Consumer) Handle(ctx context.Context, data []byte, _ map[string]string) error {
	var event outbox.DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Warn(ctx, "dropping undecodable event")
		return nil
	}

	payload, _ := event.Data.(map[string]any)
	if payload == nil {
		c.logg.Warn(ctx, "dropping event without payload")
		return nil
	}

	for _, target := range c.fanout(ctx, event.Type, payload) {
		if err := c.svc.Notify(ctx, target.recipient, target.ntype, target.title, target.body, types.JSONB(payload)); err != nil {
			return fmt.Errorf("notify %s: %w", target.recipient, err)
		}
	}
	return nil
}

type notificationTarget struct {
	recipient uuid.UUID
	ntype     enums.NotificationType
	title     string
	body      string
}

func (c *Consumer) fanout(ctx context.Context, eventType string, payload map[string]any) []notificationTarget {
	customerID := c.parseID(payload, "customer_id")
	vendorUserID := c.vendorUser(ctx, c.parseID(payload, "vendor_id"))
	partnerUserID := c.partnerUser(ctx, c.parseID(payload, "partner_id"))
	if id := c.parseID(payload, "partner_user_id"); id != uuid.Nil {
		partnerUserID = id
	}

	var out []notificationTarget
	add := func(recipient uuid.UUID, ntype enums.NotificationType, title, body string) {
		if recipient == uuid.Nil {
			return
		}
		out = append(out, notificationTarget{recipient: recipient, ntype: ntype, title: title, body: body})
	}

	switch eventType {
	case "order.placed":
		add(vendorUserID, enums.NotificationOrderPlaced, "New order", "A new order is waiting for confirmation.")
		add(customerID, enums.NotificationOrderPlaced, "Order placed", "Your order has been placed.")
	case "order.accepted":
		add(customerID, enums.NotificationOrderAccepted, "Order confirmed", "The store has confirmed your order.")
	case "order.cancelled":
		add(vendorUserID, enums.NotificationOrderCancelled, "Order cancelled", "An order was cancelled by the customer.")
		add(partnerUserID, enums.NotificationOrderCancelled, "Delivery cancelled", "An assigned delivery was cancelled.")
	case "payment.confirmed":
		add(customerID, enums.NotificationPaymentConfirmed, "Payment received", "Your payment has been confirmed.")
		add(vendorUserID, enums.NotificationPaymentConfirmed, "Payment received", "An order has been paid for.")
	case "payment.cod_collected":
		add(customerID, enums.NotificationCODCollected, "Payment recorded", "Cash payment has been recorded for your order.")
		add(vendorUserID, enums.NotificationCODCollected, "Cash collected", "The delivery partner collected the order payment.")
	case "delivery.assigned":
		add(partnerUserID, enums.NotificationDeliveryAssigned, "New delivery offer", "A delivery has been offered to you.")
	case "delivery.accepted":
		add(customerID, enums.NotificationDeliveryAccepted, "Delivery partner assigned", "A delivery partner accepted your order.")
		add(vendorUserID, enums.NotificationDeliveryAccepted, "Delivery accepted", "The delivery partner accepted the assignment.")
	case "delivery.rejected":
		add(vendorUserID, enums.NotificationDeliveryRejected, "Delivery declined", "The delivery partner declined; please re-assign.")
	case "delivery.picked_up":
		add(customerID, enums.NotificationDeliveryPickedUp, "Order picked up", "Your order has been picked up from the store.")
	case "delivery.out_for_delivery":
		add(customerID, enums.NotificationDeliveryEnRoute, "Out for delivery", "Your order is on the way.")
	case "delivery.delivered":
		add(customerID, enums.NotificationDeliveryDelivered, "Delivered", "Your order has been delivered. Enjoy!")
		add(vendorUserID, enums.NotificationDeliveryDelivered, "Order delivered", "The order reached the customer.")
	default:
		c.logg.Warn(ctx, "no notification mapping for event type")
	}
	return out
}

func (c *Consumer) parseID(payload map[string]any, key string) uuid.UUID {
	raw, _ := payload[key].(string)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *Consumer) vendorUser(ctx context.Context, vendorID uuid.UUID) uuid.UUID {
	if vendorID == uuid.Nil {
		return uuid.Nil
	}
	var vendor models.Vendor
	if err := c.client.Gorm().WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		return uuid.Nil
	}
	return vendor.UserID
}

func (c *Consumer) partnerUser(ctx context.Context, partnerID uuid.UUID) uuid.UUID {
	if partnerID == uuid.Nil {
		return uuid.Nil
	}
	var partner models.DeliveryPartner
	if err := c.client.Gorm().WithContext(ctx).First(&partner, "id = ?", partnerID).Error; err != nil {
		return uuid.Nil
	}
	return partner.UserID
}
