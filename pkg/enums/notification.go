package enums

// NotificationType identifies the event a notification describes.
type NotificationType string

const (
	NotificationOrderPlaced       NotificationType = "order.placed"
	NotificationOrderAccepted     NotificationType = "order.accepted"
	NotificationOrderCancelled    NotificationType = "order.cancelled"
	NotificationPaymentConfirmed  NotificationType = "payment.confirmed"
	NotificationDeliveryAssigned  NotificationType = "delivery.assigned"
	NotificationDeliveryAccepted  NotificationType = "delivery.accepted"
	NotificationDeliveryRejected  NotificationType = "delivery.rejected"
	NotificationDeliveryPickedUp  NotificationType = "delivery.picked_up"
	NotificationDeliveryEnRoute   NotificationType = "delivery.out_for_delivery"
	NotificationDeliveryDelivered NotificationType = "delivery.delivered"
	NotificationCODCollected      NotificationType = "payment.cod_collected"
	NotificationVendorInvited     NotificationType = "vendor.invited"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationOrderPlaced, NotificationOrderAccepted, NotificationOrderCancelled,
		NotificationPaymentConfirmed, NotificationDeliveryAssigned, NotificationDeliveryAccepted,
		NotificationDeliveryRejected, NotificationDeliveryPickedUp, NotificationDeliveryEnRoute,
		NotificationDeliveryDelivered, NotificationCODCollected, NotificationVendorInvited:
		return true
	}
	return false
}

func (t NotificationType) String() string { return string(t) }
