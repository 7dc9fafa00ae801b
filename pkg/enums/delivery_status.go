package enums

// DeliveryStatus is the authoritative status of a delivery request.
// Transitions are linear except for partner rejection and cancellation.
type DeliveryStatus string

const (
	DeliveryStatusPending           DeliveryStatus = "pending"
	DeliveryStatusAssigned          DeliveryStatus = "assigned"
	DeliveryStatusAccepted          DeliveryStatus = "accepted"
	DeliveryStatusRejectedByPartner DeliveryStatus = "rejected_by_partner"
	DeliveryStatusPickedUp          DeliveryStatus = "picked_up"
	DeliveryStatusOutForDelivery    DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered         DeliveryStatus = "delivered"
	DeliveryStatusCancelled         DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusAssigned, DeliveryStatusAccepted,
		DeliveryStatusRejectedByPartner, DeliveryStatusPickedUp,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusCancelled
}

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:           {DeliveryStatusAssigned, DeliveryStatusCancelled},
	DeliveryStatusAssigned:          {DeliveryStatusAccepted, DeliveryStatusRejectedByPartner, DeliveryStatusCancelled},
	DeliveryStatusRejectedByPartner: {DeliveryStatusAssigned, DeliveryStatusCancelled},
	DeliveryStatusAccepted:          {DeliveryStatusPickedUp, DeliveryStatusCancelled},
	DeliveryStatusPickedUp:          {DeliveryStatusOutForDelivery, DeliveryStatusCancelled},
	DeliveryStatusOutForDelivery:    {DeliveryStatusDelivered, DeliveryStatusCancelled},
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseDeliveryStatus(value string) (DeliveryStatus, bool) {
	status := DeliveryStatus(value)
	return status, status.IsValid()
}
