package enums

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCollected PaymentStatus = "collected"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCollected:
		return true
	}
	return false
}

func (s PaymentStatus) String() string { return string(s) }

// IsTerminal reports whether no further payment transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusRefunded, PaymentStatusCollected:
		return true
	}
	return false
}
