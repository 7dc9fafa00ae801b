package enums

// PaymentMethod is fixed at order creation and never inferred from
// payment identifiers afterwards.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline:
		return true
	}
	return false
}

func (m PaymentMethod) String() string { return string(m) }

func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	method := PaymentMethod(value)
	return method, method.IsValid()
}
