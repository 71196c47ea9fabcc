package charges

import "time"

// Payment method values for a charge.
const (
	MethodCash     = "CASH"
	MethodTransfer = "TRANSFER"
	MethodCard     = "CARD"
	MethodOther    = "OTHER"
)

// Methods lists the accepted payment methods for form selects.
func Methods() []string {
	return []string{MethodCash, MethodTransfer, MethodCard, MethodOther}
}

// ValidMethod reports whether the value is a known payment method.
func ValidMethod(m string) bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

// Charge is money received from a rider.
type Charge struct {
	ID            int64
	RiderID       int64
	RiderName     string
	DateOfCharge  time.Time
	Amount        float64
	PaymentMethod string
	Concept       string
	ReceiptNumber string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
