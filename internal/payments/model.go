package payments

import "time"

// Payment type values.
const (
	TypeSalary      = "SALARY"
	TypeSupplier    = "SUPPLIER"
	TypeMaintenance = "MAINTENANCE"
	TypeVeterinary  = "VETERINARY"
	TypeOther       = "OTHER"
)

// Types lists the accepted payment types for form selects.
func Types() []string {
	return []string{TypeSalary, TypeSupplier, TypeMaintenance, TypeVeterinary, TypeOther}
}

// ValidType reports whether the value is a known payment type.
func ValidType(t string) bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Payment is money paid out by the institution. EmployeeID is set when
// the beneficiary is a staff member.
type Payment struct {
	ID            int64
	PaymentType   string
	DateOfPayment time.Time
	Amount        float64
	Beneficiary   string
	EmployeeID    *int64
	EmployeeName  string
	Concept       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
