package staff

import "time"

// Position values accepted for an employee.
const (
	PositionConductor    = "CONDUCTOR"
	PositionTherapist    = "THERAPIST"
	PositionTrack        = "TRACK_ASSISTANT"
	PositionVeterinarian = "VETERINARIAN"
	PositionAdmin        = "ADMINISTRATIVE"
)

// Positions lists the accepted position values for form selects.
func Positions() []string {
	return []string{PositionConductor, PositionTherapist, PositionTrack, PositionVeterinarian, PositionAdmin}
}

// Employee represents a staff member of the center.
type Employee struct {
	ID         int64
	FirstName  string
	LastName   string
	DNI        string
	Email      string
	Phone      string
	Position   string
	Profession string
	StartDate  time.Time
	EndDate    *time.Time
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidPosition reports whether the value is a known position.
func ValidPosition(p string) bool {
	for _, known := range Positions() {
		if p == known {
			return true
		}
	}
	return false
}
