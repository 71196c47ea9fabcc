package horses

import "time"

// Assigned use values for a horse.
const (
	UseTherapy    = "THERAPY"
	UseEquitation = "EQUITATION"
	UseRecreation = "RECREATION"
	UseRest       = "REST"
)

// Uses lists the accepted assigned-use values for form selects.
func Uses() []string {
	return []string{UseTherapy, UseEquitation, UseRecreation, UseRest}
}

// ValidUse reports whether the value is a known assigned use.
func ValidUse(u string) bool {
	for _, known := range Uses() {
		if u == known {
			return true
		}
	}
	return false
}

// Horse represents an animal of the center.
type Horse struct {
	ID          int64
	Name        string
	Breed       string
	Coat        string
	Sex         string
	BirthDate   *time.Time
	AssignedUse string
	Facility    string
	Notes       string
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
