package riders

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDraftNotFound is returned when a wizard token does not match an
// in-progress draft.
var ErrDraftNotFound = errors.New("riders: draft not found")

// Document kinds accepted for rider files.
const (
	DocDNI           = "DNI"
	DocMedicalCert   = "MEDICAL_CERT"
	DocDisability    = "DISABILITY_CERT"
	DocAuthorization = "AUTHORIZATION"
	DocOther         = "OTHER"
)

// DocumentKinds lists the accepted document kinds for form selects.
func DocumentKinds() []string {
	return []string{DocDNI, DocMedicalCert, DocDisability, DocAuthorization, DocOther}
}

// ValidDocumentKind reports whether the value is a known kind.
func ValidDocumentKind(k string) bool {
	for _, known := range DocumentKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Rider represents a jockey or amazon attending the center.
type Rider struct {
	ID                int64
	FirstName         string
	LastName          string
	DNI               string
	BirthDate         *time.Time
	Phone             string
	Email             string
	Address           string
	HealthInsurance   string
	EmergencyContact  string
	Scholarship       bool
	HasDisabilityCert bool
	Diagnosis         string
	IsArchived        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Document is a file stored for a rider in the object store.
type Document struct {
	ID          int64
	RiderID     int64
	Kind        string
	Title       string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Draft holds the state of an in-progress creation wizard. Each draft
// is keyed by an opaque token handed to the browser; steps fill the
// rider fields incrementally until the final confirmation persists a
// Rider and deletes the draft.
type Draft struct {
	Token     uuid.UUID
	Step      int
	Rider     Rider
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Wizard step numbers.
const (
	StepIdentity = 1
	StepHealth   = 2
	StepConfirm  = 3
)
