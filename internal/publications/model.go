package publications

import (
	"errors"
	"time"
)

// ErrBadTransition is returned when a status change is not allowed
// from the publication's current state.
var ErrBadTransition = errors.New("publications: invalid status transition")

// Publication statuses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Statuses lists the statuses for list filters.
func Statuses() []string {
	return []string{StatusDraft, StatusPublished, StatusArchived}
}

// Publication is a news entry shown on the public site.
type Publication struct {
	ID          int64
	Title       string
	Body        string
	Status      string
	AuthorID    *int64
	AuthorAlias string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
