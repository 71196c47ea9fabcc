package roles

import "time"

// Role is a seeded permission grouping together with how many
// principals currently hold it.
type Role struct {
	ID          int64
	Name        string
	Description string
	MemberCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
