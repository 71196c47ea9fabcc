package messages

import "time"

// Message statuses.
const (
	StatusPending  = "PENDING"
	StatusAnswered = "ANSWERED"
	StatusArchived = "ARCHIVED"
)

// Statuses lists the statuses for list filters.
func Statuses() []string {
	return []string{StatusPending, StatusAnswered, StatusArchived}
}

// Message is a contact request sent from the public site.
type Message struct {
	ID          int64
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
	Status      string
	Answer      string
	AnsweredBy  *int64
	AnsweredAt  *time.Time
	CreatedAt   time.Time
}
