package auth

import "time"

// User represents an authenticable account.
type User struct {
	ID            int64
	Email         string
	Alias         string
	PasswordHash  string
	IsActive      bool
	IsSystemAdmin bool
	RoleID        *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sanitized returns a copy safe to hand outside the auth layer: the
// password hash never leaves this package.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
