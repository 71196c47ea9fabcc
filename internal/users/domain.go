package users

import (
	"errors"
	"time"
)

// ErrSystemAdminImmutable is returned when the activation toggle is
// attempted on a system administrator account.
var ErrSystemAdminImmutable = errors.New("users: system admin cannot be toggled")

// User represents a principal as managed from the users screens. The
// password hash never appears here.
type User struct {
	ID            int64
	Email         string
	Alias         string
	IsActive      bool
	IsSystemAdmin bool
	RoleID        *int64
	RoleName      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
