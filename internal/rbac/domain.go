package rbac

import "time"

// Role represents a high-level permission grouping. Roles are seeded
// reference data (Técnica, Ecuestre, Voluntariado, Administración) and
// are read-only at runtime.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability gating one action on one
// feature, e.g. "riders.edit".
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       int64
	PermissionID int64
}

// Access is the effective authorization state of one principal, used by
// permission checks and by templates for conditional rendering.
type Access struct {
	PrincipalID int64
	SystemAdmin bool
	Active      bool
	Permissions []string
}

// Has reports whether the access holds the named permission. System
// admins hold everything; disabled principals hold nothing.
func (a Access) Has(name string) bool {
	if !a.Active {
		return false
	}
	if a.SystemAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// HasAny reports whether the access holds at least one of names.
func (a Access) HasAny(names ...string) bool {
	for _, n := range names {
		if a.Has(n) {
			return true
		}
	}
	return false
}
