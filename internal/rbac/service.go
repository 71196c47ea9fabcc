package rbac

import (
	"context"
	"errors"
)

// ErrNotFound indicates that the requested principal or record does not
// exist; for permission lookups it doubles as the "no permissions"
// marker.
var ErrNotFound = errors.New("rbac: not found")

// Principal carries the authorization-relevant state of a user account.
type Principal struct {
	ID          int64
	SystemAdmin bool
	Active      bool
	RoleID      *int64
}

// RepositoryPort defines the reads the gate needs. Role and permission
// rows are seeded reference data and are never written here.
type RepositoryPort interface {
	GetPrincipal(ctx context.Context, id int64) (Principal, error)
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListAssignments(ctx context.Context) ([]Assignment, error)
}

// Service is the access control gate: it decides whether a principal
// may perform named actions and exposes effective permission sets for
// conditional rendering.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// AccessFor resolves the effective authorization state of a principal.
// Returns ErrNotFound when the principal does not exist.
func (s *Service) AccessFor(ctx context.Context, principalID int64) (Access, error) {
	p, err := s.repo.GetPrincipal(ctx, principalID)
	if err != nil {
		return Access{}, err
	}
	access := Access{
		PrincipalID: p.ID,
		SystemAdmin: p.SystemAdmin,
		Active:      p.Active,
	}
	if p.RoleID != nil {
		names, err := s.repo.RolePermissionNames(ctx, *p.RoleID)
		if err != nil {
			return Access{}, err
		}
		access.Permissions = names
	}
	return access, nil
}

// EffectivePermissions returns the permission names reachable through
// the principal's role. System admins are reported through the Access
// flag, not by materialising every permission name.
func (s *Service) EffectivePermissions(ctx context.Context, principalID int64) ([]string, error) {
	access, err := s.AccessFor(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return access.Permissions, nil
}

// HasAny reports whether the principal may proceed with an action that
// requires any one of the given permission names. Missing or disabled
// principals are always denied; system admins are always granted.
func (s *Service) HasAny(ctx context.Context, principalID int64, names ...string) (bool, error) {
	access, err := s.AccessFor(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !access.Active {
		return false, nil
	}
	if access.SystemAdmin {
		return true, nil
	}
	return access.HasAny(names...), nil
}

// ListRoles returns the seeded role catalogue.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns the seeded permission catalogue.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// Matrix returns roles, permissions and which role holds which
// permission, for the permission matrix page.
func (s *Service) Matrix(ctx context.Context) ([]Role, []Permission, map[int64]map[int64]bool, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	assignments, err := s.repo.ListAssignments(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	grants := make(map[int64]map[int64]bool, len(roles))
	for _, a := range assignments {
		if grants[a.RoleID] == nil {
			grants[a.RoleID] = make(map[int64]bool)
		}
		grants[a.RoleID][a.PermissionID] = true
	}
	return roles, perms, grants, nil
}
