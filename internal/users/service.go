package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[User], error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, alias, passwordHash string, roleID *int64) (User, error)
	Update(ctx context.Context, id int64, alias string, roleID *int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of users.
func (s *Service) List(ctx context.Context, search query.Search) (query.Page[User], error) {
	return s.repo.List(ctx, search)
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers an admin-created account with a hashed password.
func (s *Service) Create(ctx context.Context, email, alias, password string, roleID *int64) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	alias = strings.TrimSpace(alias)
	if email == "" {
		return User{}, errors.New("users: email required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, email, alias, string(hash), roleID)
}

// Update changes alias and role assignment.
func (s *Service) Update(ctx context.Context, id int64, alias string, roleID *int64) error {
	return s.repo.Update(ctx, id, strings.TrimSpace(alias), roleID)
}

// ToggleActive flips the enabled flag. System administrators are a
// permanent override and the toggle refuses to touch them.
func (s *Service) ToggleActive(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if user.IsSystemAdmin {
		return User{}, ErrSystemAdminImmutable
	}
	if err := s.repo.SetActive(ctx, id, !user.IsActive); err != nil {
		return User{}, err
	}
	user.IsActive = !user.IsActive
	return user, nil
}

// Delete removes the account permanently. The screens favour disabling;
// this is the hard-delete path.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
