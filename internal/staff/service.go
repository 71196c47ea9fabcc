package staff

import (
	"context"
	"strings"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[Employee], error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, id int64, e Employee) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Employee], error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, error) {
	normalize(&e)
	return s.repo.Create(ctx, e)
}

func (s *Service) Update(ctx context.Context, id int64, e Employee) error {
	normalize(&e)
	return s.repo.Update(ctx, id, e)
}

// Archive hides an employee from active listings without deleting history.
func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, true)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, false)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(e *Employee) {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.DNI = strings.TrimSpace(e.DNI)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.Phone = strings.TrimSpace(e.Phone)
	e.Profession = strings.TrimSpace(e.Profession)
}
