package horses

import (
	"context"
	"strings"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[Horse], error)
	Get(ctx context.Context, id int64) (Horse, error)
	Create(ctx context.Context, h Horse) (Horse, error)
	Update(ctx context.Context, id int64, h Horse) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Horse], error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Horse, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, h Horse) (Horse, error) {
	normalize(&h)
	return s.repo.Create(ctx, h)
}

func (s *Service) Update(ctx context.Context, id int64, h Horse) error {
	normalize(&h)
	return s.repo.Update(ctx, id, h)
}

func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, true)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, false)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(h *Horse) {
	h.Name = strings.TrimSpace(h.Name)
	h.Breed = strings.TrimSpace(h.Breed)
	h.Coat = strings.TrimSpace(h.Coat)
	h.Facility = strings.TrimSpace(h.Facility)
	h.Notes = strings.TrimSpace(h.Notes)
}
