package payments

import (
	"context"
	"strings"
	"time"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search, from, to *time.Time) (query.Page[Payment], error)
	Get(ctx context.Context, id int64) (Payment, error)
	Create(ctx context.Context, p Payment) (Payment, error)
	Update(ctx context.Context, id int64, p Payment) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List reduces the date-range keys out of the filter map before the
// generic engine runs. The caller map is left untouched.
func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Payment], error) {
	reduced := make(map[string]any, len(search.Filters))
	var from, to *time.Time
	for key, value := range search.Filters {
		switch key {
		case "date_from":
			from = asDate(value)
		case "date_to":
			to = asDate(value)
		default:
			reduced[key] = value
		}
	}
	search.Filters = reduced
	return s.repo.List(ctx, search, from, to)
}

func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Payment) (Payment, error) {
	normalize(&p)
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int64, p Payment) error {
	normalize(&p)
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(p *Payment) {
	p.Beneficiary = strings.TrimSpace(p.Beneficiary)
	p.Concept = strings.TrimSpace(p.Concept)
}

func asDate(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil
		}
		return &t
	default:
		return nil
	}
}
