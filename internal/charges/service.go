package charges

import (
	"context"
	"strings"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search, pf Prefilter) (query.Page[Charge], error)
	Get(ctx context.Context, id int64) (Charge, error)
	Create(ctx context.Context, c Charge) (Charge, error)
	Update(ctx context.Context, id int64, c Charge) error
	Delete(ctx context.Context, id int64) error
	RiderIDsByName(ctx context.Context, name string) ([]int64, error)
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List runs the two-phase listing: the date-range and payer keys are
// reduced out of the filter map first, the payer name is resolved into
// a rider id set, and only then the generic engine is invoked. A payer
// that matches no rider short-circuits to an empty page.
func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Charge], error) {
	pf := ReduceFilters(search.Filters)
	if payer := strings.TrimSpace(pf.Payer); payer != "" {
		ids, err := s.repo.RiderIDsByName(ctx, payer)
		if err != nil {
			return query.Page[Charge]{}, err
		}
		if len(ids) == 0 {
			f := query.Build(query.Spec{Table: "charges", Columns: map[string]string{"id": "id"}}, search)
			return query.NewPage([]Charge{}, 0, f), nil
		}
		pf.RiderIDs = ids
	}
	return s.repo.List(ctx, search, pf)
}

func (s *Service) Get(ctx context.Context, id int64) (Charge, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Charge) (Charge, error) {
	c.Concept = strings.TrimSpace(c.Concept)
	c.ReceiptNumber = strings.TrimSpace(c.ReceiptNumber)
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c Charge) error {
	c.Concept = strings.TrimSpace(c.Concept)
	c.ReceiptNumber = strings.TrimSpace(c.ReceiptNumber)
	return s.repo.Update(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
