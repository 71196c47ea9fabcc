package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryPaymentsRepo struct {
	payments map[int64]Payment
	nextID   int64
	lastFrom *time.Time
	lastTo   *time.Time
	lastFil  map[string]any
}

func newMemoryPaymentsRepo() *memoryPaymentsRepo {
	return &memoryPaymentsRepo{payments: map[int64]Payment{}, nextID: 1}
}

func (m *memoryPaymentsRepo) List(_ context.Context, search query.Search, from, to *time.Time) (query.Page[Payment], error) {
	m.lastFrom = from
	m.lastTo = to
	m.lastFil = search.Filters
	var items []Payment
	for _, p := range m.payments {
		if from != nil && p.DateOfPayment.Before(*from) {
			continue
		}
		if to != nil && p.DateOfPayment.After(*to) {
			continue
		}
		if t, ok := search.Filters["payment_type"]; ok && p.PaymentType != t {
			continue
		}
		items = append(items, p)
	}
	return query.Page[Payment]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryPaymentsRepo) Get(_ context.Context, id int64) (Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryPaymentsRepo) Create(_ context.Context, p Payment) (Payment, error) {
	p.ID = m.nextID
	m.nextID++
	m.payments[p.ID] = p
	return p, nil
}

func (m *memoryPaymentsRepo) Update(_ context.Context, id int64, p Payment) error {
	if _, ok := m.payments[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	m.payments[id] = p
	return nil
}

func (m *memoryPaymentsRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestListReducesDateRangeKeys(t *testing.T) {
	repo := newMemoryPaymentsRepo()
	repo.payments[1] = Payment{ID: 1, PaymentType: TypeSalary, DateOfPayment: day(2025, 1, 10)}
	repo.payments[2] = Payment{ID: 2, PaymentType: TypeSalary, DateOfPayment: day(2025, 3, 10)}
	svc := NewService(repo)

	filters := map[string]any{
		"payment_type": TypeSalary,
		"date_from":    "2025-02-01",
		"date_to":      "2025-04-01",
	}
	page, err := svc.List(context.Background(), query.Search{Filters: filters})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(2), page.Items[0].ID)

	// caller map is untouched, repository sees the reduced one
	require.Len(t, filters, 3)
	require.Equal(t, map[string]any{"payment_type": TypeSalary}, repo.lastFil)
	require.Equal(t, day(2025, 2, 1), *repo.lastFrom)
	require.Equal(t, day(2025, 4, 1), *repo.lastTo)
}

func TestListInvalidDateIgnored(t *testing.T) {
	repo := newMemoryPaymentsRepo()
	repo.payments[1] = Payment{ID: 1, PaymentType: TypeOther, DateOfPayment: day(2020, 1, 1)}
	svc := NewService(repo)

	page, err := svc.List(context.Background(), query.Search{Filters: map[string]any{"date_from": "ayer"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Nil(t, repo.lastFrom)
}

func TestCreateNormalizes(t *testing.T) {
	repo := newMemoryPaymentsRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Payment{
		PaymentType:   TypeSupplier,
		DateOfPayment: day(2025, 5, 2),
		Amount:        80000,
		Beneficiary:   "  Forrajería El Bagual ",
		Concept:       " Fardos mayo ",
	})
	require.NoError(t, err)
	require.Equal(t, "Forrajería El Bagual", created.Beneficiary)
	require.Equal(t, "Fardos mayo", created.Concept)
}

func TestUpdateMissingPayment(t *testing.T) {
	svc := NewService(newMemoryPaymentsRepo())
	err := svc.Update(context.Background(), 9, Payment{PaymentType: TypeOther})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
