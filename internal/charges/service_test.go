package charges

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryChargesRepo struct {
	charges   map[int64]Charge
	riders    map[int64]string
	nextID    int64
	lastPF    Prefilter
	listCalls int
}

func newMemoryChargesRepo() *memoryChargesRepo {
	return &memoryChargesRepo{charges: map[int64]Charge{}, riders: map[int64]string{}, nextID: 1}
}

func (m *memoryChargesRepo) List(_ context.Context, _ query.Search, pf Prefilter) (query.Page[Charge], error) {
	m.lastPF = pf
	m.listCalls++
	var items []Charge
	for _, c := range m.charges {
		if pf.RiderIDs != nil && !containsID(pf.RiderIDs, c.RiderID) {
			continue
		}
		if pf.DateFrom != nil && c.DateOfCharge.Before(*pf.DateFrom) {
			continue
		}
		if pf.DateTo != nil && c.DateOfCharge.After(*pf.DateTo) {
			continue
		}
		if method, ok := pf.Filters["payment_method"]; ok && c.PaymentMethod != method {
			continue
		}
		items = append(items, c)
	}
	return query.Page[Charge]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryChargesRepo) Get(_ context.Context, id int64) (Charge, error) {
	c, ok := m.charges[id]
	if !ok {
		return Charge{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryChargesRepo) Create(_ context.Context, c Charge) (Charge, error) {
	c.ID = m.nextID
	m.nextID++
	m.charges[c.ID] = c
	return c, nil
}

func (m *memoryChargesRepo) Update(_ context.Context, id int64, c Charge) error {
	if _, ok := m.charges[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	m.charges[id] = c
	return nil
}

func (m *memoryChargesRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.charges[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.charges, id)
	return nil
}

func (m *memoryChargesRepo) RiderIDsByName(_ context.Context, name string) ([]int64, error) {
	var ids []int64
	for id, n := range m.riders {
		if containsFold(n, name) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReduceFiltersLeavesInputUntouched(t *testing.T) {
	input := map[string]any{
		"payment_method": MethodCash,
		"date_from":      "2025-01-01",
		"date_to":        "2025-06-30",
		"payer":          "gómez",
	}

	pf := ReduceFilters(input)

	require.Len(t, input, 4, "input map must keep all keys")
	require.Equal(t, "gómez", input["payer"])
	require.Equal(t, map[string]any{"payment_method": MethodCash}, pf.Filters)
	require.Equal(t, date(2025, 1, 1), *pf.DateFrom)
	require.Equal(t, date(2025, 6, 30), *pf.DateTo)
	require.Equal(t, "gómez", pf.Payer)
}

func TestReduceFiltersTypedDates(t *testing.T) {
	from := date(2025, 3, 1)
	pf := ReduceFilters(map[string]any{"date_from": from, "date_to": "not-a-date"})
	require.Equal(t, from, *pf.DateFrom)
	require.Nil(t, pf.DateTo)
	require.Empty(t, pf.Filters)
}

func TestListResolvesPayerToRiderSet(t *testing.T) {
	repo := newMemoryChargesRepo()
	repo.riders[1] = "Gómez, Lucía"
	repo.riders[2] = "Ruiz, Nico"
	repo.charges[10] = Charge{ID: 10, RiderID: 1, DateOfCharge: date(2025, 2, 1), Amount: 100, PaymentMethod: MethodCash}
	repo.charges[11] = Charge{ID: 11, RiderID: 2, DateOfCharge: date(2025, 2, 2), Amount: 200, PaymentMethod: MethodCash}
	svc := NewService(repo)

	page, err := svc.List(context.Background(), query.Search{Filters: map[string]any{"payer": "gómez"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(10), page.Items[0].ID)
	require.Equal(t, []int64{1}, repo.lastPF.RiderIDs)
}

func TestListUnknownPayerShortCircuits(t *testing.T) {
	repo := newMemoryChargesRepo()
	repo.charges[10] = Charge{ID: 10, RiderID: 1, DateOfCharge: date(2025, 2, 1)}
	svc := NewService(repo)

	page, err := svc.List(context.Background(), query.Search{Filters: map[string]any{"payer": "nadie"}})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Zero(t, page.Total)
	require.Zero(t, repo.listCalls, "repository list must not run when no rider matches")
}

func TestListDateRange(t *testing.T) {
	repo := newMemoryChargesRepo()
	repo.charges[1] = Charge{ID: 1, RiderID: 1, DateOfCharge: date(2025, 1, 15)}
	repo.charges[2] = Charge{ID: 2, RiderID: 1, DateOfCharge: date(2025, 3, 15)}
	repo.charges[3] = Charge{ID: 3, RiderID: 1, DateOfCharge: date(2025, 5, 15)}
	svc := NewService(repo)

	filters := map[string]any{"date_from": "2025-02-01", "date_to": "2025-04-01"}
	page, err := svc.List(context.Background(), query.Search{Filters: filters})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(2), page.Items[0].ID)

	// caller map still intact after the reduction
	require.Len(t, filters, 2)
}

func TestCreateTrimsConceptAndReceipt(t *testing.T) {
	repo := newMemoryChargesRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Charge{
		RiderID:       1,
		DateOfCharge:  date(2025, 4, 1),
		Amount:        1500,
		PaymentMethod: MethodTransfer,
		Concept:       "  Sesión abril ",
		ReceiptNumber: " 0001-2233 ",
	})
	require.NoError(t, err)
	require.Equal(t, "Sesión abril", created.Concept)
	require.Equal(t, "0001-2233", created.ReceiptNumber)
}
