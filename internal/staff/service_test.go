package staff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryStaffRepo struct {
	employees map[int64]Employee
	nextID    int64
}

func newMemoryStaffRepo() *memoryStaffRepo {
	return &memoryStaffRepo{employees: map[int64]Employee{}, nextID: 1}
}

func (m *memoryStaffRepo) List(_ context.Context, _ query.Search) (query.Page[Employee], error) {
	items := make([]Employee, 0, len(m.employees))
	for _, e := range m.employees {
		items = append(items, e)
	}
	return query.Page[Employee]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryStaffRepo) Get(_ context.Context, id int64) (Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return Employee{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryStaffRepo) Create(_ context.Context, e Employee) (Employee, error) {
	e.ID = m.nextID
	m.nextID++
	m.employees[e.ID] = e
	return e, nil
}

func (m *memoryStaffRepo) Update(_ context.Context, id int64, e Employee) error {
	if _, ok := m.employees[id]; !ok {
		return shared.ErrNotFound
	}
	e.ID = id
	m.employees[id] = e
	return nil
}

func (m *memoryStaffRepo) SetArchived(_ context.Context, id int64, archived bool) error {
	e, ok := m.employees[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.IsArchived = archived
	m.employees[id] = e
	return nil
}

func (m *memoryStaffRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

func TestCreateNormalizesFields(t *testing.T) {
	repo := newMemoryStaffRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Employee{
		FirstName: "  Marta ",
		LastName:  " Suárez ",
		DNI:       " 30111222 ",
		Email:     " Marta@Estribo.ORG ",
		Position:  PositionTherapist,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "Marta", created.FirstName)
	require.Equal(t, "Suárez", created.LastName)
	require.Equal(t, "30111222", created.DNI)
	require.Equal(t, "marta@estribo.org", created.Email)
}

func TestArchiveAndRestore(t *testing.T) {
	repo := newMemoryStaffRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Employee{FirstName: "Juan", LastName: "Paz", DNI: "28999888", Position: PositionConductor})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, got.IsArchived)

	require.NoError(t, svc.Restore(context.Background(), created.ID))
	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsArchived)
}

func TestArchiveMissingEmployee(t *testing.T) {
	svc := NewService(newMemoryStaffRepo())
	err := svc.Archive(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidPosition(t *testing.T) {
	require.True(t, ValidPosition(PositionVeterinarian))
	require.False(t, ValidPosition("GROUNDSKEEPER"))
}
