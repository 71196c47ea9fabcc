package horses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryHorsesRepo struct {
	horses map[int64]Horse
	nextID int64
}

func newMemoryHorsesRepo() *memoryHorsesRepo {
	return &memoryHorsesRepo{horses: map[int64]Horse{}, nextID: 1}
}

func (m *memoryHorsesRepo) List(_ context.Context, _ query.Search) (query.Page[Horse], error) {
	items := make([]Horse, 0, len(m.horses))
	for _, h := range m.horses {
		items = append(items, h)
	}
	return query.Page[Horse]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryHorsesRepo) Get(_ context.Context, id int64) (Horse, error) {
	h, ok := m.horses[id]
	if !ok {
		return Horse{}, shared.ErrNotFound
	}
	return h, nil
}

func (m *memoryHorsesRepo) Create(_ context.Context, h Horse) (Horse, error) {
	h.ID = m.nextID
	m.nextID++
	m.horses[h.ID] = h
	return h, nil
}

func (m *memoryHorsesRepo) Update(_ context.Context, id int64, h Horse) error {
	if _, ok := m.horses[id]; !ok {
		return shared.ErrNotFound
	}
	h.ID = id
	m.horses[id] = h
	return nil
}

func (m *memoryHorsesRepo) SetArchived(_ context.Context, id int64, archived bool) error {
	h, ok := m.horses[id]
	if !ok {
		return shared.ErrNotFound
	}
	h.IsArchived = archived
	m.horses[id] = h
	return nil
}

func (m *memoryHorsesRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.horses[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.horses, id)
	return nil
}

func TestCreateTrimsFields(t *testing.T) {
	svc := NewService(newMemoryHorsesRepo())
	created, err := svc.Create(context.Background(), Horse{Name: "  Lucero ", Breed: " Criollo ", AssignedUse: UseTherapy})
	require.NoError(t, err)
	require.Equal(t, "Lucero", created.Name)
	require.Equal(t, "Criollo", created.Breed)
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	svc := NewService(newMemoryHorsesRepo())
	created, err := svc.Create(context.Background(), Horse{Name: "Zaino", AssignedUse: UseEquitation})
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

func TestGetMissingHorse(t *testing.T) {
	svc := NewService(newMemoryHorsesRepo())
	_, err := svc.Get(context.Background(), 7)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidUse(t *testing.T) {
	require.True(t, ValidUse(UseTherapy))
	require.False(t, ValidUse("RACING"))
}
