package publications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryPublicationsRepo struct {
	entries map[int64]Publication
	nextID  int64
}

func newMemoryPublicationsRepo() *memoryPublicationsRepo {
	return &memoryPublicationsRepo{entries: map[int64]Publication{}, nextID: 1}
}

func (m *memoryPublicationsRepo) List(_ context.Context, search query.Search) (query.Page[Publication], error) {
	var items []Publication
	for _, p := range m.entries {
		if status, ok := search.Filters["status"]; ok && p.Status != status {
			continue
		}
		items = append(items, p)
	}
	return query.Page[Publication]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryPublicationsRepo) Get(_ context.Context, id int64) (Publication, error) {
	p, ok := m.entries[id]
	if !ok {
		return Publication{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryPublicationsRepo) Create(_ context.Context, p Publication) (Publication, error) {
	p.ID = m.nextID
	m.nextID++
	m.entries[p.ID] = p
	return p, nil
}

func (m *memoryPublicationsRepo) Update(_ context.Context, id int64, title, body string) error {
	p, ok := m.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Title = title
	p.Body = body
	m.entries[id] = p
	return nil
}

func (m *memoryPublicationsRepo) SetStatus(_ context.Context, id int64, status string, publishedAt *time.Time) error {
	p, ok := m.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	p.PublishedAt = publishedAt
	m.entries[id] = p
	return nil
}

func (m *memoryPublicationsRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.entries[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func TestCreateStartsAsDraft(t *testing.T) {
	svc := NewService(newMemoryPublicationsRepo(), nil)
	created, err := svc.Create(context.Background(), "  Jornada abierta ", " Los esperamos el sábado. ", nil)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, created.Status)
	require.Equal(t, "Jornada abierta", created.Title)
	require.Nil(t, created.PublishedAt)
}

func TestPublishStampsTime(t *testing.T) {
	repo := newMemoryPublicationsRepo()
	svc := NewService(repo, nil)
	created, err := svc.Create(context.Background(), "Nota", "Cuerpo", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Publish(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
}

func TestTransitionsAreGuarded(t *testing.T) {
	repo := newMemoryPublicationsRepo()
	svc := NewService(repo, nil)
	created, err := svc.Create(context.Background(), "Nota", "Cuerpo", nil)
	require.NoError(t, err)

	// draft cannot be archived or restored
	require.ErrorIs(t, svc.Archive(context.Background(), created.ID), ErrBadTransition)
	require.ErrorIs(t, svc.Restore(context.Background(), created.ID), ErrBadTransition)

	require.NoError(t, svc.Publish(context.Background(), created.ID))
	// published cannot be published again
	require.ErrorIs(t, svc.Publish(context.Background(), created.ID), ErrBadTransition)

	require.NoError(t, svc.Archive(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusArchived, got.Status)

	require.NoError(t, svc.Restore(context.Background(), created.ID))
	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
	require.Nil(t, got.PublishedAt)
}

func TestListPublishedFiltersStatus(t *testing.T) {
	repo := newMemoryPublicationsRepo()
	svc := NewService(repo, nil)

	draft, _ := svc.Create(context.Background(), "Borrador", "x", nil)
	published, _ := svc.Create(context.Background(), "Al aire", "y", nil)
	require.NoError(t, svc.Publish(context.Background(), published.ID))

	page, err := svc.ListPublished(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, published.ID, page.Items[0].ID)
	require.NotEqual(t, draft.ID, page.Items[0].ID)
}

func TestTransitionMissingEntry(t *testing.T) {
	svc := NewService(newMemoryPublicationsRepo(), nil)
	require.ErrorIs(t, svc.Publish(context.Background(), 5), shared.ErrNotFound)
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestPublishRecordsAuditEntry(t *testing.T) {
	repo := newMemoryPublicationsRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit)

	p, err := svc.Create(context.Background(), "Jornada abierta", "Detalles", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Publish(context.Background(), p.ID))
	require.Len(t, audit.logs, 1)
	require.Equal(t, "publication.publish", audit.logs[0].Action)
	require.Equal(t, "publication", audit.logs[0].Entity)
}
