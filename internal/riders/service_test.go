package riders

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryRidersRepo struct {
	riders    map[int64]Rider
	documents map[int64]Document
	drafts    map[uuid.UUID]Draft
	nextID    int64
	nextDocID int64
}

func newMemoryRidersRepo() *memoryRidersRepo {
	return &memoryRidersRepo{
		riders:    map[int64]Rider{},
		documents: map[int64]Document{},
		drafts:    map[uuid.UUID]Draft{},
		nextID:    1,
		nextDocID: 1,
	}
}

func (m *memoryRidersRepo) List(_ context.Context, _ query.Search) (query.Page[Rider], error) {
	items := make([]Rider, 0, len(m.riders))
	for _, rd := range m.riders {
		items = append(items, rd)
	}
	return query.Page[Rider]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryRidersRepo) Get(_ context.Context, id int64) (Rider, error) {
	rd, ok := m.riders[id]
	if !ok {
		return Rider{}, shared.ErrNotFound
	}
	return rd, nil
}

func (m *memoryRidersRepo) Create(_ context.Context, rd Rider) (Rider, error) {
	rd.ID = m.nextID
	m.nextID++
	m.riders[rd.ID] = rd
	return rd, nil
}

func (m *memoryRidersRepo) CreateFromDraft(ctx context.Context, token uuid.UUID, rd Rider) (Rider, error) {
	created, err := m.Create(ctx, rd)
	if err != nil {
		return Rider{}, err
	}
	delete(m.drafts, token)
	return created, nil
}

func (m *memoryRidersRepo) Update(_ context.Context, id int64, rd Rider) error {
	if _, ok := m.riders[id]; !ok {
		return shared.ErrNotFound
	}
	rd.ID = id
	m.riders[id] = rd
	return nil
}

func (m *memoryRidersRepo) SetArchived(_ context.Context, id int64, archived bool) error {
	rd, ok := m.riders[id]
	if !ok {
		return shared.ErrNotFound
	}
	rd.IsArchived = archived
	m.riders[id] = rd
	return nil
}

func (m *memoryRidersRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.riders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.riders, id)
	return nil
}

func (m *memoryRidersRepo) ListDocuments(_ context.Context, riderID int64) ([]Document, error) {
	var docs []Document
	for _, d := range m.documents {
		if d.RiderID == riderID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *memoryRidersRepo) GetDocument(_ context.Context, id int64) (Document, error) {
	d, ok := m.documents[id]
	if !ok {
		return Document{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryRidersRepo) CreateDocument(_ context.Context, d Document) (Document, error) {
	d.ID = m.nextDocID
	m.nextDocID++
	m.documents[d.ID] = d
	return d, nil
}

func (m *memoryRidersRepo) DeleteDocument(_ context.Context, id int64) error {
	if _, ok := m.documents[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *memoryRidersRepo) GetDraft(_ context.Context, token uuid.UUID) (Draft, error) {
	d, ok := m.drafts[token]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return d, nil
}

func (m *memoryRidersRepo) SaveDraft(_ context.Context, d Draft) error {
	m.drafts[d.Token] = d
	return nil
}

func (m *memoryRidersRepo) DeleteDraft(_ context.Context, token uuid.UUID) error {
	delete(m.drafts, token)
	return nil
}

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", shared.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PresignGet(key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

func newTestService(t *testing.T) (*Service, *memoryRidersRepo, *fakeStore) {
	t.Helper()
	repo := newMemoryRidersRepo()
	store := newFakeStore()
	return NewService(repo, store, slog.New(slog.DiscardHandler)), repo, store
}

func TestWizardFullFlow(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	draft, err := svc.StartDraft(ctx)
	require.NoError(t, err)
	require.Equal(t, StepIdentity, draft.Step)

	draft, err = svc.SaveIdentity(ctx, draft.Token, Rider{FirstName: "Lucía", LastName: "Gómez", DNI: "41222333"})
	require.NoError(t, err)
	require.Equal(t, StepHealth, draft.Step)

	draft, err = svc.SaveHealth(ctx, draft.Token, Rider{Scholarship: true, HealthInsurance: "OSDE"})
	require.NoError(t, err)
	require.Equal(t, StepConfirm, draft.Step)

	rider, err := svc.Confirm(ctx, draft.Token)
	require.NoError(t, err)
	require.NotZero(t, rider.ID)
	require.Equal(t, "Lucía", rider.FirstName)
	require.True(t, rider.Scholarship)

	// the draft is gone after confirmation
	_, err = svc.Draft(ctx, draft.Token)
	require.ErrorIs(t, err, ErrDraftNotFound)
	require.Empty(t, repo.drafts)
}

func TestWizardUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Draft(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrDraftNotFound)

	_, err = svc.SaveIdentity(context.Background(), uuid.New(), Rider{})
	require.ErrorIs(t, err, ErrDraftNotFound)

	_, err = svc.Confirm(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestWizardAbandon(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	draft, err := svc.StartDraft(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Abandon(ctx, draft.Token))

	_, err = svc.Draft(ctx, draft.Token)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestUploadAndDeleteDocument(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	rider, err := repo.Create(ctx, Rider{FirstName: "Nico", LastName: "Ruiz", DNI: "39111222"})
	require.NoError(t, err)

	doc, err := svc.UploadDocument(ctx, rider.ID, DocMedicalCert, "Apto físico", "application/pdf", 4, strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NotZero(t, doc.ID)
	require.Contains(t, store.objects, doc.ObjectKey)

	url, err := svc.DocumentURL(ctx, doc.ID)
	require.NoError(t, err)
	require.Contains(t, url, doc.ObjectKey)

	require.NoError(t, svc.DeleteDocument(ctx, doc.ID))
	require.NotContains(t, store.objects, doc.ObjectKey)
	_, err = repo.GetDocument(ctx, doc.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUploadDocumentUnknownRider(t *testing.T) {
	svc, _, store := newTestService(t)
	_, err := svc.UploadDocument(context.Background(), 99, DocDNI, "DNI", "image/png", 3, strings.NewReader("png"))
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, store.objects)
}

func TestDeleteRiderRemovesObjects(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	rider, err := repo.Create(ctx, Rider{FirstName: "Vera", LastName: "Luna", DNI: "40555666"})
	require.NoError(t, err)
	_, err = svc.UploadDocument(ctx, rider.ID, DocOther, "Nota", "text/plain", 4, strings.NewReader("nota"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rider.ID))
	require.Empty(t, store.objects)
}
