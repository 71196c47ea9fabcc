package riders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estribo-center/estribo/internal/platform/storage"
	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[Rider], error)
	Get(ctx context.Context, id int64) (Rider, error)
	Create(ctx context.Context, rd Rider) (Rider, error)
	CreateFromDraft(ctx context.Context, token uuid.UUID, rd Rider) (Rider, error)
	Update(ctx context.Context, id int64, rd Rider) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error

	ListDocuments(ctx context.Context, riderID int64) ([]Document, error)
	GetDocument(ctx context.Context, id int64) (Document, error)
	CreateDocument(ctx context.Context, d Document) (Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	GetDraft(ctx context.Context, token uuid.UUID) (Draft, error)
	SaveDraft(ctx context.Context, d Draft) error
	DeleteDraft(ctx context.Context, token uuid.UUID) error
}

type Service struct {
	repo   RepositoryPort
	store  storage.ObjectStore
	logger *slog.Logger
}

func NewService(repo RepositoryPort, store storage.ObjectStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Rider], error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Rider, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, rd Rider) error {
	normalize(&rd)
	return s.repo.Update(ctx, id, rd)
}

func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, true)
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetArchived(ctx, id, false)
}

// Delete removes a rider together with the stored documents. Object
// deletions that fail are logged and skipped so the database row never
// outlives the decision to remove it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	docs, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.ObjectKey); err != nil {
			s.logger.Warn("delete rider document object", slog.String("key", d.ObjectKey), slog.Any("error", err))
		}
	}
	return s.repo.Delete(ctx, id)
}

// StartDraft opens a new wizard draft and returns its token.
func (s *Service) StartDraft(ctx context.Context) (Draft, error) {
	d := Draft{Token: uuid.New(), Step: StepIdentity}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Draft loads an in-progress draft, returning ErrDraftNotFound for an
// unknown or expired token.
func (s *Service) Draft(ctx context.Context, token uuid.UUID) (Draft, error) {
	return s.repo.GetDraft(ctx, token)
}

// SaveIdentity stores the first wizard step and advances the draft.
func (s *Service) SaveIdentity(ctx context.Context, token uuid.UUID, rd Rider) (Draft, error) {
	d, err := s.repo.GetDraft(ctx, token)
	if err != nil {
		return Draft{}, err
	}
	d.Rider.FirstName = rd.FirstName
	d.Rider.LastName = rd.LastName
	d.Rider.DNI = rd.DNI
	d.Rider.BirthDate = rd.BirthDate
	d.Rider.Phone = rd.Phone
	d.Rider.Email = rd.Email
	d.Rider.Address = rd.Address
	if d.Step < StepHealth {
		d.Step = StepHealth
	}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// SaveHealth stores the second wizard step and advances the draft.
func (s *Service) SaveHealth(ctx context.Context, token uuid.UUID, rd Rider) (Draft, error) {
	d, err := s.repo.GetDraft(ctx, token)
	if err != nil {
		return Draft{}, err
	}
	d.Rider.HealthInsurance = rd.HealthInsurance
	d.Rider.EmergencyContact = rd.EmergencyContact
	d.Rider.Scholarship = rd.Scholarship
	d.Rider.HasDisabilityCert = rd.HasDisabilityCert
	d.Rider.Diagnosis = rd.Diagnosis
	if d.Step < StepConfirm {
		d.Step = StepConfirm
	}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Confirm persists the drafted rider and discards the draft.
func (s *Service) Confirm(ctx context.Context, token uuid.UUID) (Rider, error) {
	d, err := s.repo.GetDraft(ctx, token)
	if err != nil {
		return Rider{}, err
	}
	rd := d.Rider
	normalize(&rd)
	created, err := s.repo.CreateFromDraft(ctx, token, rd)
	if err != nil {
		return Rider{}, err
	}
	return created, nil
}

// Abandon discards an in-progress draft.
func (s *Service) Abandon(ctx context.Context, token uuid.UUID) error {
	return s.repo.DeleteDraft(ctx, token)
}

func (s *Service) Documents(ctx context.Context, riderID int64) ([]Document, error) {
	return s.repo.ListDocuments(ctx, riderID)
}

// UploadDocument streams body into the object store and records the
// document row. The object key is namespaced per rider.
func (s *Service) UploadDocument(ctx context.Context, riderID int64, kind, title, contentType string, size int64, body io.Reader) (Document, error) {
	if _, err := s.repo.Get(ctx, riderID); err != nil {
		return Document{}, err
	}
	key := fmt.Sprintf("riders/%d/%s", riderID, uuid.New().String())
	if err := s.store.Upload(ctx, key, contentType, body); err != nil {
		return Document{}, err
	}
	doc, err := s.repo.CreateDocument(ctx, Document{
		RiderID:     riderID,
		Kind:        kind,
		Title:       strings.TrimSpace(title),
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   size,
	})
	if err != nil {
		// keep the bucket consistent with the failed insert
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("rollback document object", slog.String("key", key), slog.Any("error", delErr))
		}
		return Document{}, err
	}
	return doc, nil
}

// DocumentURL returns a short-lived download link for a document.
func (s *Service) DocumentURL(ctx context.Context, id int64) (string, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(doc.ObjectKey, 15*time.Minute)
}

func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.ObjectKey); err != nil {
		return err
	}
	return s.repo.DeleteDocument(ctx, id)
}

func normalize(rd *Rider) {
	rd.FirstName = strings.TrimSpace(rd.FirstName)
	rd.LastName = strings.TrimSpace(rd.LastName)
	rd.DNI = strings.TrimSpace(rd.DNI)
	rd.Email = strings.ToLower(strings.TrimSpace(rd.Email))
	rd.Phone = strings.TrimSpace(rd.Phone)
	rd.Address = strings.TrimSpace(rd.Address)
	rd.HealthInsurance = strings.TrimSpace(rd.HealthInsurance)
	rd.EmergencyContact = strings.TrimSpace(rd.EmergencyContact)
	rd.Diagnosis = strings.TrimSpace(rd.Diagnosis)
}
