package publications

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[Publication], error)
	Get(ctx context.Context, id int64) (Publication, error)
	Create(ctx context.Context, p Publication) (Publication, error)
	Update(ctx context.Context, id int64, title, body string) error
	SetStatus(ctx context.Context, id int64, status string, publishedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

// AuditPort records who changed which publication.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64) {
	if s.audit == nil {
		return
	}
	var actor int64
	if sess := shared.SessionFromContext(ctx); sess != nil {
		actor, _ = strconv.ParseInt(sess.User(), 10, 64)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "publication",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Publication], error) {
	return s.repo.List(ctx, search)
}

// ListPublished is used by the public site; only published entries,
// newest first.
func (s *Service) ListPublished(ctx context.Context, page, perPage int) (query.Page[Publication], error) {
	return s.repo.List(ctx, query.Search{
		Filters: map[string]any{"status": StatusPublished},
		OrderBy: []query.Order{{Field: "published_at", Dir: query.Desc}},
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Service) Get(ctx context.Context, id int64) (Publication, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, title, body string, authorID *int64) (Publication, error) {
	return s.repo.Create(ctx, Publication{
		Title:    strings.TrimSpace(title),
		Body:     strings.TrimSpace(body),
		Status:   StatusDraft,
		AuthorID: authorID,
	})
}

func (s *Service) Update(ctx context.Context, id int64, title, body string) error {
	return s.repo.Update(ctx, id, strings.TrimSpace(title), strings.TrimSpace(body))
}

// Publish moves a draft to published and stamps the publish time.
// Archived entries must be restored to draft first.
func (s *Service) Publish(ctx context.Context, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusDraft {
		return ErrBadTransition
	}
	now := time.Now()
	if err := s.repo.SetStatus(ctx, id, StatusPublished, &now); err != nil {
		return err
	}
	s.recordAudit(ctx, "publication.publish", id)
	return nil
}

// Archive hides a published entry from the public site.
func (s *Service) Archive(ctx context.Context, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusPublished {
		return ErrBadTransition
	}
	if err := s.repo.SetStatus(ctx, id, StatusArchived, p.PublishedAt); err != nil {
		return err
	}
	s.recordAudit(ctx, "publication.archive", id)
	return nil
}

// Restore sends an archived entry back to draft.
func (s *Service) Restore(ctx context.Context, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusArchived {
		return ErrBadTransition
	}
	if err := s.repo.SetStatus(ctx, id, StatusDraft, nil); err != nil {
		return err
	}
	s.recordAudit(ctx, "publication.restore", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "publication.delete", id)
	return nil
}
