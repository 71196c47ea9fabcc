package messages

import (
	"context"
	"strings"
	"time"

	"github.com/estribo-center/estribo/internal/query"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, search query.Search) (query.Page[Message], error)
	Get(ctx context.Context, id int64) (Message, error)
	Create(ctx context.Context, m Message) (Message, error)
	Answer(ctx context.Context, id int64, answer string, answeredBy int64, answeredAt time.Time) error
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search query.Search) (query.Page[Message], error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Message, error) {
	return s.repo.Get(ctx, id)
}

// Submit records a new pending message from the public contact form.
func (s *Service) Submit(ctx context.Context, senderName, senderEmail, subject, body string) (Message, error) {
	return s.repo.Create(ctx, Message{
		SenderName:  strings.TrimSpace(senderName),
		SenderEmail: strings.ToLower(strings.TrimSpace(senderEmail)),
		Subject:     strings.TrimSpace(subject),
		Body:        strings.TrimSpace(body),
	})
}

// Answer stores the reply text and marks the message answered.
func (s *Service) Answer(ctx context.Context, id int64, answer string, answeredBy int64) error {
	return s.repo.Answer(ctx, id, strings.TrimSpace(answer), answeredBy, time.Now())
}

func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusArchived)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
