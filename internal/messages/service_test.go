package messages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryMessagesRepo struct {
	messages map[int64]Message
	nextID   int64
}

func newMemoryMessagesRepo() *memoryMessagesRepo {
	return &memoryMessagesRepo{messages: map[int64]Message{}, nextID: 1}
}

func (m *memoryMessagesRepo) List(_ context.Context, search query.Search) (query.Page[Message], error) {
	var items []Message
	for _, msg := range m.messages {
		if status, ok := search.Filters["status"]; ok && msg.Status != status {
			continue
		}
		items = append(items, msg)
	}
	return query.Page[Message]{Items: items, Total: len(items), Page: 1, PerPage: 20}, nil
}

func (m *memoryMessagesRepo) Get(_ context.Context, id int64) (Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return Message{}, shared.ErrNotFound
	}
	return msg, nil
}

func (m *memoryMessagesRepo) Create(_ context.Context, msg Message) (Message, error) {
	msg.ID = m.nextID
	msg.Status = StatusPending
	msg.CreatedAt = time.Now()
	m.nextID++
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *memoryMessagesRepo) Answer(_ context.Context, id int64, answer string, answeredBy int64, answeredAt time.Time) error {
	msg, ok := m.messages[id]
	if !ok {
		return shared.ErrNotFound
	}
	msg.Answer = answer
	msg.AnsweredBy = &answeredBy
	msg.AnsweredAt = &answeredAt
	msg.Status = StatusAnswered
	m.messages[id] = msg
	return nil
}

func (m *memoryMessagesRepo) SetStatus(_ context.Context, id int64, status string) error {
	msg, ok := m.messages[id]
	if !ok {
		return shared.ErrNotFound
	}
	msg.Status = status
	m.messages[id] = msg
	return nil
}

func (m *memoryMessagesRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.messages[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

func TestSubmitCreatesPending(t *testing.T) {
	svc := NewService(newMemoryMessagesRepo())
	msg, err := svc.Submit(context.Background(), "  Ana Paz ", " Ana@Mail.COM ", " Consulta ", " ¿Atienden sábados? ")
	require.NoError(t, err)
	require.Equal(t, StatusPending, msg.Status)
	require.Equal(t, "Ana Paz", msg.SenderName)
	require.Equal(t, "ana@mail.com", msg.SenderEmail)
	require.Equal(t, "¿Atienden sábados?", msg.Body)
}

func TestAnswerMarksAnswered(t *testing.T) {
	repo := newMemoryMessagesRepo()
	svc := NewService(repo)
	msg, err := svc.Submit(context.Background(), "Ana", "ana@mail.com", "Consulta", "Hola")
	require.NoError(t, err)

	require.NoError(t, svc.Answer(context.Background(), msg.ID, "Sí, de 9 a 13.", 3))
	got, err := svc.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAnswered, got.Status)
	require.Equal(t, "Sí, de 9 a 13.", got.Answer)
	require.Equal(t, int64(3), *got.AnsweredBy)
	require.NotNil(t, got.AnsweredAt)
}

func TestArchiveAndDelete(t *testing.T) {
	repo := newMemoryMessagesRepo()
	svc := NewService(repo)
	msg, err := svc.Submit(context.Background(), "Ana", "ana@mail.com", "Consulta", "Hola")
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), msg.ID))
	got, err := svc.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, StatusArchived, got.Status)

	require.NoError(t, svc.Delete(context.Background(), msg.ID))
	_, err = svc.Get(context.Background(), msg.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAnswerMissingMessage(t *testing.T) {
	svc := NewService(newMemoryMessagesRepo())
	require.ErrorIs(t, svc.Answer(context.Background(), 44, "hola", 1), shared.ErrNotFound)
}
