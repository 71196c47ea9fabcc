package messages

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

var listSpec = query.MustSpec(query.Spec{
	Table: "contact_messages",
	Columns: map[string]string{
		"id":           "id",
		"sender_name":  "sender_name",
		"sender_email": "sender_email",
		"subject":      "subject",
		"status":       "status",
		"created_at":   "created_at",
	},
	DefaultOrder: []query.Order{{Field: "created_at", Dir: query.Desc}},
})

const selectMessage = `
	SELECT id, sender_name, sender_email, subject, body, status, answer, answered_by, answered_at, created_at
	FROM contact_messages`

// Repository defines persistence operations for contact messages.
type Repository interface {
	List(ctx context.Context, search query.Search) (query.Page[Message], error)
	Get(ctx context.Context, id int64) (Message, error)
	Create(ctx context.Context, m Message) (Message, error)
	Answer(ctx context.Context, id int64, answer string, answeredBy int64, answeredAt time.Time) error
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search query.Search) (query.Page[Message], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM contact_messages`
	listSQL := selectMessage
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Message]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Message]{}, err
	}
	defer rows.Close()

	items := make([]Message, 0, f.Limit)
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return query.Page[Message]{}, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Message]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Message, error) {
	var m Message
	err := scanMessage(r.pool.QueryRow(ctx, selectMessage+` WHERE id = $1`, id), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, shared.ErrNotFound
		}
		return Message{}, err
	}
	return m, nil
}

func (r *repository) Create(ctx context.Context, m Message) (Message, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contact_messages (sender_name, sender_email, subject, body, status, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, '', $6)
		RETURNING id`,
		m.SenderName, m.SenderEmail, m.Subject, m.Body, StatusPending, now,
	).Scan(&m.ID)
	if err != nil {
		return Message{}, err
	}
	m.Status = StatusPending
	m.CreatedAt = now
	return m, nil
}

func (r *repository) Answer(ctx context.Context, id int64, answer string, answeredBy int64, answeredAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contact_messages
		SET answer = $1, answered_by = $2, answered_at = $3, status = $4
		WHERE id = $5`,
		answer, answeredBy, answeredAt, StatusAnswered, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contact_messages SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMessage(row pgx.Row, m *Message) error {
	return row.Scan(&m.ID, &m.SenderName, &m.SenderEmail, &m.Subject, &m.Body, &m.Status, &m.Answer, &m.AnsweredBy, &m.AnsweredAt, &m.CreatedAt)
}
