package publications

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
	Table: "publications",
	Columns: map[string]string{
		"id":           "p.id",
		"title":        "p.title",
		"status":       "p.status",
		"author_id":    "p.author_id",
		"published_at": "p.published_at",
		"created_at":   "p.created_at",
	},
	DefaultOrder: []query.Order{{Field: "created_at", Dir: query.Desc}},
})

const selectPublication = `
	SELECT p.id, p.title, p.body, p.status, p.author_id, COALESCE(u.alias, ''), p.published_at, p.created_at, p.updated_at
	FROM publications p
	LEFT JOIN users u ON u.id = p.author_id`

// Repository defines persistence operations for publications.
type Repository interface {
	List(ctx context.Context, search query.Search) (query.Page[Publication], error)
	Get(ctx context.Context, id int64) (Publication, error)
	Create(ctx context.Context, p Publication) (Publication, error)
	Update(ctx context.Context, id int64, title, body string) error
	SetStatus(ctx context.Context, id int64, status string, publishedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search query.Search) (query.Page[Publication], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM publications p`
	listSQL := selectPublication
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Publication]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Publication]{}, err
	}
	defer rows.Close()

	items := make([]Publication, 0, f.Limit)
	for rows.Next() {
		var p Publication
		if err := scanPublication(rows, &p); err != nil {
			return query.Page[Publication]{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Publication]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Publication, error) {
	var p Publication
	err := scanPublication(r.pool.QueryRow(ctx, selectPublication+` WHERE p.id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Publication{}, shared.ErrNotFound
		}
		return Publication{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Publication) (Publication, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO publications (title, body, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`,
		p.Title, p.Body, p.Status, p.AuthorID, now,
	).Scan(&p.ID)
	if err != nil {
		return Publication{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, title, body string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publications SET title = $1, body = $2, updated_at = NOW() WHERE id = $3`,
		title, body, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string, publishedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publications SET status = $1, published_at = $2, updated_at = NOW() WHERE id = $3`,
		status, publishedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM publications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPublication(row pgx.Row, p *Publication) error {
	return row.Scan(&p.ID, &p.Title, &p.Body, &p.Status, &p.AuthorID, &p.AuthorAlias, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
}
