package horses

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
	Table: "horses",
	Columns: map[string]string{
		"id":           "id",
		"name":         "name",
		"breed":        "breed",
		"coat":         "coat",
		"sex":          "sex",
		"assigned_use": "assigned_use",
		"facility":     "facility",
		"is_archived":  "is_archived",
		"created_at":   "created_at",
	},
	DefaultOrder: []query.Order{{Field: "name", Dir: query.Asc}},
})

const selectHorse = `
	SELECT id, name, breed, coat, sex, birth_date, assigned_use, facility, notes, is_archived, created_at, updated_at
	FROM horses`

// Repository defines persistence operations for horses.
type Repository interface {
	List(ctx context.Context, search query.Search) (query.Page[Horse], error)
	Get(ctx context.Context, id int64) (Horse, error)
	Create(ctx context.Context, h Horse) (Horse, error)
	Update(ctx context.Context, id int64, h Horse) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool     *pgxpool.Pool
	archiver *shared.Archiver
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, archiver: shared.NewArchiver(pool)}
}

func (r *repository) List(ctx context.Context, search query.Search) (query.Page[Horse], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM horses`
	listSQL := selectHorse
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Horse]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Horse]{}, err
	}
	defer rows.Close()

	items := make([]Horse, 0, f.Limit)
	for rows.Next() {
		var h Horse
		if err := scanHorse(rows, &h); err != nil {
			return query.Page[Horse]{}, err
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Horse]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Horse, error) {
	var h Horse
	err := scanHorse(r.pool.QueryRow(ctx, selectHorse+` WHERE id = $1`, id), &h)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Horse{}, shared.ErrNotFound
		}
		return Horse{}, err
	}
	return h, nil
}

func (r *repository) Create(ctx context.Context, h Horse) (Horse, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO horses (name, breed, coat, sex, birth_date, assigned_use, facility, notes, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $9)
		RETURNING id`,
		h.Name, h.Breed, h.Coat, h.Sex, h.BirthDate, h.AssignedUse, h.Facility, h.Notes, now,
	).Scan(&h.ID)
	if err != nil {
		return Horse{}, err
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	return h, nil
}

func (r *repository) Update(ctx context.Context, id int64, h Horse) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE horses
		SET name = $1, breed = $2, coat = $3, sex = $4, birth_date = $5, assigned_use = $6, facility = $7, notes = $8, updated_at = NOW()
		WHERE id = $9`,
		h.Name, h.Breed, h.Coat, h.Sex, h.BirthDate, h.AssignedUse, h.Facility, h.Notes, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.archiver.SetArchived(ctx, "horses", id, archived)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM horses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanHorse(row pgx.Row, h *Horse) error {
	return row.Scan(&h.ID, &h.Name, &h.Breed, &h.Coat, &h.Sex, &h.BirthDate, &h.AssignedUse, &h.Facility, &h.Notes, &h.IsArchived, &h.CreatedAt, &h.UpdatedAt)
}
