package staff

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
	Table: "employees",
	Columns: map[string]string{
		"id":          "id",
		"first_name":  "first_name",
		"lastname":    "last_name",
		"dni":         "dni",
		"email":       "email",
		"position":    "position",
		"profession":  "profession",
		"is_archived": "is_archived",
		"start_date":  "start_date",
		"created_at":  "created_at",
	},
	DefaultOrder: []query.Order{{Field: "lastname", Dir: query.Asc}, {Field: "first_name", Dir: query.Asc}},
})

const selectEmployee = `
	SELECT id, first_name, last_name, dni, email, phone, position, profession, start_date, end_date, is_archived, created_at, updated_at
	FROM employees`

// Repository defines persistence operations for staff.
type Repository interface {
	List(ctx context.Context, search query.Search) (query.Page[Employee], error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, id int64, e Employee) error
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

func (r *repository) List(ctx context.Context, search query.Search) (query.Page[Employee], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM employees`
	listSQL := selectEmployee
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Employee]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Employee]{}, err
	}
	defer rows.Close()

	items := make([]Employee, 0, f.Limit)
	for rows.Next() {
		var e Employee
		if err := scanEmployee(rows, &e); err != nil {
			return query.Page[Employee]{}, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Employee]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := scanEmployee(r.pool.QueryRow(ctx, selectEmployee+` WHERE id = $1`, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, shared.ErrNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, e Employee) (Employee, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (first_name, last_name, dni, email, phone, position, profession, start_date, end_date, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $10)
		RETURNING id`,
		e.FirstName, e.LastName, e.DNI, e.Email, e.Phone, e.Position, e.Profession, e.StartDate, e.EndDate, now,
	).Scan(&e.ID)
	if err != nil {
		return Employee{}, err
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return e, nil
}

func (r *repository) Update(ctx context.Context, id int64, e Employee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET first_name = $1, last_name = $2, dni = $3, email = $4, phone = $5, position = $6, profession = $7, start_date = $8, end_date = $9, updated_at = NOW()
		WHERE id = $10`,
		e.FirstName, e.LastName, e.DNI, e.Email, e.Phone, e.Position, e.Profession, e.StartDate, e.EndDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.archiver.SetArchived(ctx, "employees", id, archived)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row, e *Employee) error {
	return row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.DNI, &e.Email, &e.Phone, &e.Position, &e.Profession, &e.StartDate, &e.EndDate, &e.IsArchived, &e.CreatedAt, &e.UpdatedAt)
}
