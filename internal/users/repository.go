package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

var listSpec = query.MustSpec(query.Spec{
	Table: "users",
	Columns: map[string]string{
		"id":         "u.id",
		"email":      "u.email",
		"alias":      "u.alias",
		"is_active":  "u.is_active",
		"role_id":    "u.role_id",
		"created_at": "u.created_at",
	},
	DefaultOrder: []query.Order{{Field: "email", Dir: query.Asc}},
})

const selectUser = `
	SELECT u.id, u.email, u.alias, u.is_active, u.is_system_admin, u.role_id, COALESCE(r.name, ''), u.created_at, u.updated_at
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a filtered page of users.
func (r *Repository) List(ctx context.Context, search query.Search) (query.Page[User], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM users u`
	listSQL := selectUser
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[User]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[User]{}, err
	}
	defer rows.Close()

	users := make([]User, 0, f.Limit)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Alias, &user.IsActive, &user.IsSystemAdmin, &user.RoleID, &user.RoleName, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return query.Page[User]{}, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return query.Page[User]{}, err
	}
	return query.NewPage(users, total, f), nil
}

// Get fetches one user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Alias, &user.IsActive, &user.IsSystemAdmin, &user.RoleID, &user.RoleName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Create inserts an admin-created account.
func (r *Repository) Create(ctx context.Context, email, alias, passwordHash string, roleID *int64) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, alias, password_hash, is_active, is_system_admin, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, FALSE, $4, NOW(), NOW())
		RETURNING id`, email, alias, passwordHash, roleID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return r.Get(ctx, id)
}

// Update changes the profile fields and role of a user.
func (r *Repository) Update(ctx context.Context, id int64, alias string, roleID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET alias = $1, role_id = $2, updated_at = NOW() WHERE id = $3`, alias, roleID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive writes the enabled flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
