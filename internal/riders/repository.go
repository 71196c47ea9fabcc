package riders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estribo-center/estribo/internal/platform/db"
	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

var listSpec = query.MustSpec(query.Spec{
	Table: "riders",
	Columns: map[string]string{
		"id":                  "id",
		"first_name":          "first_name",
		"lastname":            "last_name",
		"dni":                 "dni",
		"email":               "email",
		"scholarship":         "scholarship",
		"has_disability_cert": "has_disability_cert",
		"is_archived":         "is_archived",
		"created_at":          "created_at",
	},
	DefaultOrder: []query.Order{{Field: "lastname", Dir: query.Asc}, {Field: "first_name", Dir: query.Asc}},
})

const selectRider = `
	SELECT id, first_name, last_name, dni, birth_date, phone, email, address, health_insurance, emergency_contact,
	       scholarship, has_disability_cert, diagnosis, is_archived, created_at, updated_at
	FROM riders`

// Repository defines persistence operations for riders, their
// documents and wizard drafts.
type Repository interface {
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

type repository struct {
	pool     *pgxpool.Pool
	archiver *shared.Archiver
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, archiver: shared.NewArchiver(pool)}
}

func (r *repository) List(ctx context.Context, search query.Search) (query.Page[Rider], error) {
	f := query.Build(listSpec, search)

	countSQL := `SELECT COUNT(*) FROM riders`
	listSQL := selectRider
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Rider]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Rider]{}, err
	}
	defer rows.Close()

	items := make([]Rider, 0, f.Limit)
	for rows.Next() {
		var rd Rider
		if err := scanRider(rows, &rd); err != nil {
			return query.Page[Rider]{}, err
		}
		items = append(items, rd)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Rider]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Rider, error) {
	var rd Rider
	err := scanRider(r.pool.QueryRow(ctx, selectRider+` WHERE id = $1`, id), &rd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rider{}, shared.ErrNotFound
		}
		return Rider{}, err
	}
	return rd, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRider(ctx context.Context, q rowQuerier, rd Rider) (Rider, error) {
	now := time.Now()
	err := q.QueryRow(ctx, `
		INSERT INTO riders (first_name, last_name, dni, birth_date, phone, email, address, health_insurance, emergency_contact,
		                    scholarship, has_disability_cert, diagnosis, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13, $13)
		RETURNING id`,
		rd.FirstName, rd.LastName, rd.DNI, rd.BirthDate, rd.Phone, rd.Email, rd.Address, rd.HealthInsurance, rd.EmergencyContact,
		rd.Scholarship, rd.HasDisabilityCert, rd.Diagnosis, now,
	).Scan(&rd.ID)
	if err != nil {
		return Rider{}, err
	}
	rd.CreatedAt = now
	rd.UpdatedAt = now
	return rd, nil
}

func (r *repository) Create(ctx context.Context, rd Rider) (Rider, error) {
	return insertRider(ctx, r.pool, rd)
}

// CreateFromDraft inserts the drafted rider and removes the draft in
// a single transaction, so a confirmed draft can never linger.
func (r *repository) CreateFromDraft(ctx context.Context, token uuid.UUID, rd Rider) (Rider, error) {
	var created Rider
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = insertRider(ctx, tx, rd)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM rider_drafts WHERE token = $1`, token)
		return err
	})
	if err != nil {
		return Rider{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, rd Rider) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE riders
		SET first_name = $1, last_name = $2, dni = $3, birth_date = $4, phone = $5, email = $6, address = $7,
		    health_insurance = $8, emergency_contact = $9, scholarship = $10, has_disability_cert = $11, diagnosis = $12,
		    updated_at = NOW()
		WHERE id = $13`,
		rd.FirstName, rd.LastName, rd.DNI, rd.BirthDate, rd.Phone, rd.Email, rd.Address,
		rd.HealthInsurance, rd.EmergencyContact, rd.Scholarship, rd.HasDisabilityCert, rd.Diagnosis, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.archiver.SetArchived(ctx, "riders", id, archived)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM riders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListDocuments(ctx context.Context, riderID int64) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, rider_id, kind, title, object_key, content_type, size_bytes, created_at
		FROM rider_documents
		WHERE rider_id = $1
		ORDER BY created_at DESC, id DESC`, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.RiderID, &d.Kind, &d.Title, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *repository) GetDocument(ctx context.Context, id int64) (Document, error) {
	var d Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, rider_id, kind, title, object_key, content_type, size_bytes, created_at
		FROM rider_documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.RiderID, &d.Kind, &d.Title, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

func (r *repository) CreateDocument(ctx context.Context, d Document) (Document, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rider_documents (rider_id, kind, title, object_key, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		d.RiderID, d.Kind, d.Title, d.ObjectKey, d.ContentType, d.SizeBytes, now,
	).Scan(&d.ID)
	if err != nil {
		return Document{}, err
	}
	d.CreatedAt = now
	return d, nil
}

func (r *repository) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rider_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetDraft(ctx context.Context, token uuid.UUID) (Draft, error) {
	var d Draft
	err := r.pool.QueryRow(ctx, `
		SELECT token, step, first_name, last_name, dni, birth_date, phone, email, address, health_insurance,
		       emergency_contact, scholarship, has_disability_cert, diagnosis, created_at, updated_at
		FROM rider_drafts WHERE token = $1`, token,
	).Scan(&d.Token, &d.Step, &d.Rider.FirstName, &d.Rider.LastName, &d.Rider.DNI, &d.Rider.BirthDate, &d.Rider.Phone,
		&d.Rider.Email, &d.Rider.Address, &d.Rider.HealthInsurance, &d.Rider.EmergencyContact, &d.Rider.Scholarship,
		&d.Rider.HasDisabilityCert, &d.Rider.Diagnosis, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		return Draft{}, err
	}
	return d, nil
}

func (r *repository) SaveDraft(ctx context.Context, d Draft) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rider_drafts (token, step, first_name, last_name, dni, birth_date, phone, email, address,
		                          health_insurance, emergency_contact, scholarship, has_disability_cert, diagnosis,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (token) DO UPDATE SET
			step = EXCLUDED.step,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			dni = EXCLUDED.dni,
			birth_date = EXCLUDED.birth_date,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			health_insurance = EXCLUDED.health_insurance,
			emergency_contact = EXCLUDED.emergency_contact,
			scholarship = EXCLUDED.scholarship,
			has_disability_cert = EXCLUDED.has_disability_cert,
			diagnosis = EXCLUDED.diagnosis,
			updated_at = NOW()`,
		d.Token, d.Step, d.Rider.FirstName, d.Rider.LastName, d.Rider.DNI, d.Rider.BirthDate, d.Rider.Phone,
		d.Rider.Email, d.Rider.Address, d.Rider.HealthInsurance, d.Rider.EmergencyContact, d.Rider.Scholarship,
		d.Rider.HasDisabilityCert, d.Rider.Diagnosis)
	return err
}

func (r *repository) DeleteDraft(ctx context.Context, token uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM rider_drafts WHERE token = $1`, token)
	return err
}

func scanRider(row pgx.Row, rd *Rider) error {
	return row.Scan(&rd.ID, &rd.FirstName, &rd.LastName, &rd.DNI, &rd.BirthDate, &rd.Phone, &rd.Email, &rd.Address,
		&rd.HealthInsurance, &rd.EmergencyContact, &rd.Scholarship, &rd.HasDisabilityCert, &rd.Diagnosis,
		&rd.IsArchived, &rd.CreatedAt, &rd.UpdatedAt)
}
