package charges

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
	Table: "charges",
	Columns: map[string]string{
		"id":             "c.id",
		"rider_id":       "c.rider_id",
		"date_of_charge": "c.date_of_charge",
		"amount":         "c.amount",
		"payment_method": "c.payment_method",
		"concept":        "c.concept",
		"receipt_number": "c.receipt_number",
	},
	DefaultOrder: []query.Order{{Field: "date_of_charge", Dir: query.Desc}, {Field: "id", Dir: query.Asc}},
})

const selectCharge = `
	SELECT c.id, c.rider_id, r.last_name || ', ' || r.first_name, c.date_of_charge, c.amount, c.payment_method,
	       c.concept, c.receipt_number, c.created_at, c.updated_at
	FROM charges c
	JOIN riders r ON r.id = c.rider_id`

// Repository defines persistence operations for charges.
type Repository interface {
	List(ctx context.Context, search query.Search, pf Prefilter) (query.Page[Charge], error)
	Get(ctx context.Context, id int64) (Charge, error)
	Create(ctx context.Context, c Charge) (Charge, error)
	Update(ctx context.Context, id int64, c Charge) error
	Delete(ctx context.Context, id int64) error
	RiderIDsByName(ctx context.Context, name string) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search query.Search, pf Prefilter) (query.Page[Charge], error) {
	search.Filters = pf.Filters
	f := query.Build(listSpec, search)
	if pf.DateFrom != nil {
		f.And("c.date_of_charge >= ?", *pf.DateFrom)
	}
	if pf.DateTo != nil {
		f.And("c.date_of_charge <= ?", *pf.DateTo)
	}
	if pf.RiderIDs != nil {
		f.And("c.rider_id = ANY(?)", pf.RiderIDs)
	}

	countSQL := `SELECT COUNT(*) FROM charges c JOIN riders r ON r.id = c.rider_id`
	listSQL := selectCharge
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Charge]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Charge]{}, err
	}
	defer rows.Close()

	items := make([]Charge, 0, f.Limit)
	for rows.Next() {
		var c Charge
		if err := scanCharge(rows, &c); err != nil {
			return query.Page[Charge]{}, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Charge]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Charge, error) {
	var c Charge
	err := scanCharge(r.pool.QueryRow(ctx, selectCharge+` WHERE c.id = $1`, id), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Charge{}, shared.ErrNotFound
		}
		return Charge{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Charge) (Charge, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO charges (rider_id, date_of_charge, amount, payment_method, concept, receipt_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`,
		c.RiderID, c.DateOfCharge, c.Amount, c.PaymentMethod, c.Concept, c.ReceiptNumber, now,
	).Scan(&c.ID)
	if err != nil {
		return Charge{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, c Charge) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE charges
		SET rider_id = $1, date_of_charge = $2, amount = $3, payment_method = $4, concept = $5, receipt_number = $6, updated_at = NOW()
		WHERE id = $7`,
		c.RiderID, c.DateOfCharge, c.Amount, c.PaymentMethod, c.Concept, c.ReceiptNumber, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM charges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RiderIDsByName resolves a payer name into the matching rider ids.
func (r *repository) RiderIDsByName(ctx context.Context, name string) ([]int64, error) {
	pattern := "%" + query.EscapeLike(name) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM riders
		WHERE first_name ILIKE $1 OR last_name ILIKE $1`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCharge(row pgx.Row, c *Charge) error {
	return row.Scan(&c.ID, &c.RiderID, &c.RiderName, &c.DateOfCharge, &c.Amount, &c.PaymentMethod, &c.Concept, &c.ReceiptNumber, &c.CreatedAt, &c.UpdatedAt)
}
