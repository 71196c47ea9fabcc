package payments

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
	Table: "payments",
	Columns: map[string]string{
		"id":              "p.id",
		"payment_type":    "p.payment_type",
		"date_of_payment": "p.date_of_payment",
		"amount":          "p.amount",
		"beneficiary":     "p.beneficiary",
		"employee_id":     "p.employee_id",
	},
	DefaultOrder: []query.Order{{Field: "date_of_payment", Dir: query.Desc}, {Field: "id", Dir: query.Asc}},
})

const selectPayment = `
	SELECT p.id, p.payment_type, p.date_of_payment, p.amount, p.beneficiary, p.employee_id,
	       COALESCE(e.last_name || ', ' || e.first_name, ''), p.concept, p.created_at, p.updated_at
	FROM payments p
	LEFT JOIN employees e ON e.id = p.employee_id`

// Repository defines persistence operations for payments.
type Repository interface {
	List(ctx context.Context, search query.Search, from, to *time.Time) (query.Page[Payment], error)
	Get(ctx context.Context, id int64) (Payment, error)
	Create(ctx context.Context, p Payment) (Payment, error)
	Update(ctx context.Context, id int64, p Payment) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search query.Search, from, to *time.Time) (query.Page[Payment], error) {
	f := query.Build(listSpec, search)
	if from != nil {
		f.And("p.date_of_payment >= ?", *from)
	}
	if to != nil {
		f.And("p.date_of_payment <= ?", *to)
	}

	countSQL := `SELECT COUNT(*) FROM payments p`
	listSQL := selectPayment
	if f.Where != "" {
		countSQL += " WHERE " + f.Where
		listSQL += " WHERE " + f.Where
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, f.Args...).Scan(&total); err != nil {
		return query.Page[Payment]{}, err
	}

	listSQL += " ORDER BY " + f.Order + f.LimitOffset()
	rows, err := r.pool.Query(ctx, listSQL, f.Args...)
	if err != nil {
		return query.Page[Payment]{}, err
	}
	defer rows.Close()

	items := make([]Payment, 0, f.Limit)
	for rows.Next() {
		var p Payment
		if err := scanPayment(rows, &p); err != nil {
			return query.Page[Payment]{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return query.Page[Payment]{}, err
	}
	return query.NewPage(items, total, f), nil
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := scanPayment(r.pool.QueryRow(ctx, selectPayment+` WHERE p.id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Payment) (Payment, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (payment_type, date_of_payment, amount, beneficiary, employee_id, concept, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`,
		p.PaymentType, p.DateOfPayment, p.Amount, p.Beneficiary, p.EmployeeID, p.Concept, now,
	).Scan(&p.ID)
	if err != nil {
		return Payment{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Payment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET payment_type = $1, date_of_payment = $2, amount = $3, beneficiary = $4, employee_id = $5, concept = $6, updated_at = NOW()
		WHERE id = $7`,
		p.PaymentType, p.DateOfPayment, p.Amount, p.Beneficiary, p.EmployeeID, p.Concept, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(&p.ID, &p.PaymentType, &p.DateOfPayment, &p.Amount, &p.Beneficiary, &p.EmployeeID, &p.EmployeeName, &p.Concept, &p.CreatedAt, &p.UpdatedAt)
}
