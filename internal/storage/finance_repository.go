package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type FinanceRepository struct {
	pool *db.Pool
}

func NewFinanceRepository(pool *db.Pool) *FinanceRepository {
	return &FinanceRepository{pool: pool}
}

func (r *FinanceRepository) CreatePayable(ctx context.Context, p *model.Payable) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payables (id, description, supplier, category, amount_cents, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, p.Description, p.Supplier, p.Category, p.AmountCents, p.DueDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *FinanceRepository) ListPayables(ctx context.Context, openOnly bool, limit int) ([]model.Payable, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, description, supplier, category, amount_cents, due_date, paid_at, created_at
		FROM payables
		WHERE ($1 = false OR paid_at IS NULL)
		ORDER BY due_date ASC
		LIMIT $2
	`, openOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payable
	for rows.Next() {
		var p model.Payable
		if err := rows.Scan(&p.ID, &p.Description, &p.Supplier, &p.Category, &p.AmountCents, &p.DueDate, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// SettlePayable marks the bill paid. Settling twice is a conflict.
func (r *FinanceRepository) SettlePayable(ctx context.Context, id string) (time.Time, error) {
	var paidAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE payables
		SET paid_at = now()
		WHERE id = $1 AND paid_at IS NULL
		RETURNING paid_at
	`, id).Scan(&paidAt)
	if err == pgx.ErrNoRows {
		var exists bool
		if probeErr := r.pool.QueryRow(ctx, `
			SELECT true FROM payables WHERE id = $1
		`, id).Scan(&exists); probeErr == nil {
			return time.Time{}, ErrConflict
		}
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return paidAt, nil
}

func (r *FinanceRepository) CreateReceivable(ctx context.Context, rv *model.Receivable) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO receivables (id, customer_id, sale_id, description, amount_cents, due_date)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6)
	`, id, rv.CustomerID, rv.SaleID, rv.Description, rv.AmountCents, rv.DueDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *FinanceRepository) ListReceivables(ctx context.Context, openOnly bool, limit int) ([]model.Receivable, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, COALESCE(customer_id::text, ''), COALESCE(sale_id::text, ''),
			description, amount_cents, due_date, received_at, created_at
		FROM receivables
		WHERE ($1 = false OR received_at IS NULL)
		ORDER BY due_date ASC
		LIMIT $2
	`, openOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Receivable
	for rows.Next() {
		var rv model.Receivable
		if err := rows.Scan(&rv.ID, &rv.CustomerID, &rv.SaleID, &rv.Description, &rv.AmountCents, &rv.DueDate, &rv.ReceivedAt, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *FinanceRepository) SettleReceivable(ctx context.Context, id string) (time.Time, error) {
	var receivedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE receivables
		SET received_at = now()
		WHERE id = $1 AND received_at IS NULL
		RETURNING received_at
	`, id).Scan(&receivedAt)
	if err == pgx.ErrNoRows {
		var exists bool
		if probeErr := r.pool.QueryRow(ctx, `
			SELECT true FROM receivables WHERE id = $1
		`, id).Scan(&exists); probeErr == nil {
			return time.Time{}, ErrConflict
		}
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return receivedAt, nil
}
