package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type CashRegisterRepository struct {
	pool *db.Pool
}

func NewCashRegisterRepository(pool *db.Pool) *CashRegisterRepository {
	return &CashRegisterRepository{pool: pool}
}

const registerColumns = `id::text, opened_by, opening_cents, closing_cents, opened_at, closed_at`

func scanRegister(row pgx.Row) (model.CashRegister, error) {
	var reg model.CashRegister
	err := row.Scan(&reg.ID, &reg.OpenedBy, &reg.OpeningCents, &reg.ClosingCents, &reg.OpenedAt, &reg.ClosedAt)
	return reg, err
}

// Open starts a new register session. A partial unique index on open
// registers makes a second concurrent open fail with a unique violation.
func (r *CashRegisterRepository) Open(ctx context.Context, openedBy string, openingCents int64) (model.CashRegister, error) {
	if _, err := r.CurrentOpen(ctx); err == nil {
		return model.CashRegister{}, ErrConflict
	} else if !IsNotFound(err) {
		return model.CashRegister{}, err
	}

	id := uuid.NewString()
	reg, err := scanRegister(r.pool.QueryRow(ctx, `
		INSERT INTO cash_registers (id, opened_by, opening_cents)
		VALUES ($1, $2, $3)
		RETURNING `+registerColumns+`
	`, id, openedBy, openingCents))
	if err != nil {
		return model.CashRegister{}, err
	}
	return reg, nil
}

func (r *CashRegisterRepository) CurrentOpen(ctx context.Context) (model.CashRegister, error) {
	reg, err := scanRegister(r.pool.QueryRow(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE closed_at IS NULL
		ORDER BY opened_at DESC
		LIMIT 1
	`))
	if err != nil {
		return model.CashRegister{}, notFoundOr(err)
	}
	return reg, nil
}

// Close computes the closing balance (opening + income - expense) and seals
// the session.
func (r *CashRegisterRepository) Close(ctx context.Context, id string) (model.CashRegister, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.CashRegister{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reg, err := scanRegister(tx.QueryRow(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return model.CashRegister{}, notFoundOr(err)
	}
	if reg.ClosedAt != nil {
		return model.CashRegister{}, ErrConflict
	}

	var income, expense int64
	err = tx.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE entry_type = 'income'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE entry_type = 'expense'), 0)
		FROM cash_entries
		WHERE register_id = $1
	`, id).Scan(&income, &expense)
	if err != nil {
		return model.CashRegister{}, err
	}

	closing := reg.OpeningCents + income - expense
	reg, err = scanRegister(tx.QueryRow(ctx, `
		UPDATE cash_registers
		SET closed_at = now(), closing_cents = $2
		WHERE id = $1
		RETURNING `+registerColumns+`
	`, id, closing))
	if err != nil {
		return model.CashRegister{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.CashRegister{}, err
	}
	return reg, nil
}

// AddEntry records a manual income/expense entry against the open register.
func (r *CashRegisterRepository) AddEntry(ctx context.Context, e *model.CashEntry) (string, error) {
	reg, err := r.CurrentOpen(ctx)
	if err != nil {
		return "", err
	}
	e.RegisterID = reg.ID
	e.ID = uuid.NewString()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO cash_entries (id, register_id, entry_type, amount_cents, description, sale_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
	`, e.ID, e.RegisterID, e.Type, e.AmountCents, e.Description, e.SaleID)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (r *CashRegisterRepository) ListEntries(ctx context.Context, registerID string, limit int) ([]model.CashEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, register_id::text, entry_type, amount_cents, description, COALESCE(sale_id::text, ''), created_at
		FROM cash_entries
		WHERE register_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, registerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CashEntry
	for rows.Next() {
		var e model.CashEntry
		if err := rows.Scan(&e.ID, &e.RegisterID, &e.Type, &e.AmountCents, &e.Description, &e.SaleID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
