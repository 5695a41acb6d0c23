package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type SaleRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewSaleRepository(pool *db.Pool, outboxRepo *outbox.Repository) *SaleRepository {
	return &SaleRepository{pool: pool, outbox: outboxRepo}
}

// RecordSale persists the sale, its items, product stock decrements and the
// optional cash entry / receivable in a single transaction. Product items
// with insufficient stock abort with ErrInsufficientStock.
func (r *SaleRepository) RecordSale(ctx context.Context, sale *model.Sale, entry *model.CashEntry, recv *model.Receivable, evt outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sales (id, customer_id, register_id, payment_method, total_cents, payment_ref)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6)
	`, sale.ID, sale.CustomerID, sale.RegisterID, sale.PaymentMethod, sale.TotalCents, sale.PaymentRef)
	if err != nil {
		return err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.ID = uuid.NewString()
		item.SaleID = sale.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, kind, ref_id, description, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.SaleID, item.Kind, item.RefID, item.Description, item.Quantity, item.UnitPriceCents); err != nil {
			return err
		}

		if item.Kind != model.ItemProduct {
			continue
		}
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity - $2
			WHERE id = $1 AND quantity >= $2
		`, item.RefID, item.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_movements (id, product_id, movement_type, quantity, reason)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), item.RefID, model.MovementOut, -item.Quantity, "sale "+sale.ID); err != nil {
			return err
		}
	}

	if entry != nil {
		entry.ID = uuid.NewString()
		entry.SaleID = sale.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO cash_entries (id, register_id, entry_type, amount_cents, description, sale_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, entry.ID, entry.RegisterID, entry.Type, entry.AmountCents, entry.Description, entry.SaleID); err != nil {
			return err
		}
	}

	if recv != nil {
		recv.ID = uuid.NewString()
		recv.SaleID = sale.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO receivables (id, customer_id, sale_id, description, amount_cents, due_date)
			VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6)
		`, recv.ID, recv.CustomerID, recv.SaleID, recv.Description, recv.AmountCents, recv.DueDate); err != nil {
			return err
		}
	}

	evt.AggregateID = sale.ID
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *SaleRepository) Get(ctx context.Context, id string) (model.Sale, error) {
	var s model.Sale
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, COALESCE(customer_id::text, ''), COALESCE(register_id::text, ''),
			payment_method, total_cents, payment_ref, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&s.ID, &s.CustomerID, &s.RegisterID, &s.PaymentMethod, &s.TotalCents, &s.PaymentRef, &s.CreatedAt)
	if err != nil {
		return model.Sale{}, notFoundOr(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sale_id::text, kind, ref_id::text, description, quantity, unit_price_cents
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return model.Sale{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item model.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.Kind, &item.RefID, &item.Description, &item.Quantity, &item.UnitPriceCents); err != nil {
			return model.Sale{}, err
		}
		s.Items = append(s.Items, item)
	}
	if rows.Err() != nil {
		return model.Sale{}, rows.Err()
	}
	return s, nil
}

func (r *SaleRepository) ListByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Sale, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, COALESCE(customer_id::text, ''), COALESCE(register_id::text, ''),
			payment_method, total_cents, payment_ref, created_at
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sale
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.RegisterID, &s.PaymentMethod, &s.TotalCents, &s.PaymentRef, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
