package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type ProductRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewProductRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ProductRepository {
	return &ProductRepository{pool: pool, outbox: outboxRepo}
}

const productColumns = `id::text, name, description, price_cents, cost_cents, quantity, min_quantity, active, created_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.CostCents, &p.Quantity, &p.MinQuantity, &p.Active, &p.CreatedAt)
	return p, err
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, price_cents, cost_cents, quantity, min_quantity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
	`, id, p.Name, p.Description, p.PriceCents, p.CostCents, p.Quantity, p.MinQuantity)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Product{}, notFoundOr(err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, activeOnly bool, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = false OR active)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price_cents = $4, cost_cents = $5, min_quantity = $6, active = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.PriceCents, p.CostCents, p.MinQuantity, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordMovement applies a stock delta and the movement row atomically.
// The quantity guard rejects movements that would drive stock negative.
// Crossing below min_quantity emits a low-stock event in the same
// transaction.
func (r *ProductRepository) RecordMovement(ctx context.Context, m *model.StockMovement) (model.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p model.Product
	p, err = scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+productColumns+`
	`, m.ProductID, m.Quantity))
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either the product is missing or the delta would go negative.
			if _, getErr := r.Get(ctx, m.ProductID); IsNotFound(getErr) {
				return model.Product{}, ErrNotFound
			}
			return model.Product{}, ErrInsufficientStock
		}
		return model.Product{}, err
	}

	m.ID = uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, movement_type, quantity, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ProductID, m.Type, m.Quantity, m.Reason); err != nil {
		return model.Product{}, err
	}

	if p.Quantity < p.MinQuantity {
		payload, err := json.Marshal(map[string]any{
			"product_id":   p.ID,
			"name":         p.Name,
			"quantity":     p.Quantity,
			"min_quantity": p.MinQuantity,
		})
		if err != nil {
			return model.Product{}, fmt.Errorf("build low-stock payload: %w", err)
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "product",
			AggregateID:   p.ID,
			EventType:     outbox.EventStockLow,
			Payload:       payload,
		}); err != nil {
			return model.Product{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductRepository) ListMovements(ctx context.Context, productID string, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, product_id::text, movement_type, quantity, reason, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StockMovement
	for rows.Next() {
		var m model.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
