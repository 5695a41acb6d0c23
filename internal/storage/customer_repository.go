package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type CustomerRepository struct {
	pool *db.Pool
}

func NewCustomerRepository(pool *db.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id::text, name, email, phone, birth_date, notes, active, created_at`

func scanCustomer(row pgx.Row) (model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.BirthDate, &c.Notes, &c.Active, &c.CreatedAt)
	return c, err
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, name, email, phone, birth_date, notes, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, id, c.Name, c.Email, c.Phone, c.BirthDate, c.Notes)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Customer{}, notFoundOr(err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context, activeOnly bool, limit int) ([]model.Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1 = false OR active)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, birth_date = $5, notes = $6, active = $7
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.BirthDate, c.Notes, c.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-disables the customer; appointments and sales keep their
// references.
func (r *CustomerRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET active = false WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
