package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = `id::text, name, description, price_cents, duration_minutes, active, created_at`

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.DurationMinutes, &s.Active, &s.CreatedAt)
	return s, err
}

func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, description, price_cents, duration_minutes, active)
		VALUES ($1, $2, $3, $4, $5, true)
	`, id, s.Name, s.Description, s.PriceCents, s.DurationMinutes)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ServiceRepository) Get(ctx context.Context, id string) (model.Service, error) {
	s, err := scanService(r.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Service{}, notFoundOr(err)
	}
	return s, nil
}

func (r *ServiceRepository) List(ctx context.Context, activeOnly bool, limit int) ([]model.Service, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE ($1 = false OR active)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ServiceRepository) Update(ctx context.Context, s *model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2, description = $3, price_cents = $4, duration_minutes = $5, active = $6
		WHERE id = $1
	`, s.ID, s.Name, s.Description, s.PriceCents, s.DurationMinutes, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services SET active = false WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
