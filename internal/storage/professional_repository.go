package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type ProfessionalRepository struct {
	pool *db.Pool
}

func NewProfessionalRepository(pool *db.Pool) *ProfessionalRepository {
	return &ProfessionalRepository{pool: pool}
}

const professionalColumns = `id::text, name, email, phone, commission_percent, active, created_at`

func scanProfessional(row pgx.Row) (model.Professional, error) {
	var p model.Professional
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CommissionPercent, &p.Active, &p.CreatedAt)
	return p, err
}

// Create inserts the professional with a default Mon-Fri 09:00-18:00 weekly
// schedule so slot listing works before the schedule is customized.
func (r *ProfessionalRepository) Create(ctx context.Context, p *model.Professional) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO professionals (id, name, email, phone, commission_percent, active)
		VALUES ($1, $2, $3, $4, $5, true)
	`, id, p.Name, p.Email, p.Phone, p.CommissionPercent)
	if err != nil {
		return "", err
	}

	for wd := 0; wd <= 6; wd++ {
		isWorking := wd >= 1 && wd <= 5
		startMin, endMin := 540, 1080
		if !isWorking {
			startMin, endMin = 0, 0
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO professional_schedules (professional_id, weekday, is_working, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (professional_id, weekday) DO NOTHING
		`, id, wd, isWorking, startMin, endMin); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *ProfessionalRepository) Get(ctx context.Context, id string) (model.Professional, error) {
	p, err := scanProfessional(r.pool.QueryRow(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Professional{}, notFoundOr(err)
	}
	return p, nil
}

func (r *ProfessionalRepository) List(ctx context.Context, activeOnly bool, limit int) ([]model.Professional, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE ($1 = false OR active)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
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

func (r *ProfessionalRepository) Update(ctx context.Context, p *model.Professional) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professionals
		SET name = $2, email = $3, phone = $4, commission_percent = $5, active = $6
		WHERE id = $1
	`, p.ID, p.Name, p.Email, p.Phone, p.CommissionPercent, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfessionalRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professionals SET active = false WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfessionalRepository) GetSchedule(ctx context.Context, professionalID string) ([]model.ScheduleWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_working, start_minute, end_minute
		FROM professional_schedules
		WHERE professional_id = $1
		ORDER BY weekday, start_minute
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduleWindow
	for rows.Next() {
		var w model.ScheduleWindow
		if err := rows.Scan(&w.Weekday, &w.IsWorking, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// PutSchedule replaces the professional's weekly windows.
func (r *ProfessionalRepository) PutSchedule(ctx context.Context, professionalID string, windows []model.ScheduleWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM professional_schedules WHERE professional_id = $1
	`, professionalID); err != nil {
		return err
	}
	for _, w := range windows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO professional_schedules (professional_id, weekday, is_working, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
		`, professionalID, w.Weekday, w.IsWorking, w.StartMinute, w.EndMinute); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ProfessionalRepository) ListOfferings(ctx context.Context, professionalID string) ([]model.ServiceOffering, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT professional_id::text, service_id::text, commission_percent
		FROM professional_services
		WHERE professional_id = $1
		ORDER BY service_id
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ServiceOffering
	for rows.Next() {
		var o model.ServiceOffering
		if err := rows.Scan(&o.ProfessionalID, &o.ServiceID, &o.CommissionPercent); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ProfessionalRepository) UpsertOffering(ctx context.Context, o model.ServiceOffering) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO professional_services (professional_id, service_id, commission_percent)
		VALUES ($1, $2, $3)
		ON CONFLICT (professional_id, service_id) DO UPDATE
		SET commission_percent = EXCLUDED.commission_percent
	`, o.ProfessionalID, o.ServiceID, o.CommissionPercent)
	return err
}

func (r *ProfessionalRepository) DeleteOffering(ctx context.Context, professionalID, serviceID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM professional_services
		WHERE professional_id = $1 AND service_id = $2
	`, professionalID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
