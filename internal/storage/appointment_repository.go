package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/libs/db"
)

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `
	id::text, customer_id::text, professional_id::text, service_id::text,
	start_time, end_time, status, notes, total_price_cents, reminder_sent,
	COALESCE(external_event_ref, ''), created_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.ProfessionalID,
		&a.ServiceID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Notes,
		&a.TotalPriceCents,
		&a.ReminderSent,
		&a.ExternalEventRef,
		&a.CreatedAt,
	)
	return a, err
}

// Insert persists the appointment and its outbox event in one transaction.
// The slot exclusion constraint can reject the insert; callers detect that
// with IsConflict.
func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment, evt outbox.Event) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments
			(id, customer_id, professional_id, service_id, start_time, end_time, status, notes, total_price_cents, reminder_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
	`, id, appt.CustomerID, appt.ProfessionalID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status, appt.Notes, appt.TotalPriceCents)
	if err != nil {
		return "", err
	}

	evt.AggregateID = id
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if err != nil {
		return model.Appointment{}, notFoundOr(err)
	}
	return appt, nil
}

// Update overwrites the mutable fields of an existing appointment.
func (r *AppointmentRepository) Update(ctx context.Context, appt *model.Appointment, evt outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET customer_id = $2,
			professional_id = $3,
			service_id = $4,
			start_time = $5,
			end_time = $6,
			status = $7,
			notes = $8,
			total_price_cents = $9
		WHERE id = $1
	`, appt.ID, appt.CustomerID, appt.ProfessionalID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status, appt.Notes, appt.TotalPriceCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the appointment record. Cancellation is a hard delete; the
// external calendar event is the lifecycle manager's responsibility.
func (r *AppointmentRepository) Delete(ctx context.Context, id string, evt outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) SetExternalEventRef(ctx context.Context, id, ref string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET external_event_ref = $2
		WHERE id = $1
	`, id, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOverlapping returns the professional's non-canceled appointments whose
// [start_time, end_time) interval intersects [start, end), optionally
// excluding one appointment id (reschedule self-check).
func (r *AppointmentRepository) ListOverlapping(ctx context.Context, professionalID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
			AND status <> 'canceled'
			AND start_time < $3
			AND end_time > $2
			AND ($4 = '' OR id::text <> $4)
		ORDER BY start_time ASC
	`, professionalID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) ListByProfessional(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE customer_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) ListByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE start_time >= $1
			AND start_time < $2
		ORDER BY start_time ASC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}
