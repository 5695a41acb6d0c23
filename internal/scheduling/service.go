package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reboucasericka/sistema-api/internal/calendar"
	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
)

// Store is the persistence surface the lifecycle manager needs. It is
// satisfied by storage.AppointmentRepository.
type Store interface {
	Insert(ctx context.Context, appt *model.Appointment, evt outbox.Event) (string, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	Update(ctx context.Context, appt *model.Appointment, evt outbox.Event) error
	Delete(ctx context.Context, id string, evt outbox.Event) error
	SetExternalEventRef(ctx context.Context, id, ref string) error
	ListOverlapping(ctx context.Context, professionalID string, start, end time.Time, excludeID string) ([]model.Appointment, error)
}

// ValidationError reports malformed input, caught before any persistence
// attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SyncOutcome is the secondary result of a lifecycle operation: whether the
// external calendar mirror was attempted and whether it succeeded. A failed
// sync never fails the primary operation.
type SyncOutcome struct {
	Attempted bool
	Synced    bool
	Detail    string
}

type Service struct {
	store       Store
	calendar    calendar.Client // nil disables external sync
	logger      *slog.Logger
	syncTimeout time.Duration
}

func NewService(store Store, cal calendar.Client, logger *slog.Logger, syncTimeout time.Duration) *Service {
	if syncTimeout <= 0 {
		syncTimeout = 3 * time.Second
	}
	return &Service{
		store:       store,
		calendar:    cal,
		logger:      logger,
		syncTimeout: syncTimeout,
	}
}

// IsSlotAvailable reports whether [start, end) is free for the professional.
// A zero-duration candidate is empty and conflicts with nothing. Canceled
// appointments never block; excludeID skips one appointment so a reschedule
// does not conflict with itself. Read-only.
func (s *Service) IsSlotAvailable(ctx context.Context, professionalID string, start, end time.Time, excludeID string) (bool, error) {
	if !end.After(start) {
		return true, nil
	}
	conflicts, err := s.store.ListOverlapping(ctx, professionalID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

type BookInput struct {
	CustomerID      string
	ProfessionalID  string
	ServiceID       string
	StartTime       time.Time
	EndTime         time.Time
	Status          string // optional; defaults to pending
	Notes           string
	TotalPriceCents *int64
}

func (in *BookInput) validate() error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return validationf("customer_id is required")
	}
	if strings.TrimSpace(in.ProfessionalID) == "" {
		return validationf("professional_id is required")
	}
	if strings.TrimSpace(in.ServiceID) == "" {
		return validationf("service_id is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return validationf("end_time must be after start_time")
	}
	if in.Status == "" {
		in.Status = model.StatusPending
	}
	if in.Status != model.StatusPending && in.Status != model.StatusConfirmed {
		return validationf("initial status must be pending or confirmed")
	}
	return nil
}

// Book persists a new appointment and then mirrors it to the external
// calendar. Booking does not check slot availability itself; callers wanting
// a conflict-free booking call IsSlotAvailable first, and the database slot
// constraint rejects races (surfaces as a conflict error).
func (s *Service) Book(ctx context.Context, in BookInput) (model.Appointment, SyncOutcome, error) {
	if err := in.validate(); err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}

	appt := model.Appointment{
		CustomerID:      strings.TrimSpace(in.CustomerID),
		ProfessionalID:  strings.TrimSpace(in.ProfessionalID),
		ServiceID:       strings.TrimSpace(in.ServiceID),
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Status:          in.Status,
		Notes:           strings.TrimSpace(in.Notes),
		TotalPriceCents: in.TotalPriceCents,
	}

	evt, err := appointmentEvent(outbox.EventAppointmentBooked, &appt)
	if err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}
	id, err := s.store.Insert(ctx, &appt, evt)
	if err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}
	appt.ID = id

	sync := s.syncEvent(ctx, &appt)
	return appt, sync, nil
}

type UpdateInput struct {
	CustomerID      string
	ProfessionalID  string
	ServiceID       string
	StartTime       time.Time
	EndTime         time.Time
	Status          string
	Notes           string
	TotalPriceCents *int64
}

// Update overwrites the mutable fields of an existing appointment. A missing
// appointment short-circuits before any mutation or sync attempt.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.Appointment, SyncOutcome, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}

	if strings.TrimSpace(in.CustomerID) == "" || strings.TrimSpace(in.ProfessionalID) == "" || strings.TrimSpace(in.ServiceID) == "" {
		return model.Appointment{}, SyncOutcome{}, validationf("customer_id, professional_id and service_id are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return model.Appointment{}, SyncOutcome{}, validationf("end_time must be after start_time")
	}
	if !model.ValidStatus(in.Status) {
		return model.Appointment{}, SyncOutcome{}, validationf("invalid status %q", in.Status)
	}

	appt := existing
	appt.CustomerID = strings.TrimSpace(in.CustomerID)
	appt.ProfessionalID = strings.TrimSpace(in.ProfessionalID)
	appt.ServiceID = strings.TrimSpace(in.ServiceID)
	appt.StartTime = in.StartTime
	appt.EndTime = in.EndTime
	appt.Status = in.Status
	appt.Notes = strings.TrimSpace(in.Notes)
	appt.TotalPriceCents = in.TotalPriceCents

	evt, err := appointmentEvent(outbox.EventAppointmentRescheduled, &appt)
	if err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}
	if err := s.store.Update(ctx, &appt, evt); err != nil {
		return model.Appointment{}, SyncOutcome{}, err
	}

	sync := s.syncEvent(ctx, &appt)
	return appt, sync, nil
}

// Cancel removes the appointment. Completed appointments are terminal and
// cannot be canceled. The external event delete is attempted first so a
// failed external delete never leaves a local record blocking retry; the
// orphaned external event is accepted and logged for manual reconciliation.
func (s *Service) Cancel(ctx context.Context, id string) (SyncOutcome, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return SyncOutcome{}, err
	}
	if appt.Status == model.StatusCompleted {
		return SyncOutcome{}, validationf("completed appointments cannot be canceled")
	}

	var sync SyncOutcome
	if s.calendar != nil && appt.ExternalEventRef != "" {
		sync.Attempted = true
		syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
		err := s.calendar.DeleteEvent(syncCtx, appt.ExternalEventRef)
		cancel()
		if err != nil {
			sync.Detail = err.Error()
			s.logger.Warn("calendar event delete failed; external event may be orphaned",
				"appointment_id", appt.ID,
				"event_ref", appt.ExternalEventRef,
				"err", err,
			)
		} else {
			sync.Synced = true
		}
	}

	evt, err := appointmentEvent(outbox.EventAppointmentCancelled, &appt)
	if err != nil {
		return sync, err
	}
	if err := s.store.Delete(ctx, id, evt); err != nil {
		return sync, err
	}
	return sync, nil
}

// syncEvent mirrors the appointment into the external calendar,
// create-or-update. Failures are logged and reported through the outcome
// only.
func (s *Service) syncEvent(ctx context.Context, appt *model.Appointment) SyncOutcome {
	if s.calendar == nil {
		return SyncOutcome{}
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	ref, err := s.calendar.CreateOrUpdateEvent(syncCtx, *appt)
	if err != nil {
		s.logger.Warn("calendar sync failed; appointment saved without external event",
			"appointment_id", appt.ID,
			"err", err,
		)
		return SyncOutcome{Attempted: true, Detail: err.Error()}
	}

	if ref != appt.ExternalEventRef {
		if err := s.store.SetExternalEventRef(ctx, appt.ID, ref); err != nil {
			s.logger.Warn("failed to persist external event ref",
				"appointment_id", appt.ID,
				"event_ref", ref,
				"err", err,
			)
			return SyncOutcome{Attempted: true, Detail: "event created but reference not persisted"}
		}
		appt.ExternalEventRef = ref
	}
	return SyncOutcome{Attempted: true, Synced: true}
}

func appointmentEvent(eventType string, appt *model.Appointment) (outbox.Event, error) {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":  appt.ID,
		"customer_id":     appt.CustomerID,
		"professional_id": appt.ProfessionalID,
		"service_id":      appt.ServiceID,
		"start_time":      appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":        appt.EndTime.UTC().Format(time.RFC3339),
		"status":          appt.Status,
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
