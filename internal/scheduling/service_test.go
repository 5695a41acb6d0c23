package scheduling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reboucasericka/sistema-api/internal/availability"
	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type fakeStore struct {
	appts   map[string]model.Appointment
	inserts int
	updates int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: map[string]model.Appointment{}}
}

func (s *fakeStore) Insert(_ context.Context, appt *model.Appointment, _ outbox.Event) (string, error) {
	id := uuid.NewString()
	appt.ID = id
	s.appts[id] = *appt
	s.inserts++
	return id, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (model.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (s *fakeStore) Update(_ context.Context, appt *model.Appointment, _ outbox.Event) error {
	if _, ok := s.appts[appt.ID]; !ok {
		return storage.ErrNotFound
	}
	s.appts[appt.ID] = *appt
	s.updates++
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string, _ outbox.Event) error {
	if _, ok := s.appts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.appts, id)
	s.deletes++
	return nil
}

func (s *fakeStore) SetExternalEventRef(_ context.Context, id, ref string) error {
	appt, ok := s.appts[id]
	if !ok {
		return storage.ErrNotFound
	}
	appt.ExternalEventRef = ref
	s.appts[id] = appt
	return nil
}

func (s *fakeStore) ListOverlapping(_ context.Context, professionalID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range s.appts {
		if a.ProfessionalID != professionalID || a.Status == model.StatusCanceled {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if availability.Overlaps(start, end, a.StartTime, a.EndTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCalendar struct {
	createErr   error
	deleteErr   error
	createCalls int
	deleteCalls int
	lastRef     string
}

func (c *fakeCalendar) CreateOrUpdateEvent(_ context.Context, appt model.Appointment) (string, error) {
	c.createCalls++
	if c.createErr != nil {
		return "", c.createErr
	}
	return "evt-" + appt.ID, nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, ref string) error {
	c.deleteCalls++
	c.lastRef = ref
	return c.deleteErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *fakeStore, cal *fakeCalendar) *Service {
	return NewService(store, cal, discardLogger(), time.Second)
}

func bookInput(start, end time.Time) BookInput {
	return BookInput{
		CustomerID:     uuid.NewString(),
		ProfessionalID: uuid.NewString(),
		ServiceID:      uuid.NewString(),
		StartTime:      start,
		EndTime:        end,
	}
}

func TestBookAndSync(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appt, sync, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.ID == "" {
		t.Fatal("expected assigned id")
	}
	if appt.Status != model.StatusPending {
		t.Fatalf("status = %q, want pending", appt.Status)
	}
	if !sync.Attempted || !sync.Synced {
		t.Fatalf("sync = %+v, want attempted and synced", sync)
	}
	if got := store.appts[appt.ID].ExternalEventRef; got != "evt-"+appt.ID {
		t.Fatalf("stored event ref = %q", got)
	}
}

func TestBookInvalidInterval(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, _, err := svc.Book(context.Background(), bookInput(start, start))
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if store.inserts != 0 {
		t.Fatal("nothing should be persisted for invalid input")
	}
	if cal.createCalls != 0 {
		t.Fatal("no sync should be attempted for invalid input")
	}
}

func TestBookSyncFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{createErr: errors.New("calendar down")}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appt, sync, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if sync.Synced || !sync.Attempted {
		t.Fatalf("sync = %+v, want attempted but not synced", sync)
	}
	if sync.Detail == "" {
		t.Fatal("expected failure detail")
	}
	if store.appts[appt.ID].ExternalEventRef != "" {
		t.Fatal("no event ref should be stored on sync failure")
	}
}

func TestBookWithoutCalendar(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, discardLogger(), time.Second)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, sync, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if sync.Attempted {
		t.Fatal("sync should not be attempted when no calendar is configured")
	}
}

func TestUpdateMissingAppointment(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	_, _, err := svc.Update(context.Background(), uuid.NewString(), UpdateInput{
		CustomerID:     uuid.NewString(),
		ProfessionalID: uuid.NewString(),
		ServiceID:      uuid.NewString(),
		StartTime:      time.Now(),
		EndTime:        time.Now().Add(time.Hour),
		Status:         model.StatusConfirmed,
	})
	if !storage.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if cal.createCalls != 0 {
		t.Fatal("no sync should be attempted for a missing appointment")
	}
	if store.updates != 0 {
		t.Fatal("nothing should be mutated for a missing appointment")
	}
}

func TestUpdateReschedules(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	booked, _, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	newStart := start.Add(2 * time.Hour)
	updated, sync, err := svc.Update(context.Background(), booked.ID, UpdateInput{
		CustomerID:     booked.CustomerID,
		ProfessionalID: booked.ProfessionalID,
		ServiceID:      booked.ServiceID,
		StartTime:      newStart,
		EndTime:        newStart.Add(time.Hour),
		Status:         model.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.StartTime.Equal(newStart) || updated.Status != model.StatusConfirmed {
		t.Fatalf("updated = %+v", updated)
	}
	if !sync.Synced {
		t.Fatalf("sync = %+v, want synced", sync)
	}
	if stored := store.appts[booked.ID]; stored.ExternalEventRef == "" {
		t.Fatal("event ref should survive the update")
	}
}

func TestCancelDeletesExternalEventFirst(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	booked, _, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	sync, err := svc.Cancel(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !sync.Attempted || !sync.Synced {
		t.Fatalf("sync = %+v, want attempted and synced", sync)
	}
	if cal.lastRef != "evt-"+booked.ID {
		t.Fatalf("deleted ref = %q", cal.lastRef)
	}
	if _, ok := store.appts[booked.ID]; ok {
		t.Fatal("appointment should be removed")
	}
}

func TestCancelSucceedsWhenExternalDeleteFails(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{deleteErr: errors.New("calendar down")}
	svc := newTestService(store, cal)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	booked, _, err := svc.Book(context.Background(), bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	sync, err := svc.Cancel(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if sync.Synced {
		t.Fatal("sync should report the failed external delete")
	}
	if sync.Detail == "" {
		t.Fatal("expected failure detail")
	}
	if _, ok := store.appts[booked.ID]; ok {
		t.Fatal("local record must be removed even when the external delete fails")
	}
}

func TestCancelMissingAppointment(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)

	_, err := svc.Cancel(context.Background(), uuid.NewString())
	if !storage.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if cal.deleteCalls != 0 {
		t.Fatal("no external delete should be attempted")
	}
}

func TestCancelCompletedRejected(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{}
	svc := newTestService(store, cal)
	ctx := context.Background()

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appt := model.Appointment{
		CustomerID:     uuid.NewString(),
		ProfessionalID: uuid.NewString(),
		ServiceID:      uuid.NewString(),
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         model.StatusCompleted,
	}
	id, err := store.Insert(ctx, &appt, outbox.Event{})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err = svc.Cancel(ctx, id)
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if _, ok := store.appts[id]; !ok {
		t.Fatal("completed appointment must remain")
	}
	if cal.deleteCalls != 0 {
		t.Fatal("no external delete should be attempted")
	}
}

func TestIsSlotAvailable(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, discardLogger(), time.Second)
	ctx := context.Background()

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	booked, _, err := svc.Book(ctx, bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	free, err := svc.IsSlotAvailable(ctx, booked.ProfessionalID, start.Add(30*time.Minute), start.Add(90*time.Minute), "")
	if err != nil {
		t.Fatalf("IsSlotAvailable: %v", err)
	}
	if free {
		t.Fatal("overlapping slot should not be available")
	}

	// Back-to-back is fine under half-open intervals.
	free, err = svc.IsSlotAvailable(ctx, booked.ProfessionalID, start.Add(time.Hour), start.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("IsSlotAvailable: %v", err)
	}
	if !free {
		t.Fatal("back-to-back slot should be available")
	}

	// The appointment does not conflict with itself on reschedule.
	free, err = svc.IsSlotAvailable(ctx, booked.ProfessionalID, start, start.Add(time.Hour), booked.ID)
	if err != nil {
		t.Fatalf("IsSlotAvailable: %v", err)
	}
	if !free {
		t.Fatal("slot should be available when the holder is excluded")
	}
}

func TestIsSlotAvailableZeroDuration(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, discardLogger(), time.Second)
	ctx := context.Background()

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	booked, _, err := svc.Book(ctx, bookInput(start, start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// An empty candidate interval, even inside a booked hour, holds no time.
	instant := start.Add(30 * time.Minute)
	free, err := svc.IsSlotAvailable(ctx, booked.ProfessionalID, instant, instant, "")
	if err != nil {
		t.Fatalf("IsSlotAvailable: %v", err)
	}
	if !free {
		t.Fatal("zero-duration candidate must be trivially available")
	}
}

func TestIsSlotAvailableIgnoresCanceled(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, discardLogger(), time.Second)
	ctx := context.Background()

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appt := model.Appointment{
		CustomerID:     uuid.NewString(),
		ProfessionalID: uuid.NewString(),
		ServiceID:      uuid.NewString(),
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         model.StatusCanceled,
	}
	if _, err := store.Insert(ctx, &appt, outbox.Event{}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	free, err := svc.IsSlotAvailable(ctx, appt.ProfessionalID, start, start.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("IsSlotAvailable: %v", err)
	}
	if !free {
		t.Fatal("canceled appointments must not block the slot")
	}
}
