package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reboucasericka/sistema-api/internal/availability"
	"github.com/reboucasericka/sistema-api/internal/cache"
	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/scheduling"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type AppointmentHandler struct {
	scheduler *scheduling.Service
	repo      *storage.AppointmentRepository
	pros      *storage.ProfessionalRepository
	services  *storage.ServiceRepository
	schedules *cache.ScheduleCache
	logger    *slog.Logger
	// loc is the clinic's local timezone, used to materialize weekly
	// schedule windows onto calendar days.
	loc *time.Location
}

func NewAppointmentHandler(scheduler *scheduling.Service, repo *storage.AppointmentRepository, pros *storage.ProfessionalRepository, services *storage.ServiceRepository, schedules *cache.ScheduleCache, logger *slog.Logger, loc *time.Location) *AppointmentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentHandler{
		scheduler: scheduler,
		repo:      repo,
		pros:      pros,
		services:  services,
		schedules: schedules,
		logger:    logger,
		loc:       loc,
	}
}

type appointmentRequest struct {
	CustomerID      string `json:"customer_id"`
	ProfessionalID  string `json:"professional_id"`
	ServiceID       string `json:"service_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status,omitempty"`
	Notes           string `json:"notes,omitempty"`
	TotalPriceCents *int64 `json:"total_price_cents,omitempty"`
}

type appointmentItem struct {
	AppointmentID   string `json:"appointment_id"`
	CustomerID      string `json:"customer_id"`
	ProfessionalID  string `json:"professional_id"`
	ServiceID       string `json:"service_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	TotalPriceCents *int64 `json:"total_price_cents,omitempty"`
	CalendarSynced  bool   `json:"calendar_synced"`
	CreatedAt       string `json:"created_at"`
}

type syncOutcomeItem struct {
	Attempted bool   `json:"attempted"`
	Synced    bool   `json:"synced"`
	Detail    string `json:"detail,omitempty"`
}

func appointmentToItem(appt model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID:   appt.ID,
		CustomerID:      appt.CustomerID,
		ProfessionalID:  appt.ProfessionalID,
		ServiceID:       appt.ServiceID,
		StartTime:       fmtTime(appt.StartTime),
		EndTime:         fmtTime(appt.EndTime),
		Status:          appt.Status,
		Notes:           appt.Notes,
		TotalPriceCents: appt.TotalPriceCents,
		CalendarSynced:  appt.ExternalEventRef != "",
		CreatedAt:       fmtTime(appt.CreatedAt),
	}
}

func syncToItem(sync scheduling.SyncOutcome) syncOutcomeItem {
	return syncOutcomeItem{Attempted: sync.Attempted, Synced: sync.Synced, Detail: sync.Detail}
}

func (h *AppointmentHandler) parseRequest(w http.ResponseWriter, r *http.Request) (appointmentRequest, time.Time, time.Time, bool) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return req, time.Time{}, time.Time{}, false
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return req, time.Time{}, time.Time{}, false
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return req, time.Time{}, time.Time{}, false
	}
	return req, startTime, endTime, true
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, startTime, endTime, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	// Pre-check keeps the common double-booking case a clean 409; the
	// database slot constraint catches the race.
	if endTime.After(startTime) && strings.TrimSpace(req.ProfessionalID) != "" {
		free, err := h.scheduler.IsSlotAvailable(ctx, strings.TrimSpace(req.ProfessionalID), startTime, endTime, "")
		if err != nil {
			http.Error(w, "failed to check availability", http.StatusInternalServerError)
			return
		}
		if !free {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
	}

	appt, sync, err := h.scheduler.Book(ctx, scheduling.BookInput{
		CustomerID:      req.CustomerID,
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		StartTime:       startTime,
		EndTime:         endTime,
		Status:          strings.TrimSpace(req.Status),
		Notes:           req.Notes,
		TotalPriceCents: req.TotalPriceCents,
	})
	if err != nil {
		if scheduling.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"appointment": appointmentToItem(appt),
		"sync":        syncToItem(sync),
	})
}

type updateAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
	appointmentRequest
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if endTime.After(startTime) && strings.TrimSpace(req.ProfessionalID) != "" {
		free, err := h.scheduler.IsSlotAvailable(ctx, strings.TrimSpace(req.ProfessionalID), startTime, endTime, req.AppointmentID)
		if err != nil {
			http.Error(w, "failed to check availability", http.StatusInternalServerError)
			return
		}
		if !free {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
	}

	appt, sync, err := h.scheduler.Update(ctx, req.AppointmentID, scheduling.UpdateInput{
		CustomerID:      req.CustomerID,
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		StartTime:       startTime,
		EndTime:         endTime,
		Status:          strings.TrimSpace(req.Status),
		Notes:           req.Notes,
		TotalPriceCents: req.TotalPriceCents,
	})
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		if scheduling.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment": appointmentToItem(appt),
		"sync":        syncToItem(sync),
	})
}

type cancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	sync, err := h.scheduler.Cancel(r.Context(), req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id": req.AppointmentID,
		"status":         "canceled",
		"sync":           syncToItem(sync),
	})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	appt, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(appt))
}

// List filters by professional_id, customer_id or a from/to range.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	limit := parseLimit(r, 50, 200)

	var (
		appts []model.Appointment
		err   error
	)
	switch {
	case professionalID != "":
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}
		appts, err = h.repo.ListByProfessional(ctx, professionalID, from, to)
	case customerID != "":
		appts, err = h.repo.ListByCustomer(ctx, customerID, limit)
	default:
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}
		appts, err = h.repo.ListByRange(ctx, from, to, limit)
	}
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentToItem(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

// parseRange reads from/to query params, defaulting to the next 7 days.
func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -1)
	to := now.AddDate(0, 0, 7)
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Availability answers whether one concrete slot is free.
func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("start_time")))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("end_time")))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	excludeID := strings.TrimSpace(r.URL.Query().Get("exclude_appointment_id"))

	free, err := h.scheduler.IsSlotAvailable(r.Context(), professionalID, startTime, endTime, excludeID)
	if err != nil {
		http.Error(w, "failed to check availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": free})
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Slots lists bookable start times for a professional and service on one day.
func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if professionalID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "professional_id, service_id and date are required", http.StatusBadRequest)
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	svc, err := h.services.Get(ctx, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	duration := time.Duration(svc.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	windows, err := h.scheduleWindows(r, professionalID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}

	var dayWindows []availability.DayWindow
	for _, win := range windows {
		if win.Weekday != int(day.Weekday()) {
			continue
		}
		dayWindows = append(dayWindows, availability.DayWindow{
			IsWorking:   win.IsWorking,
			StartMinute: win.StartMinute,
			EndMinute:   win.EndMinute,
		})
	}
	intervals := availability.WindowsForDay(day, h.loc, dayWindows)
	if len(intervals) == 0 {
		writeJSON(w, http.StatusOK, []slotItem{})
		return
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, h.loc)
	booked, err := h.repo.ListByProfessional(ctx, professionalID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
		return
	}
	busy := busyIntervals(booked)

	step := 15 * time.Minute
	resp := []slotItem{}
	for _, win := range intervals {
		for _, s := range availability.AvailableSlots(win.Start, win.End, duration, step, busy, time.Now()) {
			resp = append(resp, slotItem{
				StartTime: fmtTime(s),
				EndTime:   fmtTime(s.Add(duration)),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// busyIntervals converts booked appointments into blocking intervals.
// Canceled appointments hold no slot.
func busyIntervals(appts []model.Appointment) []availability.Interval {
	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCanceled {
			continue
		}
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime})
	}
	return busy
}

func (h *AppointmentHandler) scheduleWindows(r *http.Request, professionalID string) ([]model.ScheduleWindow, error) {
	ctx := r.Context()
	if windows, ok := h.schedules.Get(ctx, professionalID); ok {
		return windows, nil
	}
	windows, err := h.pros.GetSchedule(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	h.schedules.Set(ctx, professionalID, windows)
	return windows, nil
}
