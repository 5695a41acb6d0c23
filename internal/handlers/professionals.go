package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reboucasericka/sistema-api/internal/cache"
	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type ProfessionalHandler struct {
	repo      *storage.ProfessionalRepository
	schedules *cache.ScheduleCache
	logger    *slog.Logger
}

func NewProfessionalHandler(repo *storage.ProfessionalRepository, schedules *cache.ScheduleCache, logger *slog.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{repo: repo, schedules: schedules, logger: logger}
}

type professionalRequest struct {
	ProfessionalID    string `json:"professional_id,omitempty"`
	Name              string `json:"name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	CommissionPercent int    `json:"commission_percent"`
}

type professionalItem struct {
	ProfessionalID    string `json:"professional_id"`
	Name              string `json:"name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	CommissionPercent int    `json:"commission_percent"`
	Active            bool   `json:"active"`
	CreatedAt         string `json:"created_at"`
}

func professionalToItem(p model.Professional) professionalItem {
	return professionalItem{
		ProfessionalID:    p.ID,
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		CommissionPercent: p.CommissionPercent,
		Active:            p.Active,
		CreatedAt:         fmtTime(p.CreatedAt),
	}
}

func (h *ProfessionalHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req professionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.CommissionPercent < 0 || req.CommissionPercent > 100 {
		http.Error(w, "commission_percent must be between 0 and 100", http.StatusBadRequest)
		return
	}

	p := model.Professional{
		Name:              req.Name,
		Email:             strings.TrimSpace(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		CommissionPercent: req.CommissionPercent,
		Active:            true,
	}
	id, err := h.repo.Create(r.Context(), &p)
	if err != nil {
		http.Error(w, "failed to create professional", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"professional_id": id})
}

func (h *ProfessionalHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if id == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load professional", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, professionalToItem(p))
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pros, err := h.repo.List(r.Context(), queryBool(r, "active_only"), parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list professionals", http.StatusInternalServerError)
		return
	}
	items := make([]professionalItem, 0, len(pros))
	for _, p := range pros {
		items = append(items, professionalToItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProfessionalHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req professionalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ProfessionalID == "" || req.Name == "" {
		http.Error(w, "professional_id and name required", http.StatusBadRequest)
		return
	}
	if req.CommissionPercent < 0 || req.CommissionPercent > 100 {
		http.Error(w, "commission_percent must be between 0 and 100", http.StatusBadRequest)
		return
	}

	p := model.Professional{
		ID:                req.ProfessionalID,
		Name:              req.Name,
		Email:             strings.TrimSpace(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		CommissionPercent: req.CommissionPercent,
		Active:            true,
	}
	if err := h.repo.Update(r.Context(), &p); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update professional", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ProfessionalHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProfessionalID string `json:"professional_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	if err := h.repo.Deactivate(r.Context(), req.ProfessionalID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate professional", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scheduleWindowItem struct {
	Weekday     int  `json:"weekday"`
	IsWorking   bool `json:"is_working"`
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
}

func (h *ProfessionalHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if id == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	windows, err := h.repo.GetSchedule(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	items := make([]scheduleWindowItem, 0, len(windows))
	for _, win := range windows {
		items = append(items, scheduleWindowItem{
			Weekday:     win.Weekday,
			IsWorking:   win.IsWorking,
			StartMinute: win.StartMinute,
			EndMinute:   win.EndMinute,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type putScheduleRequest struct {
	ProfessionalID string               `json:"professional_id"`
	Windows        []scheduleWindowItem `json:"windows"`
}

func (h *ProfessionalHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req putScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	windows := make([]model.ScheduleWindow, 0, len(req.Windows))
	for _, win := range req.Windows {
		if win.Weekday < 0 || win.Weekday > 6 {
			http.Error(w, "weekday must be 0-6", http.StatusBadRequest)
			return
		}
		if win.IsWorking && (win.StartMinute < 0 || win.EndMinute > 24*60 || win.EndMinute <= win.StartMinute) {
			http.Error(w, "invalid schedule window", http.StatusBadRequest)
			return
		}
		windows = append(windows, model.ScheduleWindow{
			Weekday:     win.Weekday,
			IsWorking:   win.IsWorking,
			StartMinute: win.StartMinute,
			EndMinute:   win.EndMinute,
		})
	}

	if err := h.repo.PutSchedule(r.Context(), req.ProfessionalID, windows); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "professional not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to save schedule", http.StatusInternalServerError)
		return
	}
	h.schedules.Invalidate(r.Context(), req.ProfessionalID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type offeringItem struct {
	ProfessionalID    string `json:"professional_id"`
	ServiceID         string `json:"service_id"`
	CommissionPercent *int   `json:"commission_percent,omitempty"`
}

func (h *ProfessionalHandler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if id == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}
	offerings, err := h.repo.ListOfferings(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to list offerings", http.StatusInternalServerError)
		return
	}
	items := make([]offeringItem, 0, len(offerings))
	for _, o := range offerings {
		items = append(items, offeringItem{
			ProfessionalID:    o.ProfessionalID,
			ServiceID:         o.ServiceID,
			CommissionPercent: o.CommissionPercent,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProfessionalHandler) PutOffering(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req offeringItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ProfessionalID == "" || req.ServiceID == "" {
		http.Error(w, "professional_id and service_id required", http.StatusBadRequest)
		return
	}
	if req.CommissionPercent != nil && (*req.CommissionPercent < 0 || *req.CommissionPercent > 100) {
		http.Error(w, "commission_percent must be between 0 and 100", http.StatusBadRequest)
		return
	}

	err := h.repo.UpsertOffering(r.Context(), model.ServiceOffering{
		ProfessionalID:    req.ProfessionalID,
		ServiceID:         req.ServiceID,
		CommissionPercent: req.CommissionPercent,
	})
	if err != nil {
		http.Error(w, "failed to save offering", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ProfessionalHandler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ProfessionalID string `json:"professional_id"`
		ServiceID      string `json:"service_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ProfessionalID == "" || req.ServiceID == "" {
		http.Error(w, "professional_id and service_id required", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteOffering(r.Context(), req.ProfessionalID, req.ServiceID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "offering not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete offering", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
