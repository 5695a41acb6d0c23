package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type CashRegisterHandler struct {
	repo   *storage.CashRegisterRepository
	logger *slog.Logger
}

func NewCashRegisterHandler(repo *storage.CashRegisterRepository, logger *slog.Logger) *CashRegisterHandler {
	return &CashRegisterHandler{repo: repo, logger: logger}
}

type registerItem struct {
	RegisterID   string `json:"register_id"`
	OpenedBy     string `json:"opened_by,omitempty"`
	OpeningCents int64  `json:"opening_cents"`
	ClosingCents *int64 `json:"closing_cents,omitempty"`
	OpenedAt     string `json:"opened_at"`
	ClosedAt     string `json:"closed_at,omitempty"`
}

func registerToItem(reg model.CashRegister) registerItem {
	return registerItem{
		RegisterID:   reg.ID,
		OpenedBy:     reg.OpenedBy,
		OpeningCents: reg.OpeningCents,
		ClosingCents: reg.ClosingCents,
		OpenedAt:     fmtTime(reg.OpenedAt),
		ClosedAt:     fmtTimePtr(reg.ClosedAt),
	}
}

type openRegisterRequest struct {
	OpenedBy     string `json:"opened_by,omitempty"`
	OpeningCents int64  `json:"opening_cents"`
}

func (h *CashRegisterHandler) Open(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req openRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.OpeningCents < 0 {
		http.Error(w, "opening_cents must not be negative", http.StatusBadRequest)
		return
	}

	reg, err := h.repo.Open(r.Context(), strings.TrimSpace(req.OpenedBy), req.OpeningCents)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "a register is already open", http.StatusConflict)
			return
		}
		http.Error(w, "failed to open register", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, registerToItem(reg))
}

func (h *CashRegisterHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reg, err := h.repo.CurrentOpen(r.Context())
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "no open register", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load register", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, registerToItem(reg))
}

func (h *CashRegisterHandler) Close(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RegisterID string `json:"register_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.RegisterID = strings.TrimSpace(req.RegisterID)
	if req.RegisterID == "" {
		http.Error(w, "register_id required", http.StatusBadRequest)
		return
	}

	reg, err := h.repo.Close(r.Context(), req.RegisterID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "register not found", http.StatusNotFound)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "register already closed", http.StatusConflict)
			return
		}
		http.Error(w, "failed to close register", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, registerToItem(reg))
}

type cashEntryRequest struct {
	Type        string `json:"type"` // income | expense
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}

type cashEntryItem struct {
	EntryID     string `json:"entry_id"`
	RegisterID  string `json:"register_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
	SaleID      string `json:"sale_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// AddEntry records a manual income or expense against the open register.
func (h *CashRegisterHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cashEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type != model.EntryIncome && req.Type != model.EntryExpense {
		http.Error(w, "type must be income or expense", http.StatusBadRequest)
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, "amount_cents must be positive", http.StatusBadRequest)
		return
	}

	entry := model.CashEntry{
		Type:        req.Type,
		AmountCents: req.AmountCents,
		Description: strings.TrimSpace(req.Description),
	}
	id, err := h.repo.AddEntry(r.Context(), &entry)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "no open register", http.StatusConflict)
			return
		}
		http.Error(w, "failed to add entry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"entry_id": id})
}

func (h *CashRegisterHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	registerID := strings.TrimSpace(r.URL.Query().Get("register_id"))
	if registerID == "" {
		http.Error(w, "register_id required", http.StatusBadRequest)
		return
	}
	entries, err := h.repo.ListEntries(r.Context(), registerID, parseLimit(r, 200, 1000))
	if err != nil {
		http.Error(w, "failed to list entries", http.StatusInternalServerError)
		return
	}
	items := make([]cashEntryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, cashEntryItem{
			EntryID:     e.ID,
			RegisterID:  e.RegisterID,
			Type:        e.Type,
			AmountCents: e.AmountCents,
			Description: e.Description,
			SaleID:      e.SaleID,
			CreatedAt:   fmtTime(e.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
