package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type CustomerHandler struct {
	repo   *storage.CustomerRepository
	logger *slog.Logger
}

func NewCustomerHandler(repo *storage.CustomerRepository, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{repo: repo, logger: logger}
}

type customerRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"` // YYYY-MM-DD
	Notes      string `json:"notes,omitempty"`
}

type customerItem struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
}

func customerToItem(c model.Customer) customerItem {
	item := customerItem{
		CustomerID: c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Notes:      c.Notes,
		Active:     c.Active,
		CreatedAt:  fmtTime(c.CreatedAt),
	}
	if c.BirthDate != nil {
		item.BirthDate = c.BirthDate.Format("2006-01-02")
	}
	return item
}

func (h *CustomerHandler) decode(w http.ResponseWriter, r *http.Request) (model.Customer, bool) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return model.Customer{}, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return model.Customer{}, false
	}
	c := model.Customer{
		ID:     strings.TrimSpace(req.CustomerID),
		Name:   req.Name,
		Email:  strings.TrimSpace(req.Email),
		Phone:  strings.TrimSpace(req.Phone),
		Notes:  strings.TrimSpace(req.Notes),
		Active: true,
	}
	if raw := strings.TrimSpace(req.BirthDate); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid birth_date", http.StatusBadRequest)
			return model.Customer{}, false
		}
		c.BirthDate = &t
	}
	return c, true
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := h.decode(w, r)
	if !ok {
		return
	}
	c.ID = ""

	id, err := h.repo.Create(r.Context(), &c)
	if err != nil {
		http.Error(w, "failed to create customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"customer_id": id})
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if id == "" {
		http.Error(w, "customer_id required", http.StatusBadRequest)
		return
	}
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, customerToItem(c))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	customers, err := h.repo.List(r.Context(), queryBool(r, "active_only"), parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}
	items := make([]customerItem, 0, len(customers))
	for _, c := range customers {
		items = append(items, customerToItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := h.decode(w, r)
	if !ok {
		return
	}
	if c.ID == "" {
		http.Error(w, "customer_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Update(r.Context(), &c); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		http.Error(w, "customer_id required", http.StatusBadRequest)
		return
	}
	if err := h.repo.Deactivate(r.Context(), req.CustomerID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
