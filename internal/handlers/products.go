package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type ProductHandler struct {
	repo   *storage.ProductRepository
	logger *slog.Logger
}

func NewProductHandler(repo *storage.ProductRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

type productRequest struct {
	ProductID   string `json:"product_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	CostCents   int64  `json:"cost_cents"`
	MinQuantity int    `json:"min_quantity"`
}

type productItem struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	CostCents   int64  `json:"cost_cents"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
	LowStock    bool   `json:"low_stock"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

func productToItem(p model.Product) productItem {
	return productItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		CostCents:   p.CostCents,
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
		LowStock:    p.Quantity < p.MinQuantity,
		Active:      p.Active,
		CreatedAt:   fmtTime(p.CreatedAt),
	}
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request) (model.Product, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return model.Product{}, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return model.Product{}, false
	}
	if req.PriceCents < 0 || req.CostCents < 0 {
		http.Error(w, "prices must not be negative", http.StatusBadRequest)
		return model.Product{}, false
	}
	if req.MinQuantity < 0 {
		http.Error(w, "min_quantity must not be negative", http.StatusBadRequest)
		return model.Product{}, false
	}
	return model.Product{
		ID:          strings.TrimSpace(req.ProductID),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		PriceCents:  req.PriceCents,
		CostCents:   req.CostCents,
		MinQuantity: req.MinQuantity,
		Active:      true,
	}, true
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	p.ID = ""

	id, err := h.repo.Create(r.Context(), &p)
	if err != nil {
		http.Error(w, "failed to create product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"product_id": id})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("product_id"))
	if id == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}
	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, productToItem(p))
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	products, err := h.repo.List(r.Context(), queryBool(r, "active_only"), parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	items := make([]productItem, 0, len(products))
	for _, p := range products {
		items = append(items, productToItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	if p.ID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Update(r.Context(), &p); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type stockMovementRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"` // in | out | adjustment
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

// Stock applies a stock movement. Quantity is always sent positive; "out"
// movements are negated before hitting storage.
func (h *ProductHandler) Stock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req stockMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Type = strings.TrimSpace(req.Type)
	if req.ProductID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}
	if !model.ValidMovementType(req.Type) {
		http.Error(w, "invalid movement type", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		http.Error(w, "quantity must not be zero", http.StatusBadRequest)
		return
	}

	delta := req.Quantity
	switch req.Type {
	case model.MovementIn:
		if delta < 0 {
			http.Error(w, "quantity must be positive for in movements", http.StatusBadRequest)
			return
		}
	case model.MovementOut:
		if delta < 0 {
			http.Error(w, "quantity must be positive for out movements", http.StatusBadRequest)
			return
		}
		delta = -delta
	}

	m := model.StockMovement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  delta,
		Reason:    strings.TrimSpace(req.Reason),
	}
	p, err := h.repo.RecordMovement(r.Context(), &m)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		if storage.IsInsufficientStock(err) {
			http.Error(w, "insufficient stock", http.StatusConflict)
			return
		}
		http.Error(w, "failed to record movement", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, productToItem(p))
}

type movementItem struct {
	MovementID string `json:"movement_id"`
	ProductID  string `json:"product_id"`
	Type       string `json:"type"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("product_id"))
	if id == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}
	movements, err := h.repo.ListMovements(r.Context(), id, parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list movements", http.StatusInternalServerError)
		return
	}
	items := make([]movementItem, 0, len(movements))
	for _, m := range movements {
		items = append(items, movementItem{
			MovementID: m.ID,
			ProductID:  m.ProductID,
			Type:       m.Type,
			Quantity:   m.Quantity,
			Reason:     m.Reason,
			CreatedAt:  fmtTime(m.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
