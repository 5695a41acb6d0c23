package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/pos"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type POSHandler struct {
	checkout *pos.Service
	sales    *storage.SaleRepository
	logger   *slog.Logger
}

func NewPOSHandler(checkout *pos.Service, sales *storage.SaleRepository, logger *slog.Logger) *POSHandler {
	return &POSHandler{checkout: checkout, sales: sales, logger: logger}
}

type checkoutRequest struct {
	CustomerID    string             `json:"customer_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	Items         []checkoutItemBody `json:"items"`
}

type checkoutItemBody struct {
	Kind     string `json:"kind"` // service | product
	RefID    string `json:"ref_id"`
	Quantity int    `json:"quantity"`
}

type saleItemBody struct {
	Kind           string `json:"kind"`
	RefID          string `json:"ref_id"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type saleItemResponse struct {
	SaleID        string         `json:"sale_id"`
	CustomerID    string         `json:"customer_id,omitempty"`
	RegisterID    string         `json:"register_id,omitempty"`
	PaymentMethod string         `json:"payment_method"`
	TotalCents    int64          `json:"total_cents"`
	PaymentRef    string         `json:"payment_ref,omitempty"`
	Items         []saleItemBody `json:"items,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

func saleToResponse(s model.Sale) saleItemResponse {
	resp := saleItemResponse{
		SaleID:        s.ID,
		CustomerID:    s.CustomerID,
		RegisterID:    s.RegisterID,
		PaymentMethod: s.PaymentMethod,
		TotalCents:    s.TotalCents,
		PaymentRef:    s.PaymentRef,
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = fmtTime(s.CreatedAt)
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, saleItemBody{
			Kind:           it.Kind,
			RefID:          it.RefID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return resp
}

func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	items := make([]pos.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, pos.CheckoutItem{
			Kind:     strings.TrimSpace(it.Kind),
			RefID:    strings.TrimSpace(it.RefID),
			Quantity: it.Quantity,
		})
	}

	sale, err := h.checkout.Checkout(r.Context(), pos.CheckoutInput{
		CustomerID:     req.CustomerID,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		Items:          items,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		if pos.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if storage.IsInsufficientStock(err) {
			http.Error(w, "insufficient stock", http.StatusConflict)
			return
		}
		if errors.Is(err, pos.ErrChargeFailed) {
			http.Error(w, "card charge failed", http.StatusBadGateway)
			return
		}
		http.Error(w, "failed to record sale", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saleToResponse(sale))
}

func (h *POSHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("sale_id"))
	if id == "" {
		http.Error(w, "sale_id required", http.StatusBadRequest)
		return
	}
	sale, err := h.sales.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "sale not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load sale", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saleToResponse(sale))
}

func (h *POSHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	sales, err := h.sales.ListByRange(r.Context(), from, to, parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list sales", http.StatusInternalServerError)
		return
	}
	items := make([]saleItemResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, saleToResponse(s))
	}
	writeJSON(w, http.StatusOK, items)
}
