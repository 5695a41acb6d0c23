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

type FinanceHandler struct {
	repo   *storage.FinanceRepository
	logger *slog.Logger
}

func NewFinanceHandler(repo *storage.FinanceRepository, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{repo: repo, logger: logger}
}

type payableRequest struct {
	Description string `json:"description"`
	Supplier    string `json:"supplier,omitempty"`
	Category    string `json:"category,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
}

type payableItem struct {
	PayableID   string `json:"payable_id"`
	Description string `json:"description"`
	Supplier    string `json:"supplier,omitempty"`
	Category    string `json:"category,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"`
	PaidAt      string `json:"paid_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func payableToItem(p model.Payable) payableItem {
	return payableItem{
		PayableID:   p.ID,
		Description: p.Description,
		Supplier:    p.Supplier,
		Category:    p.Category,
		AmountCents: p.AmountCents,
		DueDate:     p.DueDate.Format("2006-01-02"),
		PaidAt:      fmtTimePtr(p.PaidAt),
		CreatedAt:   fmtTime(p.CreatedAt),
	}
}

func (h *FinanceHandler) CreatePayable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req payableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, "amount_cents must be positive", http.StatusBadRequest)
		return
	}
	dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.DueDate))
	if err != nil {
		http.Error(w, "invalid due_date", http.StatusBadRequest)
		return
	}

	p := model.Payable{
		Description: req.Description,
		Supplier:    strings.TrimSpace(req.Supplier),
		Category:    strings.TrimSpace(req.Category),
		AmountCents: req.AmountCents,
		DueDate:     dueDate,
	}
	id, err := h.repo.CreatePayable(r.Context(), &p)
	if err != nil {
		http.Error(w, "failed to create payable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"payable_id": id})
}

func (h *FinanceHandler) ListPayables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payables, err := h.repo.ListPayables(r.Context(), queryBool(r, "open_only"), parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list payables", http.StatusInternalServerError)
		return
	}
	items := make([]payableItem, 0, len(payables))
	for _, p := range payables {
		items = append(items, payableToItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FinanceHandler) SettlePayable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PayableID string `json:"payable_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PayableID = strings.TrimSpace(req.PayableID)
	if req.PayableID == "" {
		http.Error(w, "payable_id required", http.StatusBadRequest)
		return
	}

	paidAt, err := h.repo.SettlePayable(r.Context(), req.PayableID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "payable not found", http.StatusNotFound)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "payable already settled", http.StatusConflict)
			return
		}
		http.Error(w, "failed to settle payable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"payable_id": req.PayableID,
		"paid_at":    fmtTime(paidAt),
	})
}

type receivableRequest struct {
	CustomerID  string `json:"customer_id,omitempty"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
}

type receivableItem struct {
	ReceivableID string `json:"receivable_id"`
	CustomerID   string `json:"customer_id,omitempty"`
	SaleID       string `json:"sale_id,omitempty"`
	Description  string `json:"description"`
	AmountCents  int64  `json:"amount_cents"`
	DueDate      string `json:"due_date"`
	ReceivedAt   string `json:"received_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func receivableToItem(rv model.Receivable) receivableItem {
	return receivableItem{
		ReceivableID: rv.ID,
		CustomerID:   rv.CustomerID,
		SaleID:       rv.SaleID,
		Description:  rv.Description,
		AmountCents:  rv.AmountCents,
		DueDate:      rv.DueDate.Format("2006-01-02"),
		ReceivedAt:   fmtTimePtr(rv.ReceivedAt),
		CreatedAt:    fmtTime(rv.CreatedAt),
	}
}

func (h *FinanceHandler) CreateReceivable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req receivableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, "amount_cents must be positive", http.StatusBadRequest)
		return
	}
	dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.DueDate))
	if err != nil {
		http.Error(w, "invalid due_date", http.StatusBadRequest)
		return
	}

	rv := model.Receivable{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		Description: req.Description,
		AmountCents: req.AmountCents,
		DueDate:     dueDate,
	}
	id, err := h.repo.CreateReceivable(r.Context(), &rv)
	if err != nil {
		http.Error(w, "failed to create receivable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"receivable_id": id})
}

func (h *FinanceHandler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	receivables, err := h.repo.ListReceivables(r.Context(), queryBool(r, "open_only"), parseLimit(r, 100, 500))
	if err != nil {
		http.Error(w, "failed to list receivables", http.StatusInternalServerError)
		return
	}
	items := make([]receivableItem, 0, len(receivables))
	for _, rv := range receivables {
		items = append(items, receivableToItem(rv))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FinanceHandler) SettleReceivable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ReceivableID string `json:"receivable_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReceivableID = strings.TrimSpace(req.ReceivableID)
	if req.ReceivableID == "" {
		http.Error(w, "receivable_id required", http.StatusBadRequest)
		return
	}

	receivedAt, err := h.repo.SettleReceivable(r.Context(), req.ReceivableID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "receivable not found", http.StatusNotFound)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "receivable already settled", http.StatusConflict)
			return
		}
		http.Error(w, "failed to settle receivable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"receivable_id": req.ReceivableID,
		"received_at":   fmtTime(receivedAt),
	})
}
