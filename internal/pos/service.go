package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/internal/payments"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type SaleStore interface {
	RecordSale(ctx context.Context, sale *model.Sale, entry *model.CashEntry, recv *model.Receivable, evt outbox.Event) error
}

type ServiceCatalog interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

type ProductCatalog interface {
	Get(ctx context.Context, id string) (model.Product, error)
}

type RegisterStore interface {
	CurrentOpen(ctx context.Context) (model.CashRegister, error)
}

// ValidationError reports a malformed checkout request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrChargeFailed wraps card processor failures so handlers can map them to
// an upstream error status.
var ErrChargeFailed = errors.New("card charge failed")

// Service runs checkout: price snapshot, total, card charge, then one
// transactional write covering the sale, stock decrements and the cash
// register entry.
type Service struct {
	sales     SaleStore
	services  ServiceCatalog
	products  ProductCatalog
	registers RegisterStore
	processor payments.Processor
	logger    *slog.Logger
	// receivableTermDays is the payment term granted to transfer sales.
	receivableTermDays int
}

func NewService(sales SaleStore, services ServiceCatalog, products ProductCatalog, registers RegisterStore, processor payments.Processor, logger *slog.Logger) *Service {
	if processor == nil {
		processor = payments.NoopProcessor{}
	}
	return &Service{
		sales:              sales,
		services:           services,
		products:           products,
		registers:          registers,
		processor:          processor,
		logger:             logger,
		receivableTermDays: 30,
	}
}

type CheckoutItem struct {
	Kind     string
	RefID    string
	Quantity int
}

type CheckoutInput struct {
	CustomerID     string
	PaymentMethod  string
	Items          []CheckoutItem
	IdempotencyKey string
}

// Checkout prices the items from the current catalog, charges card tenders
// through the processor and records everything atomically. Prices are
// snapshotted on the sale items so later catalog edits do not rewrite
// history.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (model.Sale, error) {
	if len(in.Items) == 0 {
		return model.Sale{}, &ValidationError{Msg: "at least one item is required"}
	}
	if !model.ValidPaymentMethod(in.PaymentMethod) {
		return model.Sale{}, &ValidationError{Msg: fmt.Sprintf("invalid payment method %q", in.PaymentMethod)}
	}
	if in.PaymentMethod == model.PaymentTransfer && strings.TrimSpace(in.CustomerID) == "" {
		return model.Sale{}, &ValidationError{Msg: "transfer sales require a customer"}
	}

	sale := model.Sale{
		ID:            uuid.NewString(),
		CustomerID:    strings.TrimSpace(in.CustomerID),
		PaymentMethod: in.PaymentMethod,
	}

	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return model.Sale{}, &ValidationError{Msg: "item quantity must be positive"}
		}
		switch item.Kind {
		case model.ItemService:
			svc, err := s.services.Get(ctx, item.RefID)
			if err != nil {
				if storage.IsNotFound(err) {
					return model.Sale{}, &ValidationError{Msg: "unknown service " + item.RefID}
				}
				return model.Sale{}, err
			}
			if !svc.Active {
				return model.Sale{}, &ValidationError{Msg: "service " + svc.Name + " is inactive"}
			}
			sale.Items = append(sale.Items, model.SaleItem{
				Kind:           model.ItemService,
				RefID:          svc.ID,
				Description:    svc.Name,
				Quantity:       item.Quantity,
				UnitPriceCents: svc.PriceCents,
			})
		case model.ItemProduct:
			p, err := s.products.Get(ctx, item.RefID)
			if err != nil {
				if storage.IsNotFound(err) {
					return model.Sale{}, &ValidationError{Msg: "unknown product " + item.RefID}
				}
				return model.Sale{}, err
			}
			if !p.Active {
				return model.Sale{}, &ValidationError{Msg: "product " + p.Name + " is inactive"}
			}
			sale.Items = append(sale.Items, model.SaleItem{
				Kind:           model.ItemProduct,
				RefID:          p.ID,
				Description:    p.Name,
				Quantity:       item.Quantity,
				UnitPriceCents: p.PriceCents,
			})
		default:
			return model.Sale{}, &ValidationError{Msg: fmt.Sprintf("invalid item kind %q", item.Kind)}
		}
	}

	for _, item := range sale.Items {
		sale.TotalCents += item.UnitPriceCents * int64(item.Quantity)
	}

	// Cash tenders land in the register when one is open. Not a checkout
	// precondition: card and transfer sales work with the register closed.
	var entry *model.CashEntry
	register, err := s.registers.CurrentOpen(ctx)
	switch {
	case err == nil:
		sale.RegisterID = register.ID
		if in.PaymentMethod == model.PaymentCash {
			entry = &model.CashEntry{
				RegisterID:  register.ID,
				Type:        model.EntryIncome,
				AmountCents: sale.TotalCents,
				Description: "sale",
			}
		}
	case storage.IsNotFound(err):
		if in.PaymentMethod == model.PaymentCash {
			return model.Sale{}, &ValidationError{Msg: "cash sales require an open register"}
		}
	default:
		return model.Sale{}, err
	}

	// Charge before the local write: a declined card must not touch stock.
	// A crash between charge and commit is recoverable through the
	// processor's idempotency key.
	if in.PaymentMethod == model.PaymentCard && sale.TotalCents > 0 {
		res, err := s.processor.Charge(ctx, payments.ChargeInput{
			SaleID:         sale.ID,
			AmountCents:    sale.TotalCents,
			Description:    "pos sale",
			IdempotencyKey: in.IdempotencyKey,
		})
		if err != nil {
			s.logger.Error("card charge failed", "sale_id", sale.ID, "err", err)
			return model.Sale{}, fmt.Errorf("%w: %v", ErrChargeFailed, err)
		}
		sale.PaymentRef = res.ProviderRef
	}

	var recv *model.Receivable
	if in.PaymentMethod == model.PaymentTransfer {
		recv = &model.Receivable{
			CustomerID:  sale.CustomerID,
			Description: "sale",
			AmountCents: sale.TotalCents,
			DueDate:     time.Now().UTC().AddDate(0, 0, s.receivableTermDays),
		}
	}

	evt, err := saleEvent(&sale)
	if err != nil {
		return model.Sale{}, err
	}
	if err := s.sales.RecordSale(ctx, &sale, entry, recv, evt); err != nil {
		return model.Sale{}, err
	}
	return sale, nil
}

func saleEvent(sale *model.Sale) (outbox.Event, error) {
	items := make([]map[string]any, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, map[string]any{
			"kind":             it.Kind,
			"ref_id":           it.RefID,
			"quantity":         it.Quantity,
			"unit_price_cents": it.UnitPriceCents,
		})
	}
	payload, err := json.Marshal(map[string]any{
		"sale_id":        sale.ID,
		"customer_id":    sale.CustomerID,
		"payment_method": sale.PaymentMethod,
		"total_cents":    sale.TotalCents,
		"items":          items,
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "sale",
		AggregateID:   sale.ID,
		EventType:     outbox.EventSaleCompleted,
		Payload:       payload,
	}, nil
}
