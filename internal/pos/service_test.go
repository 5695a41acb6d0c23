package pos

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/reboucasericka/sistema-api/internal/model"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/internal/payments"
	"github.com/reboucasericka/sistema-api/internal/storage"
)

type fakeSaleStore struct {
	recorded *model.Sale
	entry    *model.CashEntry
	recv     *model.Receivable
	evt      outbox.Event
	err      error
}

func (s *fakeSaleStore) RecordSale(_ context.Context, sale *model.Sale, entry *model.CashEntry, recv *model.Receivable, evt outbox.Event) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = sale
	s.entry = entry
	s.recv = recv
	s.evt = evt
	return nil
}

type fakeServiceCatalog map[string]model.Service

func (c fakeServiceCatalog) Get(_ context.Context, id string) (model.Service, error) {
	svc, ok := c[id]
	if !ok {
		return model.Service{}, storage.ErrNotFound
	}
	return svc, nil
}

type fakeProductCatalog map[string]model.Product

func (c fakeProductCatalog) Get(_ context.Context, id string) (model.Product, error) {
	p, ok := c[id]
	if !ok {
		return model.Product{}, storage.ErrNotFound
	}
	return p, nil
}

type fakeRegisterStore struct {
	open *model.CashRegister
}

func (s *fakeRegisterStore) CurrentOpen(_ context.Context) (model.CashRegister, error) {
	if s.open == nil {
		return model.CashRegister{}, storage.ErrNotFound
	}
	return *s.open, nil
}

type fakeProcessor struct {
	calls int
	err   error
}

func (p *fakeProcessor) Charge(_ context.Context, in payments.ChargeInput) (payments.ChargeResult, error) {
	p.calls++
	if p.err != nil {
		return payments.ChargeResult{}, p.err
	}
	return payments.ChargeResult{ProviderRef: "pi-" + in.SaleID, Status: "succeeded"}, nil
}

type fixture struct {
	sales     *fakeSaleStore
	services  fakeServiceCatalog
	products  fakeProductCatalog
	registers *fakeRegisterStore
	processor *fakeProcessor
	svc       *Service

	serviceID string
	productID string
}

func newFixture() *fixture {
	f := &fixture{
		sales:     &fakeSaleStore{},
		services:  fakeServiceCatalog{},
		products:  fakeProductCatalog{},
		registers: &fakeRegisterStore{},
		processor: &fakeProcessor{},
		serviceID: uuid.NewString(),
		productID: uuid.NewString(),
	}
	f.services[f.serviceID] = model.Service{ID: f.serviceID, Name: "Haircut", PriceCents: 8000, Active: true}
	f.products[f.productID] = model.Product{ID: f.productID, Name: "Shampoo", PriceCents: 4500, Quantity: 10, Active: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.sales, f.services, f.products, f.registers, f.processor, logger)
	return f
}

func TestCheckoutCashWithOpenRegister(t *testing.T) {
	f := newFixture()
	f.registers.open = &model.CashRegister{ID: uuid.NewString()}

	sale, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PaymentMethod: model.PaymentCash,
		Items: []CheckoutItem{
			{Kind: model.ItemService, RefID: f.serviceID, Quantity: 1},
			{Kind: model.ItemProduct, RefID: f.productID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if sale.TotalCents != 8000+2*4500 {
		t.Fatalf("total = %d", sale.TotalCents)
	}
	if sale.RegisterID != f.registers.open.ID {
		t.Fatalf("register id = %q", sale.RegisterID)
	}
	if f.sales.entry == nil || f.sales.entry.Type != model.EntryIncome || f.sales.entry.AmountCents != sale.TotalCents {
		t.Fatalf("entry = %+v", f.sales.entry)
	}
	if f.sales.evt.EventType != outbox.EventSaleCompleted {
		t.Fatalf("event type = %q", f.sales.evt.EventType)
	}
	if f.processor.calls != 0 {
		t.Fatal("cash sale must not hit the card processor")
	}
}

func TestCheckoutCashRequiresOpenRegister(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PaymentMethod: model.PaymentCash,
		Items:         []CheckoutItem{{Kind: model.ItemService, RefID: f.serviceID, Quantity: 1}},
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if f.sales.recorded != nil {
		t.Fatal("nothing should be recorded")
	}
}

func TestCheckoutCardCharges(t *testing.T) {
	f := newFixture()

	sale, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PaymentMethod: model.PaymentCard,
		Items:         []CheckoutItem{{Kind: model.ItemService, RefID: f.serviceID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if f.processor.calls != 1 {
		t.Fatalf("processor calls = %d", f.processor.calls)
	}
	if sale.PaymentRef != "pi-"+sale.ID {
		t.Fatalf("payment ref = %q", sale.PaymentRef)
	}
	if f.sales.entry != nil {
		t.Fatal("card sale should not write a cash entry")
	}
}

func TestCheckoutCardDeclinedRecordsNothing(t *testing.T) {
	f := newFixture()
	f.processor.err = errors.New("card declined")

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PaymentMethod: model.PaymentCard,
		Items:         []CheckoutItem{{Kind: model.ItemService, RefID: f.serviceID, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.sales.recorded != nil {
		t.Fatal("declined charge must not record a sale")
	}
}

func TestCheckoutTransferCreatesReceivable(t *testing.T) {
	f := newFixture()
	customerID := uuid.NewString()

	sale, err := f.svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    customerID,
		PaymentMethod: model.PaymentTransfer,
		Items:         []CheckoutItem{{Kind: model.ItemProduct, RefID: f.productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if f.sales.recv == nil {
		t.Fatal("expected a receivable")
	}
	if f.sales.recv.CustomerID != customerID || f.sales.recv.AmountCents != sale.TotalCents {
		t.Fatalf("receivable = %+v", f.sales.recv)
	}
}

func TestCheckoutTransferRequiresCustomer(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		PaymentMethod: model.PaymentTransfer,
		Items:         []CheckoutItem{{Kind: model.ItemProduct, RefID: f.productID, Quantity: 1}},
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CheckoutInput
	}{
		{"no items", CheckoutInput{PaymentMethod: model.PaymentCard}},
		{"bad method", CheckoutInput{PaymentMethod: "check", Items: []CheckoutItem{{Kind: model.ItemService, RefID: f.serviceID, Quantity: 1}}}},
		{"zero quantity", CheckoutInput{PaymentMethod: model.PaymentCard, Items: []CheckoutItem{{Kind: model.ItemService, RefID: f.serviceID, Quantity: 0}}}},
		{"bad kind", CheckoutInput{PaymentMethod: model.PaymentCard, Items: []CheckoutItem{{Kind: "bundle", RefID: f.serviceID, Quantity: 1}}}},
		{"unknown service", CheckoutInput{PaymentMethod: model.PaymentCard, Items: []CheckoutItem{{Kind: model.ItemService, RefID: uuid.NewString(), Quantity: 1}}}},
		{"unknown product", CheckoutInput{PaymentMethod: model.PaymentCard, Items: []CheckoutItem{{Kind: model.ItemProduct, RefID: uuid.NewString(), Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Checkout(ctx, tc.in); !IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}
