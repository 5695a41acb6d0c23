package payments

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// ChargeInput describes one card charge taken at checkout. AmountCents is in
// the smallest currency unit.
type ChargeInput struct {
	SaleID         string
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
}

type ChargeResult struct {
	// ProviderRef identifies the charge at the payment provider.
	ProviderRef string
	Status      string
}

// Processor takes card payments. The local register keeps working when the
// provider is a Noop (cash-only deployments).
type Processor interface {
	Charge(ctx context.Context, in ChargeInput) (ChargeResult, error)
}

// StripeProcessor charges through Stripe PaymentIntents with automatic
// confirmation.
type StripeProcessor struct {
	currency string
}

// NewStripeProcessor sets the global Stripe API key. stripe-go uses a
// package-level key, so one processor per process.
func NewStripeProcessor(secretKey, currency string) *StripeProcessor {
	stripe.Key = strings.TrimSpace(secretKey)
	if currency == "" {
		currency = "brl"
	}
	return &StripeProcessor{currency: strings.ToLower(currency)}
}

func (p *StripeProcessor) Charge(ctx context.Context, in ChargeInput) (ChargeResult, error) {
	currency := in.Currency
	if currency == "" {
		currency = p.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
		Metadata: map[string]string{
			"sale_id": in.SaleID,
		},
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	idemKey := strings.TrimSpace(in.IdempotencyKey)
	if idemKey == "" {
		// Deterministic fallback dedupes in-process replays of the same
		// sale (e.g. a crash between charge and commit). Client retries
		// get a fresh sale id, so cross-request dedup needs the
		// Idempotency-Key header.
		idemKey = "sale:" + in.SaleID
	}
	params.IdempotencyKey = stripe.String(idemKey)
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return ChargeResult{}, err
	}
	return ChargeResult{ProviderRef: pi.ID, Status: string(pi.Status)}, nil
}

// NoopProcessor records card tenders without contacting a provider. Used when
// STRIPE_SECRET_KEY is not configured.
type NoopProcessor struct{}

func (NoopProcessor) Charge(_ context.Context, in ChargeInput) (ChargeResult, error) {
	return ChargeResult{ProviderRef: "local-" + in.SaleID, Status: "recorded"}, nil
}
