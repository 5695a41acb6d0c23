package model

import "time"

// Payment methods accepted at the point of sale.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Sale item kinds.
const (
	ItemService = "service"
	ItemProduct = "product"
)

type Sale struct {
	ID            string
	CustomerID    string
	RegisterID    string
	PaymentMethod string
	TotalCents    int64
	// PaymentRef holds the card processor reference for card tenders.
	PaymentRef string
	Items      []SaleItem
	CreatedAt  time.Time
}

type SaleItem struct {
	ID     string
	SaleID string
	Kind   string
	// RefID is the service or product id depending on Kind.
	RefID          string
	Description    string
	Quantity       int
	UnitPriceCents int64
}
