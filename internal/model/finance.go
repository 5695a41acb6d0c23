package model

import "time"

type Payable struct {
	ID          string
	Description string
	Supplier    string
	Category    string
	AmountCents int64
	DueDate     time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
}

type Receivable struct {
	ID          string
	CustomerID  string
	SaleID      string
	Description string
	AmountCents int64
	DueDate     time.Time
	ReceivedAt  *time.Time
	CreatedAt   time.Time
}
