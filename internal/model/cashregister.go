package model

import "time"

// Cash entry types.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

type CashRegister struct {
	ID            string
	OpenedBy      string
	OpeningCents  int64
	ClosingCents  *int64
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

type CashEntry struct {
	ID          string
	RegisterID  string
	Type        string
	AmountCents int64
	Description string
	SaleID      string
	CreatedAt   time.Time
}
