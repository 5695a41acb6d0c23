package model

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	CostCents   int64
	Quantity    int
	MinQuantity int
	Active      bool
	CreatedAt   time.Time
}

// Stock movement types.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

func ValidMovementType(s string) bool {
	switch s {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

type StockMovement struct {
	ID        string
	ProductID string
	Type      string
	// Quantity is the delta applied to the product: positive for "in",
	// negative for "out", either sign for "adjustment".
	Quantity  int
	Reason    string
	CreatedAt time.Time
}
