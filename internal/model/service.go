package model

import "time"

type Service struct {
	ID              string
	Name            string
	Description     string
	PriceCents      int64
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
}
