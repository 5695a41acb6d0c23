package model

import "time"

type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	BirthDate *time.Time
	Notes     string
	Active    bool
	CreatedAt time.Time
}
