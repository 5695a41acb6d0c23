package model

import "time"

// Appointment statuses. Canceled and completed are terminal: the lifecycle
// manager never moves an appointment out of them implicitly.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Appointment struct {
	ID              string
	CustomerID      string
	ProfessionalID  string
	ServiceID       string
	StartTime       time.Time
	EndTime         time.Time
	Status          string
	Notes           string
	TotalPriceCents *int64
	ReminderSent    bool
	// ExternalEventRef links the appointment to an event in the external
	// calendar. Empty when the event was never created or the sync failed.
	ExternalEventRef string
	CreatedAt        time.Time
}
