package model

import "time"

type Professional struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	CommissionPercent int
	Active            bool
	CreatedAt         time.Time
}

// ScheduleWindow is a recurring weekly availability window.
// Minutes are minutes from midnight (540 = 09:00).
type ScheduleWindow struct {
	Weekday     int
	IsWorking   bool
	StartMinute int
	EndMinute   int
}

// ServiceOffering pairs a professional with a catalog service.
// CommissionPercent overrides the professional default when non-nil.
type ServiceOffering struct {
	ProfessionalID    string
	ServiceID         string
	CommissionPercent *int
}
