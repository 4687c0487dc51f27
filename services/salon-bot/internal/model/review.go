package model

import "time"

type ReviewStatus string

const (
	ReviewActive  ReviewStatus = "active"
	ReviewBlocked ReviewStatus = "blocked"
)

type Review struct {
	ID              int64
	AppointmentCode string
	ClientID        int64
	Rating          int
	Comment         string
	Status          ReviewStatus
	CreatedAt       time.Time

	// Filled by listing queries from the referenced appointment.
	Service string
	Date    time.Time
}
