package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentActive   AppointmentStatus = "active"
	AppointmentCanceled AppointmentStatus = "canceled"
)

// DateLayout and TimeLayout are the wire formats for an appointment's
// calendar date and time-of-day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Appointment struct {
	ID        int64
	ClientID  int64
	Service   string
	Date      time.Time
	Time      string
	Code      string
	Status    AppointmentStatus
	CreatedAt time.Time
	MasterID  int64
}

func (a Appointment) IsActive() bool {
	return a.Status == AppointmentActive
}

// StartsAt combines Date and Time into an instant in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	tod, err := time.Parse(TimeLayout, a.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment %s: invalid time %q: %w", a.Code, a.Time, err)
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

func (a Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}
