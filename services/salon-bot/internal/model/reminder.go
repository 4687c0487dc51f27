package model

import "time"

type ReminderKind string

const (
	ReminderDayBefore     ReminderKind = "day_before"
	ReminderPreVisit      ReminderKind = "pre_visit"
	ReminderReviewRequest ReminderKind = "review_request"
)

type ReminderStatus string

const (
	ReminderPending  ReminderStatus = "pending"
	ReminderSent     ReminderStatus = "sent"
	ReminderCanceled ReminderStatus = "canceled"
	ReminderExpired  ReminderStatus = "expired"
)

// ReminderJob is a persisted one-shot notification.
type ReminderJob struct {
	ID              int64
	AppointmentCode string
	ClientID        int64
	Kind            ReminderKind
	FireAt          time.Time
	Status          ReminderStatus
	Traceparent     string
	Tracestate      string
}
