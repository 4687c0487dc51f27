// Package outbox stores domain events next to the state change that caused
// them and relays them to Kafka. The topic name equals the event type.
package outbox

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	// Payload is encoded as JSON on insert.
	Payload any
}

const (
	AggregateAppointment = "appointment"
	AggregateReview      = "review"

	AppointmentBooked   = "booking.appointment.booked.v1"
	AppointmentCanceled = "booking.appointment.canceled.v1"
	ReviewSubmitted     = "review.submitted.v1"
	ReviewBlocked       = "review.blocked.v1"
)
