// Package booking owns the appointment lifecycle: the slot grid, availability,
// creation and cancellation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

const codeAttempts = 3

var tracer = otel.Tracer("salon-bot/booking")

type Store interface {
	InsertAppointment(ctx context.Context, appt *model.Appointment) error
	FindAppointmentByCode(ctx context.Context, code string) (model.Appointment, error)
	ListOccupiedSlots(ctx context.Context, date time.Time, service string) ([]string, error)
	UpdateAppointmentStatus(ctx context.Context, code string, from, to model.AppointmentStatus) (bool, error)
	ListAppointmentsByService(ctx context.Context, service string) ([]model.Appointment, error)
}

type Notifier interface {
	NotifyAdminNewBooking(ctx context.Context, appt model.Appointment)
	NotifyAdminCancellation(ctx context.Context, appt model.Appointment)
	NotifyStaffNewBooking(ctx context.Context, staffID int64, appt model.Appointment)
	NotifyClientCancellation(ctx context.Context, clientID int64, appt model.Appointment)
}

type Reminders interface {
	ScheduleNotifications(ctx context.Context, clientID int64, appt model.Appointment) error
	CancelForAppointment(ctx context.Context, code string) error
}

type Config struct {
	Location *time.Location
	Now      func() time.Time
	// NewCode generates booking codes. Defaults to the first 8 characters of a
	// random UUID, upper-cased.
	NewCode func() string
}

type Engine struct {
	store     Store
	notifier  Notifier
	reminders Reminders
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	newCode   func() string
}

func NewEngine(store Store, notifier Notifier, reminders Reminders, logger *slog.Logger, cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewCode == nil {
		cfg.NewCode = NewCode
	}
	return &Engine{
		store:     store,
		notifier:  notifier,
		reminders: reminders,
		logger:    logger,
		loc:       cfg.Location,
		now:       cfg.Now,
		newCode:   cfg.NewCode,
	}
}

func NewCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) AvailableDates() iter.Seq[time.Time] {
	return AvailableDates(e.now(), e.loc)
}

// IsBookableDate reports whether d falls inside the booking horizon.
func (e *Engine) IsBookableDate(d time.Time) bool {
	day := midnight(d, e.loc)
	for candidate := range e.AvailableDates() {
		if candidate.Equal(day) {
			return true
		}
	}
	return false
}

// CheckAvailability returns the set of already booked times for date and service.
func (e *Engine) CheckAvailability(ctx context.Context, date time.Time, service string) (map[string]bool, error) {
	slots, err := e.store.ListOccupiedSlots(ctx, midnight(date, e.loc), service)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, "Could not load free times", err)
	}
	occupied := make(map[string]bool, len(slots))
	for _, s := range slots {
		occupied[s] = true
	}
	return occupied, nil
}

// CreateAppointment books slot on date for the client. The availability check
// only spares the client a doomed insert; the store's unique index on active
// slots decides who wins a race.
func (e *Engine) CreateAppointment(ctx context.Context, clientID int64, service string, date time.Time, slot string, masterID int64) (appt model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("booking.service", service),
		attribute.String("booking.date", date.Format(model.DateLayout)),
		attribute.String("booking.time", slot),
	)

	service = strings.TrimSpace(service)
	if service == "" {
		return model.Appointment{}, apperr.New(apperr.ErrValidation, "Choose a service first")
	}
	if date.IsZero() {
		return model.Appointment{}, apperr.New(apperr.ErrValidation, "Choose a date first")
	}
	if !validSlot(slot) {
		return model.Appointment{}, apperr.New(apperr.ErrValidation, fmt.Sprintf("%q is not a bookable time", slot))
	}

	day := midnight(date, e.loc)
	if !e.IsBookableDate(day) {
		return model.Appointment{}, apperr.New(apperr.ErrValidation, "This date is no longer available for booking")
	}
	occupied, err := e.CheckAvailability(ctx, day, service)
	if err != nil {
		return model.Appointment{}, err
	}
	if occupied[slot] {
		return model.Appointment{}, apperr.New(apperr.ErrSlotTaken, "The selected time is already taken")
	}

	for attempt := 1; attempt <= codeAttempts; attempt++ {
		appt = model.Appointment{
			ClientID: clientID,
			Service:  service,
			Date:     day,
			Time:     slot,
			Code:     e.newCode(),
			Status:   model.AppointmentActive,
			MasterID: masterID,
		}
		err = e.store.InsertAppointment(ctx, &appt)
		switch {
		case err == nil:
			span.SetAttributes(attribute.String("booking.code", appt.Code))
			e.logger.Info("appointment created", "code", appt.Code, "client_id", clientID, "service", service, "date", appt.DateString(), "time", slot, "master_id", masterID)
			return appt, nil
		case errors.Is(err, storage.ErrSlotTaken):
			return model.Appointment{}, apperr.Wrap(apperr.ErrSlotTaken, "The selected time is already taken", err)
		case errors.Is(err, storage.ErrDuplicateCode):
			e.logger.Warn("booking code collision, regenerating", "code", appt.Code, "attempt", attempt)
			continue
		default:
			e.logger.Error("appointment insert failed", "client_id", clientID, "service", service, "err", err)
			return model.Appointment{}, apperr.Wrap(apperr.ErrPersistence, "Could not save the booking", err)
		}
	}
	return model.Appointment{}, apperr.Wrap(apperr.ErrPersistence, "Could not save the booking", err)
}

// ProcessAppointment notifies the admin and the master of a new booking and
// schedules its reminders. Only a scheduling failure is reported.
func (e *Engine) ProcessAppointment(ctx context.Context, appt model.Appointment) error {
	e.notifier.NotifyAdminNewBooking(ctx, appt)
	e.notifier.NotifyStaffNewBooking(ctx, appt.MasterID, appt)
	if err := e.reminders.ScheduleNotifications(ctx, appt.ClientID, appt); err != nil {
		e.logger.Error("reminder scheduling failed", "code", appt.Code, "err", err)
		return err
	}
	return nil
}

// CancelAppointment cancels the appointment with the given code on behalf of
// requesterID. Only the owning client or an admin may cancel.
func (e *Engine) CancelAppointment(ctx context.Context, code string, requesterID int64, isAdmin bool) (appt model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.cancel")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	code = strings.ToUpper(strings.TrimSpace(code))
	span.SetAttributes(attribute.String("booking.code", code), attribute.Bool("booking.admin", isAdmin))

	appt, err = e.store.FindAppointmentByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, apperr.New(apperr.ErrNotFound, "Booking not found")
		}
		return model.Appointment{}, apperr.Wrap(apperr.ErrPersistence, "Could not load the booking", err)
	}
	if appt.ClientID != requesterID && !isAdmin {
		return model.Appointment{}, apperr.New(apperr.ErrForbidden, "You are not allowed to cancel this booking")
	}
	if !appt.IsActive() {
		return model.Appointment{}, apperr.New(apperr.ErrAlreadyCanceled, "The booking is already canceled")
	}

	changed, err := e.store.UpdateAppointmentStatus(ctx, code, model.AppointmentActive, model.AppointmentCanceled)
	if err != nil {
		return model.Appointment{}, apperr.Wrap(apperr.ErrPersistence, "Could not cancel the booking", err)
	}
	if !changed {
		return model.Appointment{}, apperr.New(apperr.ErrAlreadyCanceled, "The booking is already canceled")
	}
	appt.Status = model.AppointmentCanceled
	e.logger.Info("appointment canceled", "code", code, "requester_id", requesterID, "admin", isAdmin)

	e.notifier.NotifyAdminCancellation(ctx, appt)
	if isAdmin && appt.ClientID != requesterID {
		e.notifier.NotifyClientCancellation(ctx, appt.ClientID, appt)
	}
	if err := e.reminders.CancelForAppointment(ctx, code); err != nil {
		e.logger.Error("reminder cancellation failed", "code", code, "err", err)
	}
	return appt, nil
}

// Appointment looks up an appointment by its booking code.
func (e *Engine) Appointment(ctx context.Context, code string) (model.Appointment, error) {
	appt, err := e.store.FindAppointmentByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Appointment{}, apperr.New(apperr.ErrNotFound, "Booking not found")
		}
		return model.Appointment{}, apperr.Wrap(apperr.ErrPersistence, "Could not load the booking", err)
	}
	return appt, nil
}

// ListByService returns the active appointments of a service ordered by date and time.
func (e *Engine) ListByService(ctx context.Context, service string) ([]model.Appointment, error) {
	appts, err := e.store.ListAppointmentsByService(ctx, service)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, "Could not load bookings", err)
	}
	return appts, nil
}
