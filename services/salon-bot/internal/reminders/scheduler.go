// Package reminders turns a booked appointment into persisted one-shot
// notification jobs and fires them when they come due.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/salonbot/libs/otel"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

const (
	dayBeforeOffset = 24 * time.Hour
	preVisitOffset  = 2 * time.Hour
	reviewOffset    = 2 * time.Hour
)

type Fire struct {
	Kind model.ReminderKind
	At   time.Time
}

// FireTimes returns the day-before reminder, the pre-visit reminder and the
// review request for an appointment starting at t, in that order.
func FireTimes(t time.Time) []Fire {
	return []Fire{
		{Kind: model.ReminderDayBefore, At: t.Add(-dayBeforeOffset)},
		{Kind: model.ReminderPreVisit, At: t.Add(-preVisitOffset)},
		{Kind: model.ReminderReviewRequest, At: t.Add(reviewOffset)},
	}
}

type JobStore interface {
	InsertReminderJobs(ctx context.Context, jobs []model.ReminderJob) error
	CancelReminderJobs(ctx context.Context, code string) (int64, error)
}

type Scheduler struct {
	store             JobStore
	logger            *slog.Logger
	loc               *time.Location
	now               func() time.Time
	cancelWithBooking bool
}

type SchedulerConfig struct {
	Location *time.Location
	Now      func() time.Time
	// CancelWithAppointment drops pending jobs when their appointment is canceled.
	CancelWithAppointment bool
}

func NewScheduler(store JobStore, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		store:             store,
		logger:            logger,
		loc:               cfg.Location,
		now:               cfg.Now,
		cancelWithBooking: cfg.CancelWithAppointment,
	}
}

// ScheduleNotifications persists the reminder jobs of appt. Fire times that
// are not in the future are skipped.
func (s *Scheduler) ScheduleNotifications(ctx context.Context, clientID int64, appt model.Appointment) error {
	start, err := appt.StartsAt(s.loc)
	if err != nil {
		return err
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	now := s.now()

	var jobs []model.ReminderJob
	for _, f := range FireTimes(start) {
		if !f.At.After(now) {
			s.logger.Info("reminder skipped, fire time passed", "code", appt.Code, "kind", f.Kind, "fire_at", f.At)
			continue
		}
		jobs = append(jobs, model.ReminderJob{
			AppointmentCode: appt.Code,
			ClientID:        clientID,
			Kind:            f.Kind,
			FireAt:          f.At,
			Status:          model.ReminderPending,
			Traceparent:     traceparent,
			Tracestate:      tracestate,
		})
	}
	if err := s.store.InsertReminderJobs(ctx, jobs); err != nil {
		return fmt.Errorf("schedule reminders for %s: %w", appt.Code, err)
	}
	s.logger.Info("reminders scheduled", "code", appt.Code, "jobs", len(jobs))
	return nil
}

// CancelForAppointment cancels the pending jobs of an appointment. It does
// nothing when cancellation is disabled.
func (s *Scheduler) CancelForAppointment(ctx context.Context, code string) error {
	if !s.cancelWithBooking {
		return nil
	}
	n, err := s.store.CancelReminderJobs(ctx, code)
	if err != nil {
		return fmt.Errorf("cancel reminders for %s: %w", code, err)
	}
	s.logger.Info("reminders canceled", "code", code, "jobs", n)
	return nil
}
