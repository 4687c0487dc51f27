package reminders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/salonbot/libs/otel"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/loop"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

type DueStore interface {
	FetchDueReminderJobs(ctx context.Context, now time.Time, limit int) ([]model.ReminderJob, error)
	MarkReminderJobs(ctx context.Context, ids []int64, status model.ReminderStatus) error
	FindAppointmentByCode(ctx context.Context, code string) (model.Appointment, error)
}

type Notifier interface {
	NotifyClientReminder(ctx context.Context, clientID int64, appt model.Appointment)
	PromptReview(ctx context.Context, clientID int64, code string)
}

type Submitter interface {
	Submit(ctx context.Context, name string, fn loop.Task) error
}

type Worker struct {
	store     DueStore
	notifier  Notifier
	loop      Submitter
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	interval  time.Duration
	batchSize int
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Location  *time.Location
	Now       func() time.Time
}

func NewWorker(store DueStore, notifier Notifier, l Submitter, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Worker{
		store:     store,
		notifier:  notifier,
		loop:      l,
		logger:    logger,
		loc:       cfg.Location,
		now:       cfg.Now,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

// Run hands a batch of due jobs to the event loop on every tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.loop.Submit(ctx, "reminders.process_due", func(ctx context.Context) {
				if err := w.ProcessDue(ctx); err != nil {
					w.logger.Error("reminder batch failed", "err", err)
				}
			})
			if err != nil && ctx.Err() == nil {
				w.logger.Error("reminder batch not queued", "err", err)
			}
		}
	}
}

// ProcessDue fires every pending job whose time has come. Reminders for an
// appointment that has already started are expired instead of sent.
func (w *Worker) ProcessDue(ctx context.Context) error {
	now := w.now()
	jobs, err := w.store.FetchDueReminderJobs(ctx, now, w.batchSize)
	if err != nil {
		return err
	}

	var sent, expired []int64
	for _, job := range jobs {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
		if job.Kind == model.ReminderReviewRequest {
			w.notifier.PromptReview(jobCtx, job.ClientID, job.AppointmentCode)
			sent = append(sent, job.ID)
			continue
		}

		appt, err := w.store.FindAppointmentByCode(jobCtx, job.AppointmentCode)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				w.logger.Warn("reminder for unknown appointment", "code", job.AppointmentCode, "job_id", job.ID)
				expired = append(expired, job.ID)
				continue
			}
			w.logger.Error("reminder appointment lookup failed", "code", job.AppointmentCode, "job_id", job.ID, "err", err)
			continue
		}
		start, err := appt.StartsAt(w.loc)
		if err != nil || !start.After(now) {
			expired = append(expired, job.ID)
			continue
		}
		w.notifier.NotifyClientReminder(jobCtx, job.ClientID, appt)
		sent = append(sent, job.ID)
	}

	if err := w.store.MarkReminderJobs(ctx, sent, model.ReminderSent); err != nil {
		return err
	}
	if err := w.store.MarkReminderJobs(ctx, expired, model.ReminderExpired); err != nil {
		return err
	}
	if len(jobs) > 0 {
		w.logger.Info("reminders processed", "sent", len(sent), "expired", len(expired))
	}
	return nil
}
