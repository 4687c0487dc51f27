package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

// InsertReminderJobs stores jobs atomically. A job already registered for the
// same appointment and kind is left untouched.
func (r *Repository) InsertReminderJobs(ctx context.Context, jobs []model.ReminderJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, j := range jobs {
			batch.Queue(`
				INSERT INTO reminder_jobs (appointment_code, client_id, kind, fire_at, status, traceparent, tracestate)
				VALUES ($1, $2, $3, $4, 'pending', $5, $6)
				ON CONFLICT (appointment_code, kind) DO NOTHING
			`, j.AppointmentCode, j.ClientID, string(j.Kind), j.FireAt.UTC(), j.Traceparent, j.Tracestate)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *Repository) FetchDueReminderJobs(ctx context.Context, now time.Time, limit int) ([]model.ReminderJob, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_code, client_id, kind, fire_at, status, traceparent, tracestate
		FROM reminder_jobs
		WHERE status = 'pending' AND fire_at <= $1
		ORDER BY fire_at, id
		LIMIT $2
	`, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.ReminderJob
	for rows.Next() {
		var j model.ReminderJob
		var kind, status string
		if err := rows.Scan(&j.ID, &j.AppointmentCode, &j.ClientID, &kind, &j.FireAt, &status, &j.Traceparent, &j.Tracestate); err != nil {
			return nil, err
		}
		j.Kind = model.ReminderKind(kind)
		j.Status = model.ReminderStatus(status)
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkReminderJobs(ctx context.Context, ids []int64, status model.ReminderStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE reminder_jobs
		SET status = $2, updated_at = now()
		WHERE id = ANY($1)
	`, ids, string(status))
	return err
}

// CancelReminderJobs cancels the pending jobs of an appointment and returns how many were affected.
func (r *Repository) CancelReminderJobs(ctx context.Context, code string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminder_jobs
		SET status = 'canceled', updated_at = now()
		WHERE appointment_code = $1 AND status = 'pending'
	`, code)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
