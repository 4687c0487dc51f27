package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/outbox"
)

const appointmentColumns = `id, client_id, service, date, time, unique_code, status, created_at, COALESCE(master_id, 0)`

// InsertAppointment persists appt and fills ID and CreatedAt. A concurrent
// booking of the same active slot fails with ErrSlotTaken.
func (r *Repository) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO appointments (client_id, service, date, time, unique_code, status, master_id)
			VALUES ($1, $2, $3::date, $4, $5, $6, NULLIF($7::bigint, 0))
			RETURNING id, created_at
		`, appt.ClientID, appt.Service, appt.DateString(), appt.Time, appt.Code, string(appt.Status), appt.MasterID,
		).Scan(&appt.ID, &appt.CreatedAt)
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateAppointment, appt.Code, outbox.AppointmentBooked, map[string]any{
			"code":      appt.Code,
			"client_id": appt.ClientID,
			"service":   appt.Service,
			"date":      appt.DateString(),
			"time":      appt.Time,
			"master_id": appt.MasterID,
		})
	})
	return translate(err)
}

func (r *Repository) FindAppointmentByCode(ctx context.Context, code string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE unique_code = $1`, code)
	appt, err := scanAppointment(row)
	return appt, translate(err)
}

func (r *Repository) ListOccupiedSlots(ctx context.Context, date time.Time, service string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time
		FROM appointments
		WHERE date = $1::date AND service = $2 AND status = 'active'
		ORDER BY time
	`, date.Format(model.DateLayout), service)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// UpdateAppointmentStatus moves the appointment from one status to another in
// a single conditional update. It reports false when no row was in status from.
func (r *Repository) UpdateAppointmentStatus(ctx context.Context, code string, from, to model.AppointmentStatus) (bool, error) {
	var changed bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3
			WHERE unique_code = $1 AND status = $2
			RETURNING `+appointmentColumns, code, string(from), string(to))
		appt, err := scanAppointment(row)
		if err != nil {
			if translate(err) == ErrNotFound {
				return nil
			}
			return err
		}
		changed = true
		if to != model.AppointmentCanceled {
			return nil
		}
		return r.emit(ctx, tx, outbox.AggregateAppointment, code, outbox.AppointmentCanceled, map[string]any{
			"code":      appt.Code,
			"client_id": appt.ClientID,
			"service":   appt.Service,
			"date":      appt.DateString(),
			"time":      appt.Time,
			"master_id": appt.MasterID,
		})
	})
	return changed, translate(err)
}

func (r *Repository) ListAppointmentsByService(ctx context.Context, service string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE service = $1 AND status = 'active'
		ORDER BY date, time
	`, service)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// ListMasterAppointments returns active appointments of a master with a date
// in [from, to]. A zero to leaves the range open-ended.
func (r *Repository) ListMasterAppointments(ctx context.Context, masterID int64, from, to time.Time) ([]model.Appointment, error) {
	var toArg any
	if !to.IsZero() {
		toArg = to.Format(model.DateLayout)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE master_id = $1
			AND status = 'active'
			AND date >= $2::date
			AND ($3::date IS NULL OR date <= $3::date)
		ORDER BY date, time
	`, masterID, from.Format(model.DateLayout), toArg)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.ClientID,
		&appt.Service,
		&appt.Date,
		&appt.Time,
		&appt.Code,
		&status,
		&appt.CreatedAt,
		&appt.MasterID,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.AppointmentStatus(status)
	return appt, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}
