package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

const masterColumns = `id, first_name, last_name, service, chat_id, username`

func (r *Repository) InsertMaster(ctx context.Context, m *model.Master) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO masters (first_name, last_name, service, chat_id, username)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.FirstName, m.LastName, m.Service, m.ChatID, m.Username).Scan(&m.ID)
	return translate(err)
}

// DeleteMaster hard-deletes the master. Appointments keep their master_id.
func (r *Repository) DeleteMaster(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM masters WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) FindStaffByID(ctx context.Context, id int64) (model.Master, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+masterColumns+` FROM masters WHERE id = $1`, id)
	m, err := scanMaster(row)
	return m, translate(err)
}

func (r *Repository) FindStaffByChatID(ctx context.Context, chatID int64) (model.Master, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+masterColumns+` FROM masters WHERE chat_id = $1`, chatID)
	m, err := scanMaster(row)
	return m, translate(err)
}

func (r *Repository) ListStaffByService(ctx context.Context, service string) ([]model.Master, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+masterColumns+` FROM masters WHERE service = $1 ORDER BY id`, service)
	if err != nil {
		return nil, err
	}
	return collectMasters(rows)
}

func (r *Repository) ListStaff(ctx context.Context) ([]model.Master, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+masterColumns+` FROM masters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectMasters(rows)
}

func scanMaster(row pgx.Row) (model.Master, error) {
	var m model.Master
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Service, &m.ChatID, &m.Username)
	return m, err
}

func collectMasters(rows pgx.Rows) ([]model.Master, error) {
	defer rows.Close()

	var masters []model.Master
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		masters = append(masters, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return masters, nil
}
