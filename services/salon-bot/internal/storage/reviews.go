package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/outbox"
)

const reviewColumns = `r.id, r.appointment_code, r.client_id, r.rating, r.comment, r.status, r.created_at, a.service, a.date`

func (r *Repository) InsertReview(ctx context.Context, rv *model.Review) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO reviews (appointment_code, client_id, rating, comment, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, rv.AppointmentCode, rv.ClientID, rv.Rating, rv.Comment, string(rv.Status)).Scan(&rv.ID, &rv.CreatedAt)
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.AggregateReview, rv.AppointmentCode, outbox.ReviewSubmitted, map[string]any{
			"review_id": rv.ID,
			"code":      rv.AppointmentCode,
			"client_id": rv.ClientID,
			"rating":    rv.Rating,
		})
	})
	return translate(err)
}

func (r *Repository) FindReviewByID(ctx context.Context, id int64) (model.Review, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN appointments a ON a.unique_code = r.appointment_code
		WHERE r.id = $1
	`, id)
	rv, err := scanReview(row)
	return rv, translate(err)
}

// UpdateReviewStatus reports false when no review has the given id or the
// review already has status. Only a real change emits an event.
func (r *Repository) UpdateReviewStatus(ctx context.Context, id int64, status model.ReviewStatus) (bool, error) {
	var changed bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var code string
		err := tx.QueryRow(ctx, `
			UPDATE reviews SET status = $2
			WHERE id = $1 AND status <> $2
			RETURNING appointment_code
		`, id, string(status)).Scan(&code)
		if err != nil {
			if translate(err) == ErrNotFound {
				return nil
			}
			return err
		}
		changed = true
		if status != model.ReviewBlocked {
			return nil
		}
		return r.emit(ctx, tx, outbox.AggregateReview, code, outbox.ReviewBlocked, map[string]any{
			"review_id": id,
			"code":      code,
		})
	})
	return changed, translate(err)
}

func (r *Repository) ListReviewsByClient(ctx context.Context, clientID int64) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN appointments a ON a.unique_code = r.appointment_code
		WHERE r.client_id = $1 AND r.status = 'active'
		ORDER BY r.created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *Repository) ListActiveReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN appointments a ON a.unique_code = r.appointment_code
		WHERE r.status = 'active'
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func scanReview(row pgx.Row) (model.Review, error) {
	var rv model.Review
	var status string
	if err := row.Scan(&rv.ID, &rv.AppointmentCode, &rv.ClientID, &rv.Rating, &rv.Comment, &status, &rv.CreatedAt, &rv.Service, &rv.Date); err != nil {
		return model.Review{}, err
	}
	rv.Status = model.ReviewStatus(status)
	return rv, nil
}

func collectReviews(rows pgx.Rows) ([]model.Review, error) {
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return reviews, nil
}
