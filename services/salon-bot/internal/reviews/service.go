package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

type Store interface {
	FindAppointmentByCode(ctx context.Context, code string) (model.Appointment, error)
	InsertReview(ctx context.Context, rv *model.Review) error
	FindReviewByID(ctx context.Context, id int64) (model.Review, error)
	UpdateReviewStatus(ctx context.Context, id int64, status model.ReviewStatus) (bool, error)
	ListReviewsByClient(ctx context.Context, clientID int64) ([]model.Review, error)
	ListActiveReviews(ctx context.Context) ([]model.Review, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Submit stores a review of the appointment with the given code. Only the
// appointment's client may review it; a client may review the same visit more
// than once.
func (s *Service) Submit(ctx context.Context, code string, clientID int64, rating int, comment string) (model.Review, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	appt, err := s.store.FindAppointmentByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Review{}, apperr.New(apperr.ErrNotFound, "Booking not found")
		}
		return model.Review{}, apperr.Wrap(apperr.ErrPersistence, "Could not save the review", err)
	}
	if appt.ClientID != clientID {
		return model.Review{}, apperr.New(apperr.ErrForbidden, "You cannot review someone else's booking")
	}

	rv := model.Review{
		AppointmentCode: code,
		ClientID:        clientID,
		Rating:          rating,
		Comment:         strings.TrimSpace(comment),
		Status:          model.ReviewActive,
	}
	if err := s.store.InsertReview(ctx, &rv); err != nil {
		s.logger.Error("review insert failed", "code", code, "client_id", clientID, "err", err)
		return model.Review{}, apperr.Wrap(apperr.ErrPersistence, "Could not save the review", err)
	}
	rv.Service, rv.Date = appt.Service, appt.Date
	s.logger.Info("review submitted", "review_id", rv.ID, "code", code, "rating", rating)
	return rv, nil
}

// Block hides a review. The record is kept.
func (s *Service) Block(ctx context.Context, id int64, isAdmin bool) error {
	if !isAdmin {
		return apperr.New(apperr.ErrForbidden, "Only the administrator can block reviews")
	}
	changed, err := s.store.UpdateReviewStatus(ctx, id, model.ReviewBlocked)
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, "Could not block the review", err)
	}
	if !changed {
		rv, err := s.store.FindReviewByID(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return apperr.New(apperr.ErrNotFound, "Review not found")
		case err != nil:
			return apperr.Wrap(apperr.ErrPersistence, "Could not block the review", err)
		case rv.Status == model.ReviewBlocked:
			s.logger.Debug("review already blocked", "review_id", id)
			return nil
		}
		return apperr.New(apperr.ErrNotFound, "Review not found")
	}
	s.logger.Info("review blocked", "review_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (model.Review, error) {
	rv, err := s.store.FindReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Review{}, apperr.New(apperr.ErrNotFound, "Review not found")
		}
		return model.Review{}, apperr.Wrap(apperr.ErrPersistence, "Could not load the review", err)
	}
	return rv, nil
}

// ListByClient returns the client's active reviews, newest first. A store
// failure is logged and reported as no reviews.
func (s *Service) ListByClient(ctx context.Context, clientID int64) []model.Review {
	reviews, err := s.store.ListReviewsByClient(ctx, clientID)
	if err != nil {
		s.logger.Error("list client reviews failed", "client_id", clientID, "err", err)
		return nil
	}
	return reviews
}

// ListActive returns every active review, newest first. A store failure is
// logged and reported as no reviews.
func (s *Service) ListActive(ctx context.Context) []model.Review {
	reviews, err := s.store.ListActiveReviews(ctx)
	if err != nil {
		s.logger.Error("list reviews failed", "err", err)
		return nil
	}
	return reviews
}
