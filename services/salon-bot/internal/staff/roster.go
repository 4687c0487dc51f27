// Package staff manages the masters of the salon and their schedules.
package staff

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

type Store interface {
	InsertMaster(ctx context.Context, m *model.Master) error
	DeleteMaster(ctx context.Context, id int64) (bool, error)
	FindStaffByID(ctx context.Context, id int64) (model.Master, error)
	FindStaffByChatID(ctx context.Context, chatID int64) (model.Master, error)
	ListStaffByService(ctx context.Context, service string) ([]model.Master, error)
	ListStaff(ctx context.Context) ([]model.Master, error)
	ListMasterAppointments(ctx context.Context, masterID int64, from, to time.Time) ([]model.Appointment, error)
}

type Roster struct {
	store    Store
	names    chat.DisplayNameResolver
	services []string
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

type Config struct {
	// Services lists the names a master may be assigned to.
	Services []string
	Location *time.Location
	Now      func() time.Time
}

func NewRoster(store Store, names chat.DisplayNameResolver, logger *slog.Logger, cfg Config) *Roster {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Roster{
		store:    store,
		names:    names,
		services: cfg.Services,
		logger:   logger,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
}

// ParseFullName splits "First Last" into its two parts.
func ParseFullName(fullName string) (first, last string, err error) {
	parts := strings.Fields(fullName)
	if len(parts) != 2 {
		return "", "", apperr.New(apperr.ErrValidation, "Enter the first and last name separated by a space")
	}
	return parts[0], parts[1], nil
}

// ValidService reports whether service is one the salon offers.
func (r *Roster) ValidService(service string) bool {
	return slices.Contains(r.services, service)
}

// Add registers a master. The chat handle is looked up through the
// transport; a failed lookup leaves it empty.
func (r *Roster) Add(ctx context.Context, fullName, service, chatIDText string) (model.Master, error) {
	first, last, err := ParseFullName(fullName)
	if err != nil {
		return model.Master{}, err
	}
	service = strings.TrimSpace(service)
	if !r.ValidService(service) {
		return model.Master{}, apperr.New(apperr.ErrValidation, "Unknown service: "+service)
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(chatIDText), 10, 64)
	if err != nil {
		return model.Master{}, apperr.New(apperr.ErrValidation, "Enter a numeric Telegram ID")
	}

	username, err := r.names.ResolveDisplayName(ctx, chatID)
	if err != nil {
		r.logger.Warn("display name lookup failed", "chat_id", chatID, "err", err)
		username = ""
	}

	m := model.Master{FirstName: first, LastName: last, Service: service, ChatID: chatID, Username: username}
	if err := r.store.InsertMaster(ctx, &m); err != nil {
		if errors.Is(err, storage.ErrDuplicateChatID) {
			return model.Master{}, apperr.New(apperr.ErrValidation, "A master with this Telegram ID already exists")
		}
		return model.Master{}, apperr.Wrap(apperr.ErrPersistence, "Could not save the master", err)
	}
	r.logger.Info("master added", "master_id", m.ID, "service", service, "chat_id", chatID)
	return m, nil
}

// Delete removes a master. Their past appointments keep the master id.
func (r *Roster) Delete(ctx context.Context, id int64) (model.Master, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return model.Master{}, err
	}
	ok, err := r.store.DeleteMaster(ctx, id)
	if err != nil {
		return model.Master{}, apperr.Wrap(apperr.ErrPersistence, "Could not delete the master", err)
	}
	if !ok {
		return model.Master{}, apperr.New(apperr.ErrNotFound, "No master with this ID")
	}
	r.logger.Info("master deleted", "master_id", id)
	return m, nil
}

func (r *Roster) Get(ctx context.Context, id int64) (model.Master, error) {
	m, err := r.store.FindStaffByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Master{}, apperr.New(apperr.ErrNotFound, "No master with this ID")
		}
		return model.Master{}, apperr.Wrap(apperr.ErrPersistence, "Could not load the master", err)
	}
	return m, nil
}

// List returns every master. A store failure is logged and reported as an
// empty roster.
func (r *Roster) List(ctx context.Context) []model.Master {
	masters, err := r.store.ListStaff(ctx)
	if err != nil {
		r.logger.Error("list masters failed", "err", err)
		return nil
	}
	return masters
}

// ByService returns the masters offering service. A store failure is logged
// and reported as no masters.
func (r *Roster) ByService(ctx context.Context, service string) []model.Master {
	masters, err := r.store.ListStaffByService(ctx, service)
	if err != nil {
		r.logger.Error("list masters by service failed", "service", service, "err", err)
		return nil
	}
	return masters
}

func (r *Roster) ByChatID(ctx context.Context, chatID int64) (model.Master, error) {
	m, err := r.store.FindStaffByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Master{}, apperr.New(apperr.ErrNotFound, "You are not registered as a master")
		}
		return model.Master{}, apperr.Wrap(apperr.ErrPersistence, "Could not load your profile", err)
	}
	return m, nil
}

// Upcoming returns the master's active appointments from today on.
func (r *Roster) Upcoming(ctx context.Context, chatID int64) (model.Master, []model.Appointment, error) {
	return r.schedule(ctx, chatID, false)
}

// Today returns the master's active appointments for the current day.
func (r *Roster) Today(ctx context.Context, chatID int64) (model.Master, []model.Appointment, error) {
	return r.schedule(ctx, chatID, true)
}

func (r *Roster) schedule(ctx context.Context, chatID int64, todayOnly bool) (model.Master, []model.Appointment, error) {
	m, err := r.ByChatID(ctx, chatID)
	if err != nil {
		return model.Master{}, nil, err
	}
	now := r.now().In(r.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	var to time.Time
	if todayOnly {
		to = today
	}
	appts, err := r.store.ListMasterAppointments(ctx, m.ID, today, to)
	if err != nil {
		return model.Master{}, nil, apperr.Wrap(apperr.ErrPersistence, "Could not load appointments", err)
	}
	return m, appts, nil
}
