package reviews

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage/memstore"
)

func setup(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	appt := model.Appointment{
		ClientID: 500,
		Service:  "Pedicure👠",
		Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:     "13:00",
		Code:     "AB12CD34",
		Status:   model.AppointmentActive,
	}
	if err := store.InsertAppointment(context.Background(), &appt); err != nil {
		t.Fatalf("insert appointment: %v", err)
	}
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestSubmitByOwner(t *testing.T) {
	svc, store := setup(t)
	rv, err := svc.Submit(context.Background(), "ab12cd34", 500, 5, "  lovely  ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rv.ID == 0 || rv.Status != model.ReviewActive || rv.Comment != "lovely" || rv.Service != "Pedicure👠" {
		t.Fatalf("unexpected review %+v", rv)
	}
	if _, err := svc.Submit(context.Background(), "AB12CD34", 500, 4, ""); err != nil {
		t.Fatalf("second review of the same visit: %v", err)
	}
	if n := len(store.Reviews()); n != 2 {
		t.Fatalf("expected 2 reviews, got %d", n)
	}
}

func TestSubmitForeignCodeIsForbidden(t *testing.T) {
	svc, store := setup(t)
	_, err := svc.Submit(context.Background(), "AB12CD34", 999, 1, "spam")
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if n := len(store.Reviews()); n != 0 {
		t.Fatalf("review table changed: %d rows", n)
	}
}

func TestSubmitUnknownCode(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.Submit(context.Background(), "ZZZZZZZZ", 500, 5, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBlock(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	rv, err := svc.Submit(ctx, "AB12CD34", 500, 2, "meh")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Block(ctx, rv.ID, false); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected Forbidden for non-admin, got %v", err)
	}
	if err := svc.Block(ctx, 9999, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := svc.Block(ctx, rv.ID, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := svc.Block(ctx, rv.ID, true); err != nil {
		t.Fatalf("blocking twice should be a no-op, got %v", err)
	}

	got, err := svc.Get(ctx, rv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.ReviewBlocked {
		t.Fatalf("expected blocked, got %s", got.Status)
	}
	if len(svc.ListActive(ctx)) != 0 || len(svc.ListByClient(ctx, 500)) != 0 {
		t.Fatal("blocked review must not be listed")
	}
}

func TestListDegradesToEmptyOnStoreFailure(t *testing.T) {
	svc, store := setup(t)
	store.SetErr(errors.New("connection reset"))
	if got := svc.ListActive(context.Background()); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
