package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage/memstore"
)

type sent struct {
	chatID int64
	text   string
	menu   *chat.Menu
}

type recordingSender struct {
	msgs []sent
	err  error
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string, menu *chat.Menu) error {
	s.msgs = append(s.msgs, sent{chatID: chatID, text: text, menu: menu})
	return s.err
}

func testAppointment(masterID int64) model.Appointment {
	return model.Appointment{
		ClientID: 500,
		Service:  "Manicure💅",
		Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:     "15:00",
		Code:     "AB12CD34",
		Status:   model.AppointmentActive,
		MasterID: masterID,
	}
}

func newDispatcher(t *testing.T) (*Dispatcher, *recordingSender, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	sender := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(sender, store, 1, logger), sender, store
}

func TestAdminNewBookingIncludesMaster(t *testing.T) {
	d, sender, store := newDispatcher(t)
	m := model.Master{FirstName: "Anna", LastName: "Petrova", Service: "Manicure💅", ChatID: 900, Username: "anna"}
	if err := store.InsertMaster(context.Background(), &m); err != nil {
		t.Fatalf("insert master: %v", err)
	}

	d.NotifyAdminNewBooking(context.Background(), testAppointment(m.ID))
	if len(sender.msgs) != 1 || sender.msgs[0].chatID != 1 {
		t.Fatalf("expected one admin message, got %+v", sender.msgs)
	}
	if !strings.Contains(sender.msgs[0].text, "Anna Petrova (@anna)") || !strings.Contains(sender.msgs[0].text, "AB12CD34") {
		t.Fatalf("unexpected text %q", sender.msgs[0].text)
	}
}

func TestStaffNotificationSkipsDeletedMaster(t *testing.T) {
	d, sender, _ := newDispatcher(t)
	d.NotifyStaffNewBooking(context.Background(), 77, testAppointment(77))
	if len(sender.msgs) != 0 {
		t.Fatalf("expected no message, got %+v", sender.msgs)
	}
}

func TestStaffNotificationGoesToMasterChat(t *testing.T) {
	d, sender, store := newDispatcher(t)
	m := model.Master{FirstName: "Ivan", LastName: "Ivanov", Service: "Haircut✂️", ChatID: 901}
	if err := store.InsertMaster(context.Background(), &m); err != nil {
		t.Fatalf("insert master: %v", err)
	}
	d.NotifyStaffNewBooking(context.Background(), m.ID, testAppointment(m.ID))
	if len(sender.msgs) != 1 || sender.msgs[0].chatID != 901 {
		t.Fatalf("expected message to master chat, got %+v", sender.msgs)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	d, sender, _ := newDispatcher(t)
	sender.err = errors.New("network down")
	d.NotifyClientCancellation(context.Background(), 500, testAppointment(0))
	d.NotifyClientReminder(context.Background(), 500, testAppointment(0))
	if len(sender.msgs) != 2 {
		t.Fatalf("expected both sends to be attempted, got %d", len(sender.msgs))
	}
}

func TestPromptReviewMenu(t *testing.T) {
	d, sender, _ := newDispatcher(t)
	d.PromptReview(context.Background(), 500, "AB12CD34")
	if len(sender.msgs) != 1 || sender.msgs[0].menu == nil {
		t.Fatalf("expected a message with a menu, got %+v", sender.msgs)
	}
	row := sender.msgs[0].menu.Rows[0]
	if len(row) != 5 {
		t.Fatalf("expected 5 rating buttons, got %d", len(row))
	}
	last, ok := row[4].Action.(chat.RateVisit)
	if !ok || last.Rating != 5 || last.Code != "AB12CD34" {
		t.Fatalf("unexpected action %#v", row[4].Action)
	}
}
