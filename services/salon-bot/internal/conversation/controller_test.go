package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/booking"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/notify"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/reminders"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/reviews"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/staff"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage/memstore"
)

const (
	adminID  int64 = 1
	clientID int64 = 500
	otherID  int64 = 501
)

var salonTZ = time.FixedZone("MSK", 3*60*60)

type message struct {
	chatID int64
	text   string
	menu   *chat.Menu
}

type fakeChat struct {
	messages []message
	answers  []string
}

func (f *fakeChat) Send(_ context.Context, chatID int64, text string, menu *chat.Menu) error {
	f.messages = append(f.messages, message{chatID: chatID, text: text, menu: menu})
	return nil
}

func (f *fakeChat) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeChat) ResolveDisplayName(context.Context, int64) (string, error) {
	return "handle", nil
}

func (f *fakeChat) last(t *testing.T) message {
	t.Helper()
	if len(f.messages) == 0 {
		t.Fatal("no message sent")
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeChat) lastAnswer(t *testing.T) string {
	t.Helper()
	if len(f.answers) == 0 {
		t.Fatal("no callback answered")
	}
	return f.answers[len(f.answers)-1]
}

type harness struct {
	ctrl   *Controller
	chat   *fakeChat
	store  *memstore.Store
	engine *booking.Engine
	master model.Master
	now    *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, salonTZ)
	clock := func() time.Time { return now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	fc := &fakeChat{}
	services := model.DefaultServices

	dispatcher := notify.NewDispatcher(fc, store, adminID, logger)
	scheduler := reminders.NewScheduler(store, logger, reminders.SchedulerConfig{Location: salonTZ, Now: clock, CancelWithAppointment: true})
	engine := booking.NewEngine(store, dispatcher, scheduler, logger, booking.Config{Location: salonTZ, Now: clock})
	roster := staff.NewRoster(store, fc, logger, staff.Config{Services: model.ServiceNames(services), Location: salonTZ, Now: clock})

	m := model.Master{FirstName: "Anna", LastName: "Petrova", Service: "Manicure", ChatID: 900}
	if err := store.InsertMaster(context.Background(), &m); err != nil {
		t.Fatalf("insert master: %v", err)
	}

	ctrl := New(Deps{
		Out:      fc,
		Engine:   engine,
		Reviews:  reviews.NewService(store, logger),
		Roster:   roster,
		Services: services,
		AdminID:  adminID,
		Logger:   logger,
	})
	return &harness{ctrl: ctrl, chat: fc, store: store, engine: engine, master: m, now: &now}
}

func (h *harness) command(chatID int64, name string) {
	h.ctrl.Handle(context.Background(), chat.Command{ChatID: chatID, Name: name})
}

func (h *harness) text(chatID int64, body string) {
	h.ctrl.Handle(context.Background(), chat.Text{ChatID: chatID, Body: body})
}

func (h *harness) press(chatID int64, a chat.Action) {
	h.ctrl.Handle(context.Background(), chat.Callback{ChatID: chatID, ID: "cb", Action: a})
}

var visitDay = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func (h *harness) walkToTime(t *testing.T, chatID int64) {
	t.Helper()
	h.command(chatID, "start")
	h.press(chatID, chat.SelectService{Service: "Manicure"})
	h.press(chatID, chat.SelectMaster{MasterID: h.master.ID})
	h.press(chatID, chat.SelectDate{Date: visitDay})
	if got := h.ctrl.Session(chatID).State; got != ChoosingTime {
		t.Fatalf("expected %s, got %s", ChoosingTime, got)
	}
}

func TestBookingHappyPath(t *testing.T) {
	h := newHarness(t)
	h.walkToTime(t, clientID)

	h.press(clientID, chat.SelectTime{Time: "15:00"})
	if got := h.ctrl.Session(clientID).State; got != Confirming {
		t.Fatalf("expected confirming, got %s", got)
	}
	if !strings.Contains(h.chat.last(t).text, "Anna Petrova") {
		t.Fatalf("confirmation should name the master: %q", h.chat.last(t).text)
	}

	h.press(clientID, chat.Confirm{Yes: true})
	if got := h.ctrl.Session(clientID).State; got != Idle {
		t.Fatalf("expected idle after commit, got %s", got)
	}
	appts := h.store.Appointments()
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	reply := h.chat.last(t)
	if reply.chatID != clientID || !strings.Contains(reply.text, appts[0].Code) || !strings.HasPrefix(reply.text, "✅ Booking created!") {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if n := len(h.store.ReminderJobs()); n != 3 {
		t.Fatalf("expected 3 reminder jobs, got %d", n)
	}

	var toAdmin, toMaster int
	for _, m := range h.chat.messages {
		switch m.chatID {
		case adminID:
			toAdmin++
		case h.master.ChatID:
			toMaster++
		}
	}
	if toAdmin != 1 || toMaster != 1 {
		t.Fatalf("expected one admin and one master notification, got %d and %d", toAdmin, toMaster)
	}
}

func TestOccupiedSlotKeepsState(t *testing.T) {
	h := newHarness(t)
	if _, err := h.engine.CreateAppointment(context.Background(), otherID, "Manicure", visitDay, "15:00", h.master.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	h.walkToTime(t, clientID)

	menu := h.chat.last(t).menu
	var busy int
	for _, row := range menu.Rows {
		for _, b := range row {
			if _, ok := b.Action.(chat.SlotOccupied); ok {
				busy++
			}
		}
	}
	if busy != 1 {
		t.Fatalf("expected one occupied button, got %d", busy)
	}

	h.press(clientID, chat.SlotOccupied{})
	if h.chat.lastAnswer(t) != toastSlotTaken || h.ctrl.Session(clientID).State != ChoosingTime {
		t.Fatalf("occupied button must toast and keep state")
	}

	h.press(clientID, chat.SelectTime{Time: "15:00"})
	if h.chat.lastAnswer(t) != toastSlotTaken || h.ctrl.Session(clientID).State != ChoosingTime {
		t.Fatalf("stale free button for a taken slot must toast and keep state")
	}
}

func TestSlotTakenAtCommitResetsToIdle(t *testing.T) {
	h := newHarness(t)
	h.walkToTime(t, clientID)
	h.press(clientID, chat.SelectTime{Time: "16:00"})

	if _, err := h.engine.CreateAppointment(context.Background(), otherID, "Manicure", visitDay, "16:00", h.master.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	h.press(clientID, chat.Confirm{Yes: true})
	if got := h.ctrl.Session(clientID).State; got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if !strings.Contains(h.chat.last(t).text, "already taken") {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
	if n := len(h.store.Appointments()); n != 1 {
		t.Fatalf("expected only the winning appointment, got %d", n)
	}
}

func TestStaleConfirmPastBookingWindow(t *testing.T) {
	h := newHarness(t)
	h.command(clientID, "start")
	h.press(clientID, chat.SelectService{Service: "Manicure"})
	h.press(clientID, chat.SelectMaster{MasterID: h.master.ID})
	h.press(clientID, chat.SelectDate{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)})
	h.press(clientID, chat.SelectTime{Time: "11:00"})
	if got := h.ctrl.Session(clientID).State; got != Confirming {
		t.Fatalf("expected %s, got %s", Confirming, got)
	}

	*h.now = time.Date(2025, 6, 5, 9, 0, 0, 0, salonTZ)
	h.press(clientID, chat.Confirm{Yes: true})
	if n := len(h.store.Appointments()); n != 0 {
		t.Fatalf("a past date must not be booked, got %d appointments", n)
	}
	if got := h.ctrl.Session(clientID).State; got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if !strings.Contains(h.chat.last(t).text, "no longer available") {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
}

func TestOffGridTimeKeepsState(t *testing.T) {
	h := newHarness(t)
	h.walkToTime(t, clientID)
	sent := len(h.chat.messages)

	for _, slot := range []string{"03:00", "15:30", "23:00", ""} {
		h.press(clientID, chat.SelectTime{Time: slot})
		if h.chat.lastAnswer(t) != toastUnknownTime {
			t.Fatalf("time %q: unexpected toast %q", slot, h.chat.lastAnswer(t))
		}
		sess := h.ctrl.Session(clientID)
		if sess.State != ChoosingTime || sess.Time != "" {
			t.Fatalf("time %q: session changed to %+v", slot, sess)
		}
	}
	if len(h.chat.messages) != sent {
		t.Fatal("an off-grid time must not produce a confirmation")
	}
}

func TestIdleSessionsAreDropped(t *testing.T) {
	h := newHarness(t)
	h.walkToTime(t, clientID)
	h.command(otherID, "start")
	if n := len(h.ctrl.sessions); n != 2 {
		t.Fatalf("expected 2 live sessions, got %d", n)
	}

	h.press(clientID, chat.SelectTime{Time: "12:00"})
	h.press(clientID, chat.Confirm{Yes: true})
	h.command(otherID, "help")
	h.command(adminID, "admin")
	if n := len(h.ctrl.sessions); n != 0 {
		t.Fatalf("idle chats should not keep sessions, got %d", n)
	}
	if got := h.ctrl.Session(clientID); got != (Session{}) {
		t.Fatalf("expected an empty session, got %+v", got)
	}
}

func TestMissingSelectionReturnsToServiceChoice(t *testing.T) {
	h := newHarness(t)
	sess := h.ctrl.session(clientID)
	sess.State = ChoosingTime
	sess.Service = "Manicure"
	sess.MasterID = h.master.ID

	h.press(clientID, chat.SelectTime{Time: "12:00"})
	if got := h.ctrl.Session(clientID).State; got != ChoosingService {
		t.Fatalf("expected %s, got %s", ChoosingService, got)
	}
	last := h.chat.last(t)
	if last.text != textStartOver || last.menu == nil {
		t.Fatalf("expected the service menu, got %+v", last)
	}
}

func TestOutdatedButton(t *testing.T) {
	h := newHarness(t)
	h.press(clientID, chat.SelectMaster{MasterID: h.master.ID})
	if h.chat.lastAnswer(t) != toastOutdated {
		t.Fatalf("unexpected toast %q", h.chat.lastAnswer(t))
	}
	if got := h.ctrl.Session(clientID).State; got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestServiceWithoutMasters(t *testing.T) {
	h := newHarness(t)
	h.command(clientID, "start")
	h.press(clientID, chat.SelectService{Service: "Coloring"})
	if h.chat.last(t).text != textNoMasters || h.ctrl.Session(clientID).State != ChoosingService {
		t.Fatalf("expected no-masters notice and unchanged state")
	}
}

func TestDeclineBooking(t *testing.T) {
	h := newHarness(t)
	h.walkToTime(t, clientID)
	h.press(clientID, chat.SelectTime{Time: "12:00"})
	h.press(clientID, chat.Confirm{Yes: false})
	if h.ctrl.Session(clientID).State != Idle || len(h.store.Appointments()) != 0 {
		t.Fatal("declining must store nothing and reset the session")
	}
}

func TestCancelCommand(t *testing.T) {
	h := newHarness(t)
	appt, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, "12:00", h.master.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	h.command(otherID, "cancel")
	h.text(otherID, appt.Code)
	if !strings.Contains(h.chat.last(t).text, "not allowed") {
		t.Fatalf("expected forbidden message, got %q", h.chat.last(t).text)
	}

	h.command(clientID, "cancel")
	if h.ctrl.Session(clientID).State != AwaitingCancelCode {
		t.Fatal("expected to await a code")
	}
	h.text(clientID, strings.ToLower(appt.Code))
	if h.chat.last(t).text != "✅ Booking "+appt.Code+" has been canceled" {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
	if h.ctrl.Session(clientID).State != Idle {
		t.Fatal("expected idle after cancel")
	}
	for _, j := range h.store.ReminderJobs() {
		if j.AppointmentCode == appt.Code && j.Status == model.ReminderPending {
			t.Fatalf("reminder %s still pending after cancellation", j.Kind)
		}
	}
}

func TestAdminCancelsClientBooking(t *testing.T) {
	h := newHarness(t)
	appt, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, "12:00", h.master.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.command(adminID, "cancel")
	h.text(adminID, appt.Code)

	notified := false
	for _, m := range h.chat.messages {
		if m.chatID == clientID && strings.Contains(m.text, "canceled by the administrator") {
			notified = true
		}
	}
	if !notified {
		t.Fatal("client should be told about the admin cancellation")
	}
}

func TestReviewFlow(t *testing.T) {
	h := newHarness(t)
	appt, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, "12:00", h.master.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	h.press(clientID, chat.RateVisit{Code: appt.Code, Rating: 4})
	if h.ctrl.Session(clientID).State != AwaitingReviewComment {
		t.Fatal("expected to await a comment")
	}
	h.text(clientID, "-")
	if h.chat.last(t).text != textThanksForReview {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
	stored := h.store.Reviews()
	if len(stored) != 1 || stored[0].Rating != 4 || stored[0].Comment != "" {
		t.Fatalf("unexpected reviews %+v", stored)
	}

	h.press(otherID, chat.RateVisit{Code: appt.Code, Rating: 1})
	h.text(otherID, "bad")
	if len(h.store.Reviews()) != 1 {
		t.Fatal("a foreign review must not be stored")
	}

	h.command(clientID, "reviews")
	if !strings.Contains(h.chat.last(t).text, "Rating: 4⭐") {
		t.Fatalf("unexpected reviews listing %q", h.chat.last(t).text)
	}

	h.press(clientID, chat.RateVisit{Code: "NOPE0000", Rating: 5})
	if h.chat.lastAnswer(t) != "Booking not found" {
		t.Fatalf("unexpected toast %q", h.chat.lastAnswer(t))
	}
}

func TestAdminPanelIgnoresOthers(t *testing.T) {
	h := newHarness(t)
	h.command(clientID, "admin")
	if len(h.chat.messages) != 0 {
		t.Fatalf("non-admin got %+v", h.chat.messages)
	}
	h.press(clientID, chat.AdminMasters{})
	if len(h.chat.messages) != 0 {
		t.Fatalf("non-admin got %+v", h.chat.messages)
	}
}

func TestAdminAddMaster(t *testing.T) {
	h := newHarness(t)
	h.press(adminID, chat.AdminAddMaster{})

	h.text(adminID, "Ivan")
	if h.ctrl.Session(adminID).State != AdminMasterName {
		t.Fatal("invalid name must keep the state")
	}
	h.text(adminID, "Ivan Ivanov")
	h.text(adminID, "Massage")
	if h.ctrl.Session(adminID).State != AdminMasterService {
		t.Fatal("unknown service must keep the state")
	}
	h.text(adminID, "Haircut")
	h.text(adminID, "not-a-number")
	if h.ctrl.Session(adminID).State != AdminMasterChatID {
		t.Fatal("non-numeric id must keep the state")
	}
	h.text(adminID, "901")
	if h.ctrl.Session(adminID).State != Idle {
		t.Fatal("expected idle after adding")
	}
	if !strings.HasPrefix(h.chat.last(t).text, "✅ Master Ivan Ivanov (@handle) added") {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
	masters, _ := h.store.ListStaffByService(context.Background(), "Haircut")
	if len(masters) != 1 || masters[0].ChatID != 901 {
		t.Fatalf("unexpected masters %+v", masters)
	}
}

func TestAdminDeleteMaster(t *testing.T) {
	h := newHarness(t)
	h.press(adminID, chat.AdminDeleteMaster{})
	h.text(adminID, "abc")
	h.text(adminID, "999")
	if h.ctrl.Session(adminID).State != AdminDeleteMaster {
		t.Fatal("bad or unknown id must keep the state")
	}
	h.text(adminID, "1")
	if h.chat.last(t).text != "✅ Master Anna Petrova deleted" {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
}

func TestAdminBlockReview(t *testing.T) {
	h := newHarness(t)
	appt, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, "12:00", h.master.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.press(clientID, chat.RateVisit{Code: appt.Code, Rating: 1})
	h.text(clientID, "rude words")
	rv := h.store.Reviews()[0]

	h.press(adminID, chat.AdminReviews{})
	if h.chat.last(t).text != textReviewList {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}
	h.press(adminID, chat.AdminReviewDetail{ReviewID: rv.ID})
	if !strings.Contains(h.chat.last(t).text, "rude words") {
		t.Fatalf("unexpected detail %q", h.chat.last(t).text)
	}
	h.press(adminID, chat.AdminBlockReview{ReviewID: rv.ID})
	if h.chat.lastAnswer(t) != toastReviewBlocked {
		t.Fatalf("unexpected toast %q", h.chat.lastAnswer(t))
	}
	if got := h.store.Reviews()[0].Status; got != model.ReviewBlocked {
		t.Fatalf("expected blocked, got %s", got)
	}
}

func TestAdminServiceListing(t *testing.T) {
	h := newHarness(t)
	h.press(adminID, chat.AdminServiceAppointments{Service: "Manicure"})
	if h.chat.lastAnswer(t) != toastNoBookings {
		t.Fatalf("unexpected toast %q", h.chat.lastAnswer(t))
	}
	if _, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, "12:00", h.master.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	h.press(adminID, chat.AdminServiceAppointments{Service: "Manicure"})
	if !strings.Contains(h.chat.last(t).text, "Anna Petrova") {
		t.Fatalf("listing should name the master: %q", h.chat.last(t).text)
	}
}

func TestStaffCommands(t *testing.T) {
	h := newHarness(t)
	h.command(clientID, "today")
	if !strings.Contains(h.chat.last(t).text, "not registered as a master") {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}

	h.command(h.master.ChatID, "my_appointments")
	if h.chat.last(t).text != textNoUpcoming {
		t.Fatalf("unexpected reply %q", h.chat.last(t).text)
	}

	for _, slot := range []string{"14:00", "11:00"} {
		if _, err := h.engine.CreateAppointment(context.Background(), clientID, "Manicure", visitDay, slot, h.master.ID); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	h.command(h.master.ChatID, "my_appointments")
	text := h.chat.last(t).text
	if strings.Index(text, "11:00") > strings.Index(text, "14:00") || !strings.Contains(text, "📅 2025-06-10:") {
		t.Fatalf("unexpected schedule %q", text)
	}
}
