package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

func appointment(code string, day time.Time) model.Appointment {
	return model.Appointment{ClientID: 1, Service: "Manicure", Date: day, Time: "15:00", Code: code, Status: model.AppointmentActive}
}

func TestActiveSlotIsExclusiveUntilCanceled(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	first := appointment("AAAA1111", day)
	if err := s.InsertAppointment(ctx, &first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	second := appointment("BBBB2222", day)
	if err := s.InsertAppointment(ctx, &second); !errors.Is(err, storage.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	dup := appointment("AAAA1111", day.AddDate(0, 0, 1))
	if err := s.InsertAppointment(ctx, &dup); !errors.Is(err, storage.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	changed, err := s.UpdateAppointmentStatus(ctx, "AAAA1111", model.AppointmentActive, model.AppointmentCanceled)
	if err != nil || !changed {
		t.Fatalf("cancel: changed=%v err=%v", changed, err)
	}
	changed, err = s.UpdateAppointmentStatus(ctx, "AAAA1111", model.AppointmentActive, model.AppointmentCanceled)
	if err != nil || changed {
		t.Fatalf("second cancel should not change a row: changed=%v err=%v", changed, err)
	}
	if err := s.InsertAppointment(ctx, &second); err != nil {
		t.Fatalf("slot should be free after cancel: %v", err)
	}
}

func TestReviewStatusChangesOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	appt := appointment("CCCC3333", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if err := s.InsertAppointment(ctx, &appt); err != nil {
		t.Fatalf("insert appointment: %v", err)
	}
	rv := model.Review{AppointmentCode: appt.Code, ClientID: 1, Rating: 4, Status: model.ReviewActive}
	if err := s.InsertReview(ctx, &rv); err != nil {
		t.Fatalf("insert review: %v", err)
	}

	changed, err := s.UpdateReviewStatus(ctx, rv.ID, model.ReviewBlocked)
	if err != nil || !changed {
		t.Fatalf("block: changed=%v err=%v", changed, err)
	}
	changed, err = s.UpdateReviewStatus(ctx, rv.ID, model.ReviewBlocked)
	if err != nil || changed {
		t.Fatalf("second block should not change a row: changed=%v err=%v", changed, err)
	}
	if changed, _ := s.UpdateReviewStatus(ctx, rv.ID+100, model.ReviewBlocked); changed {
		t.Fatal("unknown review reported as changed")
	}
}

func TestReminderJobsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	jobs := []model.ReminderJob{
		{AppointmentCode: "AAAA1111", Kind: model.ReminderPreVisit, FireAt: now.Add(-time.Minute)},
		{AppointmentCode: "AAAA1111", Kind: model.ReminderReviewRequest, FireAt: now.Add(time.Hour)},
	}
	if err := s.InsertReminderJobs(ctx, jobs); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertReminderJobs(ctx, jobs[:1]); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if got := len(s.ReminderJobs()); got != 2 {
		t.Fatalf("expected duplicates to be ignored, got %d jobs", got)
	}

	due, err := s.FetchDueReminderJobs(ctx, now, 10)
	if err != nil || len(due) != 1 || due[0].Kind != model.ReminderPreVisit {
		t.Fatalf("unexpected due jobs %v, %v", due, err)
	}
	if err := s.MarkReminderJobs(ctx, []int64{due[0].ID}, model.ReminderSent); err != nil {
		t.Fatalf("mark: %v", err)
	}
	n, err := s.CancelReminderJobs(ctx, "AAAA1111")
	if err != nil || n != 1 {
		t.Fatalf("expected one pending job canceled, got %d, %v", n, err)
	}
}

func TestDuplicateChatIDAndFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := model.Master{FirstName: "Anna", LastName: "Petrova", Service: "Manicure", ChatID: 900}
	if err := s.InsertMaster(ctx, &m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	again := m
	if err := s.InsertMaster(ctx, &again); !errors.Is(err, storage.ErrDuplicateChatID) {
		t.Fatalf("expected ErrDuplicateChatID, got %v", err)
	}

	boom := errors.New("disk on fire")
	s.SetErr(boom)
	if _, err := s.ListStaff(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.SetErr(nil)
	if _, err := s.FindStaffByChatID(ctx, 900); err != nil {
		t.Fatalf("lookup after clearing error: %v", err)
	}
}
