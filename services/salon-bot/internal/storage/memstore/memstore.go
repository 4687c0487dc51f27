// Package memstore is an in-memory record store with the same constraints
// and error values as the PostgreSQL repository.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
)

type slotKey struct {
	date    string
	time    string
	service string
}

type Store struct {
	mu sync.Mutex

	appointments []model.Appointment
	reviews      []model.Review
	masters      []model.Master
	jobs         []model.ReminderJob
	activeSlots  map[slotKey]string

	nextID   int64
	now      func() time.Time
	failWith error
}

func New() *Store {
	return &Store{activeSlots: map[slotKey]string{}, now: time.Now}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) InsertAppointment(_ context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for _, a := range s.appointments {
		if a.Code == appt.Code {
			return storage.ErrDuplicateCode
		}
	}
	key := slotKey{appt.DateString(), appt.Time, appt.Service}
	if appt.Status == model.AppointmentActive {
		if _, taken := s.activeSlots[key]; taken {
			return storage.ErrSlotTaken
		}
		s.activeSlots[key] = appt.Code
	}
	appt.ID = s.id()
	appt.CreatedAt = s.now()
	s.appointments = append(s.appointments, *appt)
	return nil
}

func (s *Store) FindAppointmentByCode(_ context.Context, code string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Appointment{}, s.failWith
	}
	for _, a := range s.appointments {
		if a.Code == code {
			return a, nil
		}
	}
	return model.Appointment{}, storage.ErrNotFound
}

func (s *Store) ListOccupiedSlots(_ context.Context, date time.Time, service string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	day := date.Format(model.DateLayout)
	var out []string
	for key := range s.activeSlots {
		if key.date == day && key.service == service {
			out = append(out, key.time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpdateAppointmentStatus(_ context.Context, code string, from, to model.AppointmentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	for i, a := range s.appointments {
		if a.Code != code || a.Status != from {
			continue
		}
		key := slotKey{a.DateString(), a.Time, a.Service}
		if to == model.AppointmentActive {
			if _, taken := s.activeSlots[key]; taken {
				return false, storage.ErrSlotTaken
			}
			s.activeSlots[key] = code
		} else if from == model.AppointmentActive {
			delete(s.activeSlots, key)
		}
		s.appointments[i].Status = to
		return true, nil
	}
	return false, nil
}

func (s *Store) ListAppointmentsByService(_ context.Context, service string) ([]model.Appointment, error) {
	return s.filterAppointments(func(a model.Appointment) bool {
		return a.IsActive() && a.Service == service
	})
}

func (s *Store) ListMasterAppointments(_ context.Context, masterID int64, from, to time.Time) ([]model.Appointment, error) {
	lo := from.Format(model.DateLayout)
	hi := ""
	if !to.IsZero() {
		hi = to.Format(model.DateLayout)
	}
	return s.filterAppointments(func(a model.Appointment) bool {
		d := a.DateString()
		return a.IsActive() && a.MasterID == masterID && d >= lo && (hi == "" || d <= hi)
	})
}

func (s *Store) filterAppointments(keep func(model.Appointment) bool) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.Appointment
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if di, dj := out[i].DateString(), out[j].DateString(); di != dj {
			return di < dj
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// Appointments returns a snapshot of every stored appointment.
func (s *Store) Appointments() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Appointment(nil), s.appointments...)
}

func (s *Store) InsertReview(_ context.Context, rv *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.appointmentLocked(rv.AppointmentCode); !ok {
		return storage.ErrNotFound
	}
	rv.ID = s.id()
	rv.CreatedAt = s.now()
	s.reviews = append(s.reviews, *rv)
	return nil
}

func (s *Store) FindReviewByID(_ context.Context, id int64) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Review{}, s.failWith
	}
	for _, rv := range s.reviews {
		if rv.ID == id {
			return s.joinLocked(rv), nil
		}
	}
	return model.Review{}, storage.ErrNotFound
}

func (s *Store) UpdateReviewStatus(_ context.Context, id int64, status model.ReviewStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			if s.reviews[i].Status == status {
				return false, nil
			}
			s.reviews[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListReviewsByClient(_ context.Context, clientID int64) ([]model.Review, error) {
	return s.filterReviews(func(rv model.Review) bool {
		return rv.Status == model.ReviewActive && rv.ClientID == clientID
	})
}

func (s *Store) ListActiveReviews(_ context.Context) ([]model.Review, error) {
	return s.filterReviews(func(rv model.Review) bool {
		return rv.Status == model.ReviewActive
	})
}

func (s *Store) filterReviews(keep func(model.Review) bool) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if keep(s.reviews[i]) {
			out = append(out, s.joinLocked(s.reviews[i]))
		}
	}
	return out, nil
}

// Reviews returns a snapshot of every stored review.
func (s *Store) Reviews() []model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Review(nil), s.reviews...)
}

func (s *Store) joinLocked(rv model.Review) model.Review {
	if a, ok := s.appointmentLocked(rv.AppointmentCode); ok {
		rv.Service = a.Service
		rv.Date = a.Date
	}
	return rv
}

func (s *Store) appointmentLocked(code string) (model.Appointment, bool) {
	for _, a := range s.appointments {
		if a.Code == code {
			return a, true
		}
	}
	return model.Appointment{}, false
}

func (s *Store) InsertMaster(_ context.Context, m *model.Master) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.masters {
		if existing.ChatID == m.ChatID {
			return storage.ErrDuplicateChatID
		}
	}
	m.ID = s.id()
	s.masters = append(s.masters, *m)
	return nil
}

func (s *Store) DeleteMaster(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	for i, m := range s.masters {
		if m.ID == id {
			s.masters = append(s.masters[:i], s.masters[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) FindStaffByID(_ context.Context, id int64) (model.Master, error) {
	return s.findMaster(func(m model.Master) bool { return m.ID == id })
}

func (s *Store) FindStaffByChatID(_ context.Context, chatID int64) (model.Master, error) {
	return s.findMaster(func(m model.Master) bool { return m.ChatID == chatID })
}

func (s *Store) findMaster(match func(model.Master) bool) (model.Master, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Master{}, s.failWith
	}
	for _, m := range s.masters {
		if match(m) {
			return m, nil
		}
	}
	return model.Master{}, storage.ErrNotFound
}

func (s *Store) ListStaffByService(_ context.Context, service string) ([]model.Master, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.Master
	for _, m := range s.masters {
		if m.Service == service {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListStaff(_ context.Context) ([]model.Master, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]model.Master(nil), s.masters...), nil
}

func (s *Store) InsertReminderJobs(_ context.Context, jobs []model.ReminderJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
next:
	for _, j := range jobs {
		for _, existing := range s.jobs {
			if existing.AppointmentCode == j.AppointmentCode && existing.Kind == j.Kind {
				continue next
			}
		}
		j.ID = s.id()
		j.Status = model.ReminderPending
		s.jobs = append(s.jobs, j)
	}
	return nil
}

func (s *Store) FetchDueReminderJobs(_ context.Context, now time.Time, limit int) ([]model.ReminderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.ReminderJob
	for _, j := range s.jobs {
		if j.Status == model.ReminderPending && !j.FireAt.After(now) {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].FireAt.Before(out[k].FireAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkReminderJobs(_ context.Context, ids []int64, status model.ReminderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for _, id := range ids {
		for i := range s.jobs {
			if s.jobs[i].ID == id {
				s.jobs[i].Status = status
			}
		}
	}
	return nil
}

func (s *Store) CancelReminderJobs(_ context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	var n int64
	for i := range s.jobs {
		if s.jobs[i].AppointmentCode == code && s.jobs[i].Status == model.ReminderPending {
			s.jobs[i].Status = model.ReminderCanceled
			n++
		}
	}
	return n, nil
}

// ReminderJobs returns a snapshot of every stored reminder job.
func (s *Store) ReminderJobs() []model.ReminderJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ReminderJob(nil), s.jobs...)
}

// SetErr makes every subsequent operation fail with err. A nil err clears it.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}
