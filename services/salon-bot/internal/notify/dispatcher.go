// Package notify sends the salon's outbound messages. Delivery is best effort:
// failures are logged and never reach the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

type StaffFinder interface {
	FindStaffByID(ctx context.Context, id int64) (model.Master, error)
}

type Dispatcher struct {
	sender  chat.Sender
	staff   StaffFinder
	adminID int64
	logger  *slog.Logger
}

func NewDispatcher(sender chat.Sender, staff StaffFinder, adminID int64, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, staff: staff, adminID: adminID, logger: logger}
}

func (d *Dispatcher) NotifyAdminNewBooking(ctx context.Context, appt model.Appointment) {
	var b strings.Builder
	b.WriteString("📌 New booking!\n")
	fmt.Fprintf(&b, "🔑 Code: %s\n💅 Service: %s\n", appt.Code, appt.Service)
	if m, ok := d.master(ctx, appt.MasterID); ok {
		fmt.Fprintf(&b, "👨‍🔧 Master: %s\n", m.DisplayName())
	}
	fmt.Fprintf(&b, "📅 Date: %s\n⏰ Time: %s\n👤 Client ID: %d", appt.DateString(), appt.Time, appt.ClientID)
	d.send(ctx, d.adminID, b.String(), nil, "admin_new_booking", appt.Code)
}

func (d *Dispatcher) NotifyAdminCancellation(ctx context.Context, appt model.Appointment) {
	text := fmt.Sprintf("🚫 Booking canceled!\n🔑 Code: %s\n💅 Service: %s\n📅 Date: %s\n⏰ Time: %s\n👤 Client ID: %d",
		appt.Code, appt.Service, appt.DateString(), appt.Time, appt.ClientID)
	d.send(ctx, d.adminID, text, nil, "admin_cancellation", appt.Code)
}

// NotifyStaffNewBooking is a no-op when the master no longer exists.
func (d *Dispatcher) NotifyStaffNewBooking(ctx context.Context, staffID int64, appt model.Appointment) {
	m, ok := d.master(ctx, staffID)
	if !ok || m.ChatID == 0 {
		return
	}
	text := fmt.Sprintf("📌 You have a new booking!\n💅 Service: %s\n📅 Date: %s\n⏰ Time: %s",
		appt.Service, appt.DateString(), appt.Time)
	d.send(ctx, m.ChatID, text, nil, "staff_new_booking", appt.Code)
}

func (d *Dispatcher) NotifyClientReminder(ctx context.Context, clientID int64, appt model.Appointment) {
	text := fmt.Sprintf("🔔 Booking reminder!\n💅 Service: %s\n📅 Date: %s\n⏰ Time: %s",
		appt.Service, appt.DateString(), appt.Time)
	d.send(ctx, clientID, text, nil, "client_reminder", appt.Code)
}

func (d *Dispatcher) NotifyClientCancellation(ctx context.Context, clientID int64, appt model.Appointment) {
	text := fmt.Sprintf("🚫 Your booking was canceled by the administrator.\n🔑 Code: %s\n💅 Service: %s\n📅 Date: %s\n⏰ Time: %s",
		appt.Code, appt.Service, appt.DateString(), appt.Time)
	d.send(ctx, clientID, text, nil, "client_cancellation", appt.Code)
}

// PromptReview asks the client to rate the visit with a 1 to 5 star menu.
func (d *Dispatcher) PromptReview(ctx context.Context, clientID int64, code string) {
	d.send(ctx, clientID, "Please rate our service:", RatingMenu(code), "review_prompt", code)
}

func RatingMenu(code string) *chat.Menu {
	buttons := make([]chat.Button, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		buttons = append(buttons, chat.Button{
			Text:   strconv.Itoa(rating) + "⭐",
			Action: chat.RateVisit{Code: code, Rating: rating},
		})
	}
	return chat.Grid(5, buttons...)
}

func (d *Dispatcher) master(ctx context.Context, id int64) (model.Master, bool) {
	if id == 0 {
		return model.Master{}, false
	}
	m, err := d.staff.FindStaffByID(ctx, id)
	if err != nil {
		d.logger.Warn("master lookup failed", "master_id", id, "err", err)
		return model.Master{}, false
	}
	return m, true
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, menu *chat.Menu, kind, code string) {
	if err := d.sender.Send(ctx, chatID, text, menu); err != nil {
		d.logger.Error("notification failed", "kind", kind, "chat_id", chatID, "code", code, "err", err)
		return
	}
	d.logger.Debug("notification sent", "kind", kind, "chat_id", chatID, "code", code)
}
