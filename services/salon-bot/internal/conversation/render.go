package conversation

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/booking"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

const displayDateLayout = "02.01.2006"

const separator = "━━━━━━━━━━━━━━"

const (
	textWelcome         = "✨ Welcome to the beauty salon!\nChoose a service:"
	textStartOver       = "⚠ Something went wrong with your selection, let's start over.\nChoose a service:"
	textHelp            = "Send /start to book a visit, /cancel to cancel a booking or /reviews to see your reviews."
	textUseButtons      = "Please use the buttons above, or send /start to begin again."
	textNoMasters       = "⚠ No masters are available for this service"
	textChooseMaster    = "👨‍🔧 Choose a master:"
	textBookingDeclined = "❌ Booking canceled"
	textAskCancelCode   = "❓ Enter the booking code to cancel:"
	textAskComment      = "💬 Write a comment (or send '-' to skip):"
	textThanksForReview = "💖 Thank you for your review!"
	textNoOwnReviews    = "📭 You have no reviews yet"
	textAdminPanel      = "🔐 Admin panel\nChoose an action:"
	textAskMasterName   = "Enter the master's first and last name (for example, Anna Petrova):"
	textAskMasterChatID = "Enter the master's Telegram ID (numeric):"
	textAskMasterID     = "Enter the ID of the master to delete:"
	textInvalidMasterID = "⚠️ Enter a valid master ID (a number)"
	textReviewList      = "📝 Reviews:"
	textNoUpcoming      = "📭 You have no upcoming appointments."
	textNoToday         = "📭 You have no appointments today."

	toastOutdated           = "This menu is outdated. Send /start to begin again."
	toastUnknownService     = "⚠ Unknown service"
	toastMasterNotFound     = "⚠️ Master not found"
	toastMasterOtherService = "⚠️ This master does not offer the selected service"
	toastDateUnavailable    = "⚠️ This date is not available"
	toastSlotTaken          = "⚠️ This time is already taken!"
	toastUnknownTime        = "⚠️ This time is not available"
	toastNoBookings         = "📭 No bookings"
	toastNoReviews          = "📭 No reviews"
	toastReviewBlocked      = "✅ Review blocked"
)

func servicesMenu(services []model.Service) *chat.Menu {
	buttons := make([]chat.Button, 0, len(services))
	for _, s := range services {
		buttons = append(buttons, chat.Button{Text: s.Label(), Action: chat.SelectService{Service: s.Name}})
	}
	return chat.Grid(2, buttons...)
}

func mastersMenu(masters []model.Master) *chat.Menu {
	buttons := make([]chat.Button, 0, len(masters))
	for _, m := range masters {
		buttons = append(buttons, chat.Button{Text: m.FirstName + " " + m.LastName, Action: chat.SelectMaster{MasterID: m.ID}})
	}
	return chat.Grid(1, buttons...)
}

func datesMenu(dates iter.Seq[time.Time]) *chat.Menu {
	var buttons []chat.Button
	for d := range dates {
		buttons = append(buttons, chat.Button{Text: d.Format(displayDateLayout), Action: chat.SelectDate{Date: d}})
	}
	return chat.Grid(3, buttons...)
}

func timesMenu(occupied map[string]bool) *chat.Menu {
	slots := booking.TimeSlots()
	buttons := make([]chat.Button, 0, len(slots))
	for _, slot := range slots {
		if occupied[slot] {
			buttons = append(buttons, chat.Button{Text: "❌ " + slot, Action: chat.SlotOccupied{}})
			continue
		}
		buttons = append(buttons, chat.Button{Text: slot, Action: chat.SelectTime{Time: slot}})
	}
	return chat.Grid(4, buttons...)
}

func confirmMenu() *chat.Menu {
	return (&chat.Menu{}).Row(
		chat.Button{Text: "✅ Confirm", Action: chat.Confirm{Yes: true}},
		chat.Button{Text: "❌ Cancel", Action: chat.Confirm{Yes: false}},
	)
}

func adminMenu(services []model.Service) *chat.Menu {
	buttons := make([]chat.Button, 0, len(services)+2)
	for _, s := range services {
		buttons = append(buttons, chat.Button{Text: s.Label(), Action: chat.AdminServiceAppointments{Service: s.Name}})
	}
	buttons = append(buttons,
		chat.Button{Text: "👨‍🔧 Masters", Action: chat.AdminMasters{}},
		chat.Button{Text: "📝 Reviews", Action: chat.AdminReviews{}},
	)
	return chat.Grid(2, buttons...)
}

func mastersAdminMenu() *chat.Menu {
	return chat.Grid(1,
		chat.Button{Text: "➕ Add master", Action: chat.AdminAddMaster{}},
		chat.Button{Text: "➖ Delete master", Action: chat.AdminDeleteMaster{}},
		chat.Button{Text: "🔙 Back", Action: chat.AdminBack{}},
	)
}

func reviewsMenu(reviews []model.Review) *chat.Menu {
	buttons := make([]chat.Button, 0, len(reviews)+1)
	for _, rv := range reviews {
		buttons = append(buttons, chat.Button{
			Text:   fmt.Sprintf("⭐ %d from client %d", rv.Rating, rv.ClientID),
			Action: chat.AdminReviewDetail{ReviewID: rv.ID},
		})
	}
	buttons = append(buttons, chat.Button{Text: "🔙 Back", Action: chat.AdminBack{}})
	return chat.Grid(1, buttons...)
}

func reviewDetailMenu(id int64) *chat.Menu {
	return chat.Grid(1,
		chat.Button{Text: "🚫 Block", Action: chat.AdminBlockReview{ReviewID: id}},
		chat.Button{Text: "🔙 Back", Action: chat.AdminReviews{}},
	)
}

func backMenu() *chat.Menu {
	return (&chat.Menu{}).Row(chat.Button{Text: "🔙 Back", Action: chat.AdminBack{}})
}

func confirmationText(s *Session) string {
	return fmt.Sprintf("✅ Confirm your booking:\n💅 Service: %s\n👨‍🔧 Master: %s\n📅 Date: %s\n⏰ Time: %s",
		s.Service, s.MasterName, s.Date.Format(model.DateLayout), s.Time)
}

func ownReviewsText(reviews []model.Review) string {
	var b strings.Builder
	b.WriteString("⭐ Your reviews:\n\n")
	for _, rv := range reviews {
		fmt.Fprintf(&b, "💅 Service: %s\n📅 Date: %s\nRating: %d⭐\n💬 Comment: %s\n%s\n",
			rv.Service, rv.Date.Format(model.DateLayout), rv.Rating, orDash(rv.Comment), separator)
	}
	return b.String()
}

func reviewDetailText(rv model.Review) string {
	return fmt.Sprintf("⭐ Rating: %d\n💬 Comment: %s\n💅 Service: %s\n👤 Client ID: %d\n📅 Date: %s",
		rv.Rating, orDash(rv.Comment), rv.Service, rv.ClientID, rv.CreatedAt.Format(model.DateLayout))
}

func mastersText(masters []model.Master) string {
	if len(masters) == 0 {
		return "👨‍🔧 No masters yet."
	}
	var b strings.Builder
	b.WriteString("👨‍🔧 Masters:\n\n")
	for _, m := range masters {
		fmt.Fprintf(&b, "🔑 ID: %d\n👤 Name: %s\n💅 Service: %s\n🆔 TG ID: %s\n%s\n",
			m.ID, m.DisplayName(), m.Service, strconv.FormatInt(m.ChatID, 10), separator)
	}
	return b.String()
}

// upcomingText groups appointments by date; they arrive ordered by date and time.
func upcomingText(m model.Master, appts []model.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👨‍🔧 %s\n📋 Your upcoming appointments:\n\n", m.DisplayName())
	day := ""
	for _, a := range appts {
		if d := a.DateString(); d != day {
			if day != "" {
				b.WriteString(separator + "\n")
			}
			day = d
			fmt.Fprintf(&b, "📅 %s:\n", day)
		}
		fmt.Fprintf(&b, "⏰ %s - %s\n👤 Client: ID %d\n🔑 Code: %s\n", a.Time, a.Service, a.ClientID, a.Code)
	}
	b.WriteString(separator + "\n")
	return b.String()
}

func todayText(m model.Master, appts []model.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👨‍🔧 %s\n📋 Your appointments today:\n\n", m.DisplayName())
	for _, a := range appts {
		fmt.Fprintf(&b, "⏰ %s - %s\n👤 Client: ID %d\n🔑 Code: %s\n%s\n", a.Time, a.Service, a.ClientID, a.Code, separator)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
