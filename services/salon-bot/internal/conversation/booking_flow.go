package conversation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/booking"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
)

func (c *Controller) selectService(ctx context.Context, chatID int64, sess *Session, a chat.SelectService) string {
	if sess.State != ChoosingService && sess.State != Idle {
		return toastOutdated
	}
	if !c.knownService(a.Service) {
		return toastUnknownService
	}
	sess.State = ChoosingService
	masters := c.roster.ByService(ctx, a.Service)
	if len(masters) == 0 {
		c.say(ctx, chatID, textNoMasters, nil)
		return ""
	}
	sess.Service = a.Service
	sess.State = ChoosingMaster
	c.say(ctx, chatID, textChooseMaster, mastersMenu(masters))
	return ""
}

func (c *Controller) selectMaster(ctx context.Context, chatID int64, sess *Session, a chat.SelectMaster) string {
	if sess.State != ChoosingMaster {
		return toastOutdated
	}
	if missing := sess.missing(ChoosingMaster); missing != "" {
		return c.restart(ctx, chatID, sess, missing)
	}
	m, err := c.roster.Get(ctx, a.MasterID)
	if err != nil {
		return apperr.Message(err, toastMasterNotFound)
	}
	if m.Service != sess.Service {
		return toastMasterOtherService
	}
	sess.MasterID = m.ID
	sess.MasterName = m.DisplayName()
	sess.State = ChoosingDate
	c.say(ctx, chatID, fmt.Sprintf("👨‍🔧 Master: %s\n📅 Choose a date:", sess.MasterName), datesMenu(c.engine.AvailableDates()))
	return ""
}

func (c *Controller) selectDate(ctx context.Context, chatID int64, sess *Session, a chat.SelectDate) string {
	if sess.State != ChoosingDate {
		return toastOutdated
	}
	if missing := sess.missing(ChoosingDate); missing != "" {
		return c.restart(ctx, chatID, sess, missing)
	}
	if !c.engine.IsBookableDate(a.Date) {
		return toastDateUnavailable
	}
	day := time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, c.engine.Location())
	occupied := c.occupied(ctx, chatID, day, sess.Service)

	sess.Date = day
	sess.State = ChoosingTime
	c.say(ctx, chatID, fmt.Sprintf("⏰ Choose a time for %s:", day.Format(displayDateLayout)), timesMenu(occupied))
	return ""
}

func (c *Controller) selectTime(ctx context.Context, chatID int64, sess *Session, a chat.SelectTime) string {
	if sess.State != ChoosingTime {
		return toastOutdated
	}
	if missing := sess.missing(ChoosingTime); missing != "" {
		return c.restart(ctx, chatID, sess, missing)
	}
	if !slices.Contains(booking.TimeSlots(), a.Time) {
		return toastUnknownTime
	}
	if c.occupied(ctx, chatID, sess.Date, sess.Service)[a.Time] {
		return toastSlotTaken
	}
	sess.Time = a.Time
	sess.State = Confirming
	c.say(ctx, chatID, confirmationText(sess), confirmMenu())
	return ""
}

func (c *Controller) confirm(ctx context.Context, chatID int64, sess *Session, a chat.Confirm) string {
	if sess.State != Confirming {
		return toastOutdated
	}
	if !a.Yes {
		sess.reset()
		c.say(ctx, chatID, textBookingDeclined, nil)
		return ""
	}
	if missing := sess.missing(Confirming); missing != "" {
		return c.restart(ctx, chatID, sess, missing)
	}

	selection := *sess
	sess.reset()
	appt, err := c.engine.CreateAppointment(ctx, chatID, selection.Service, selection.Date, selection.Time, selection.MasterID)
	if err != nil {
		c.say(ctx, chatID, "⚠️ "+apperr.Message(err, "Could not create the booking"), nil)
		return ""
	}
	if err := c.engine.ProcessAppointment(ctx, appt); err != nil {
		c.say(ctx, chatID, fmt.Sprintf("✅ Booking created, but there were problems with notifications.\nYour code: %s", appt.Code), nil)
		return ""
	}
	c.say(ctx, chatID, fmt.Sprintf("✅ Booking created!\nYour code: %s", appt.Code), nil)
	return ""
}

// occupied loads the booked times of a day. A failed lookup is logged and
// shown as a fully free day; the store still rejects a double booking.
func (c *Controller) occupied(ctx context.Context, chatID int64, day time.Time, service string) map[string]bool {
	occupied, err := c.engine.CheckAvailability(ctx, day, service)
	if err != nil {
		c.logger.Error("availability lookup failed", "chat_id", chatID, "service", service, "date", day, "err", err)
		return map[string]bool{}
	}
	return occupied
}

func (c *Controller) submitCancelCode(ctx context.Context, msg chat.Text, sess *Session) {
	sess.reset()
	code := strings.ToUpper(strings.TrimSpace(msg.Body))
	if _, err := c.engine.CancelAppointment(ctx, code, msg.ChatID, c.isAdmin(msg.ChatID)); err != nil {
		c.say(ctx, msg.ChatID, "⚠️ "+apperr.Message(err, "Could not cancel the booking"), nil)
		return
	}
	c.say(ctx, msg.ChatID, fmt.Sprintf("✅ Booking %s has been canceled", code), nil)
}

func (c *Controller) rateVisit(ctx context.Context, chatID int64, sess *Session, a chat.RateVisit) string {
	if _, err := c.engine.Appointment(ctx, a.Code); err != nil {
		return apperr.Message(err, "Booking not found")
	}
	sess.reset()
	sess.ReviewCode = a.Code
	sess.ReviewRating = a.Rating
	sess.State = AwaitingReviewComment
	c.say(ctx, chatID, textAskComment, nil)
	return ""
}

func (c *Controller) submitReviewComment(ctx context.Context, msg chat.Text, sess *Session) {
	code, rating := sess.ReviewCode, sess.ReviewRating
	sess.reset()
	if code == "" {
		c.say(ctx, msg.ChatID, textHelp, nil)
		return
	}
	comment := strings.TrimSpace(msg.Body)
	if comment == "-" {
		comment = ""
	}
	if _, err := c.reviews.Submit(ctx, code, msg.ChatID, rating, comment); err != nil {
		c.say(ctx, msg.ChatID, "⚠️ "+apperr.Message(err, "Could not save the review"), nil)
		return
	}
	c.say(ctx, msg.ChatID, textThanksForReview, nil)
}

func (c *Controller) showOwnReviews(ctx context.Context, chatID int64) {
	reviews := c.reviews.ListByClient(ctx, chatID)
	if len(reviews) == 0 {
		c.say(ctx, chatID, textNoOwnReviews, nil)
		return
	}
	c.say(ctx, chatID, ownReviewsText(reviews), nil)
}
