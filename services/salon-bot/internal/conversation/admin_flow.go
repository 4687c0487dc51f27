package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/staff"
)

func (c *Controller) onAdminCallback(ctx context.Context, chatID int64, sess *Session, action chat.Action) string {
	switch a := action.(type) {
	case chat.AdminServiceAppointments:
		appts, err := c.engine.ListByService(ctx, a.Service)
		if err != nil {
			c.logger.Error("admin listing failed", "service", a.Service, "err", err)
			return apperr.Message(err, "Could not load bookings")
		}
		if len(appts) == 0 {
			return toastNoBookings
		}
		c.say(ctx, chatID, c.appointmentListText(ctx, appts), backMenu())
	case chat.AdminMasters:
		c.say(ctx, chatID, mastersText(c.roster.List(ctx)), mastersAdminMenu())
	case chat.AdminAddMaster:
		sess.reset()
		sess.State = AdminMasterName
		c.say(ctx, chatID, textAskMasterName, nil)
	case chat.AdminDeleteMaster:
		sess.reset()
		sess.State = AdminDeleteMaster
		c.say(ctx, chatID, textAskMasterID, nil)
	case chat.AdminReviews:
		return c.showReviewList(ctx, chatID)
	case chat.AdminReviewDetail:
		rv, err := c.reviews.Get(ctx, a.ReviewID)
		if err != nil {
			return apperr.Message(err, "Review not found")
		}
		c.say(ctx, chatID, reviewDetailText(rv), reviewDetailMenu(rv.ID))
	case chat.AdminBlockReview:
		if err := c.reviews.Block(ctx, a.ReviewID, c.isAdmin(chatID)); err != nil {
			return apperr.Message(err, "Could not block the review")
		}
		c.showReviewList(ctx, chatID)
		return toastReviewBlocked
	case chat.AdminBack:
		sess.reset()
		c.say(ctx, chatID, textAdminPanel, adminMenu(c.services))
	default:
		c.logger.Warn("unhandled action", "chat_id", chatID, "action", fmt.Sprintf("%T", action))
	}
	return ""
}

func (c *Controller) onAdminText(ctx context.Context, msg chat.Text, sess *Session) {
	chatID := msg.ChatID
	body := strings.TrimSpace(msg.Body)
	switch sess.State {
	case AdminMasterName:
		first, last, err := staff.ParseFullName(body)
		if err != nil {
			c.say(ctx, chatID, "⚠ "+apperr.Message(err, "Invalid name"), nil)
			return
		}
		sess.NewMasterFirst, sess.NewMasterLast = first, last
		sess.State = AdminMasterService
		c.say(ctx, chatID, fmt.Sprintf("Enter the service this master provides (%s):", strings.Join(model.ServiceNames(c.services), ", ")), nil)

	case AdminMasterService:
		if !c.roster.ValidService(body) {
			c.say(ctx, chatID, fmt.Sprintf("⚠ Unknown service. Choose one of: %s", strings.Join(model.ServiceNames(c.services), ", ")), nil)
			return
		}
		sess.NewMasterService = body
		sess.State = AdminMasterChatID
		c.say(ctx, chatID, textAskMasterChatID, nil)

	case AdminMasterChatID:
		if sess.NewMasterFirst == "" || sess.NewMasterService == "" {
			sess.reset()
			c.say(ctx, chatID, textAdminPanel, adminMenu(c.services))
			return
		}
		m, err := c.roster.Add(ctx, sess.NewMasterFirst+" "+sess.NewMasterLast, sess.NewMasterService, body)
		if err != nil {
			if !errors.Is(err, apperr.ErrValidation) {
				sess.reset()
			}
			c.say(ctx, chatID, "⚠ "+apperr.Message(err, "Could not add the master"), nil)
			return
		}
		sess.reset()
		c.say(ctx, chatID, fmt.Sprintf("✅ Master %s added (ID %d)", m.DisplayName(), m.ID), nil)

	case AdminDeleteMaster:
		id, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			c.say(ctx, chatID, textInvalidMasterID, nil)
			return
		}
		m, err := c.roster.Delete(ctx, id)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				sess.reset()
			}
			c.say(ctx, chatID, "⚠️ "+apperr.Message(err, "Could not delete the master"), nil)
			return
		}
		sess.reset()
		c.say(ctx, chatID, fmt.Sprintf("✅ Master %s %s deleted", m.FirstName, m.LastName), nil)
	}
}

func (c *Controller) showReviewList(ctx context.Context, chatID int64) string {
	reviews := c.reviews.ListActive(ctx)
	if len(reviews) == 0 {
		return toastNoReviews
	}
	c.say(ctx, chatID, textReviewList, reviewsMenu(reviews))
	return ""
}

func (c *Controller) showUpcoming(ctx context.Context, chatID int64) {
	m, appts, err := c.roster.Upcoming(ctx, chatID)
	if err != nil {
		c.say(ctx, chatID, "⚠️ "+apperr.Message(err, "Could not load appointments"), nil)
		return
	}
	if len(appts) == 0 {
		c.say(ctx, chatID, textNoUpcoming, nil)
		return
	}
	c.say(ctx, chatID, upcomingText(m, appts), nil)
}

func (c *Controller) showToday(ctx context.Context, chatID int64) {
	m, appts, err := c.roster.Today(ctx, chatID)
	if err != nil {
		c.say(ctx, chatID, "⚠️ "+apperr.Message(err, "Could not load appointments"), nil)
		return
	}
	if len(appts) == 0 {
		c.say(ctx, chatID, textNoToday, nil)
		return
	}
	c.say(ctx, chatID, todayText(m, appts), nil)
}

func (c *Controller) appointmentListText(ctx context.Context, appts []model.Appointment) string {
	var b strings.Builder
	b.WriteString("📋 Bookings:\n\n")
	for _, a := range appts {
		fmt.Fprintf(&b, "🔑 Code: %s\n👤 Client ID: %d\n💅 Service: %s\n", a.Code, a.ClientID, a.Service)
		if a.MasterID != 0 {
			if m, err := c.roster.Get(ctx, a.MasterID); err == nil {
				fmt.Fprintf(&b, "👨‍🔧 Master: %s\n", m.DisplayName())
			}
		}
		fmt.Fprintf(&b, "📅 Date: %s\n⏰ Time: %s\n%s\n", a.DateString(), a.Time, separator)
	}
	return b.String()
}
