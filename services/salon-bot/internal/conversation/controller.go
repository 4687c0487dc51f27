// Package conversation drives the per-chat dialogue: the client booking flow,
// cancellations and reviews, staff schedules and the admin panel.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/booking"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/reviews"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/staff"
)

type Deps struct {
	Out      chat.Responder
	Engine   *booking.Engine
	Reviews  *reviews.Service
	Roster   *staff.Roster
	Services []model.Service
	AdminID  int64
	Logger   *slog.Logger
}

type Controller struct {
	out      chat.Responder
	engine   *booking.Engine
	reviews  *reviews.Service
	roster   *staff.Roster
	services []model.Service
	adminID  int64
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func New(d Deps) *Controller {
	return &Controller{
		out:      d.Out,
		engine:   d.Engine,
		reviews:  d.Reviews,
		roster:   d.Roster,
		services: d.Services,
		adminID:  d.AdminID,
		logger:   d.Logger,
		sessions: map[int64]*Session{},
	}
}

// Session returns a copy of the chat's current session. Chats without one
// are Idle.
func (c *Controller) Session(chatID int64) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[chatID]; ok {
		return *s
	}
	return Session{}
}

func (c *Controller) session(chatID int64) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[chatID]
	if !ok {
		s = &Session{}
		c.sessions[chatID] = s
	}
	return s
}

func (c *Controller) isAdmin(chatID int64) bool {
	return chatID == c.adminID
}

// Handle processes one inbound event. It never returns an error: failures are
// reported to the user and logged.
func (c *Controller) Handle(ctx context.Context, ev chat.Event) {
	sess := c.session(ev.Chat())
	before := sess.State

	switch ev := ev.(type) {
	case chat.Command:
		c.onCommand(ctx, ev, sess)
	case chat.Text:
		c.onText(ctx, ev, sess)
	case chat.Callback:
		toast := c.onCallback(ctx, ev, sess)
		if err := c.out.AnswerCallback(ctx, ev.ID, toast); err != nil {
			c.logger.Warn("callback answer failed", "chat_id", ev.ChatID, "err", err)
		}
	default:
		c.logger.Warn("unsupported event", "type", fmt.Sprintf("%T", ev))
	}

	if sess.State != before {
		c.logger.Debug("conversation state changed", "chat_id", ev.Chat(), "from", before, "to", sess.State)
	}
	if sess.State == Idle {
		c.forget(ev.Chat())
	}
}

func (c *Controller) forget(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, chatID)
}

func (c *Controller) onCommand(ctx context.Context, cmd chat.Command, sess *Session) {
	sess.reset()
	chatID := cmd.ChatID
	switch cmd.Name {
	case "start":
		sess.State = ChoosingService
		c.say(ctx, chatID, textWelcome, servicesMenu(c.services))
	case "cancel":
		sess.State = AwaitingCancelCode
		c.say(ctx, chatID, textAskCancelCode, nil)
	case "reviews":
		c.showOwnReviews(ctx, chatID)
	case "admin":
		if !c.isAdmin(chatID) {
			return
		}
		c.say(ctx, chatID, textAdminPanel, adminMenu(c.services))
	case "my_appointments":
		c.showUpcoming(ctx, chatID)
	case "today":
		c.showToday(ctx, chatID)
	default:
		c.say(ctx, chatID, textHelp, nil)
	}
}

func (c *Controller) onText(ctx context.Context, msg chat.Text, sess *Session) {
	switch sess.State {
	case AwaitingCancelCode:
		c.submitCancelCode(ctx, msg, sess)
	case AwaitingReviewComment:
		c.submitReviewComment(ctx, msg, sess)
	case AdminMasterName, AdminMasterService, AdminMasterChatID, AdminDeleteMaster:
		if !c.isAdmin(msg.ChatID) {
			sess.reset()
			return
		}
		c.onAdminText(ctx, msg, sess)
	case ChoosingService, ChoosingMaster, ChoosingDate, ChoosingTime, Confirming:
		c.say(ctx, msg.ChatID, textUseButtons, nil)
	default:
		c.say(ctx, msg.ChatID, textHelp, nil)
	}
}

// onCallback handles a button press and returns the toast to show.
func (c *Controller) onCallback(ctx context.Context, cb chat.Callback, sess *Session) string {
	switch a := cb.Action.(type) {
	case chat.SelectService:
		return c.selectService(ctx, cb.ChatID, sess, a)
	case chat.SelectMaster:
		return c.selectMaster(ctx, cb.ChatID, sess, a)
	case chat.SelectDate:
		return c.selectDate(ctx, cb.ChatID, sess, a)
	case chat.SelectTime:
		return c.selectTime(ctx, cb.ChatID, sess, a)
	case chat.SlotOccupied:
		return toastSlotTaken
	case chat.Confirm:
		return c.confirm(ctx, cb.ChatID, sess, a)
	case chat.RateVisit:
		return c.rateVisit(ctx, cb.ChatID, sess, a)
	default:
		if !c.isAdmin(cb.ChatID) {
			return ""
		}
		return c.onAdminCallback(ctx, cb.ChatID, sess, cb.Action)
	}
}

// restart sends the client back to service selection after a step found
// data from an earlier step missing.
func (c *Controller) restart(ctx context.Context, chatID int64, sess *Session, missing string) string {
	c.logger.Warn("booking step missing selection, restarting", "chat_id", chatID, "state", sess.State, "missing", missing)
	sess.reset()
	sess.State = ChoosingService
	c.say(ctx, chatID, textStartOver, servicesMenu(c.services))
	return ""
}

func (c *Controller) knownService(name string) bool {
	return slices.ContainsFunc(c.services, func(s model.Service) bool { return s.Name == name })
}

func (c *Controller) say(ctx context.Context, chatID int64, text string, menu *chat.Menu) {
	if err := c.out.Send(ctx, chatID, text, menu); err != nil {
		c.logger.Error("reply failed", "chat_id", chatID, "err", err)
	}
}
