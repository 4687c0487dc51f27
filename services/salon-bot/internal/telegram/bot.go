// Package telegram adapts the Telegram Bot API to the chat boundary.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/md-rashed-zaman/salonbot/libs/ratelimit"
	"github.com/md-rashed-zaman/salonbot/libs/requestid"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api         API
	limiter     ratelimit.Limiter
	logger      *slog.Logger
	pollTimeout int
}

type Config struct {
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
}

// Connect authenticates token against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return api, nil
}

func New(api API, limiter ratelimit.Limiter, logger *slog.Logger, cfg Config) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	return &Bot{api: api, limiter: limiter, logger: logger, pollTimeout: cfg.PollTimeout}
}

func (b *Bot) Send(_ context.Context, chatID int64, text string, menu *chat.Menu) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if menu != nil && len(menu.Rows) > 0 {
		msg.ReplyMarkup = Keyboard(menu)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// ResolveDisplayName returns the public username of chatID, which may be empty.
func (b *Bot) ResolveDisplayName(_ context.Context, chatID int64) (string, error) {
	c, err := b.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return "", fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return c.UserName, nil
}

// Keyboard renders a menu as an inline keyboard.
func Keyboard(menu *chat.Menu) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu.Rows))
	for _, row := range menu.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, chat.Encode(btn.Action)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Poll long-polls for updates until ctx is done and passes each decoded event
// to handle.
func (b *Bot) Poll(ctx context.Context, handle func(context.Context, chat.Event)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, upd, handle)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update, handle func(context.Context, chat.Event)) {
	ctx = requestid.With(ctx, fmt.Sprintf("tg-%d", upd.UpdateID))
	ev, err := EventFromUpdate(upd)
	if err != nil {
		b.logger.Warn("undecodable update", "update_id", upd.UpdateID, "err", err)
		if upd.CallbackQuery != nil {
			b.answerQuietly(ctx, upd.CallbackQuery.ID, apperr.Message(err, "Unknown button"))
		}
		return
	}
	if ev == nil {
		return
	}

	allowed, err := b.limiter.Allow(ctx, strconv.FormatInt(ev.Chat(), 10))
	if err != nil {
		b.logger.Warn("rate limiter unavailable, allowing", "chat_id", ev.Chat(), "err", err)
		allowed = true
	}
	if !allowed {
		b.logger.Info("update dropped by rate limit", "chat_id", ev.Chat())
		if cb, ok := ev.(chat.Callback); ok {
			b.answerQuietly(ctx, cb.ID, "Too many requests, please slow down")
		}
		return
	}
	handle(ctx, ev)
}

func (b *Bot) answerQuietly(ctx context.Context, callbackID, text string) {
	if err := b.AnswerCallback(ctx, callbackID, text); err != nil {
		b.logger.Warn("callback answer failed", "err", err)
	}
}

// EventFromUpdate converts an update into a chat event. Updates the bot does
// not react to yield a nil event and no error.
func EventFromUpdate(upd tgbotapi.Update) (chat.Event, error) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		action, err := chat.Decode(q.Data)
		if err != nil {
			return nil, err
		}
		return chat.Callback{ChatID: callbackChatID(q), ID: q.ID, Action: action}, nil
	case upd.Message != nil:
		msg := upd.Message
		if msg.Chat == nil {
			return nil, nil
		}
		if msg.IsCommand() {
			return chat.Command{ChatID: msg.Chat.ID, Name: strings.ToLower(msg.Command()), Args: msg.CommandArguments()}, nil
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, nil
		}
		return chat.Text{ChatID: msg.Chat.ID, Body: msg.Text}, nil
	}
	return nil, nil
}

func callbackChatID(q *tgbotapi.CallbackQuery) int64 {
	if q.Message != nil && q.Message.Chat != nil {
		return q.Message.Chat.ID
	}
	if q.From != nil {
		return q.From.ID
	}
	return 0
}
