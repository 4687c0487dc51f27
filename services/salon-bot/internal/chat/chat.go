// Package chat defines the boundary between the salon domain and a chat
// transport: outbound menus, inbound events and the capabilities the domain
// consumes from the transport.
package chat

import "context"

type Button struct {
	Text   string
	Action Action
}

// Menu is an inline keyboard laid out in rows.
type Menu struct {
	Rows [][]Button
}

// Row appends a row holding the given buttons.
func (m *Menu) Row(buttons ...Button) *Menu {
	m.Rows = append(m.Rows, buttons)
	return m
}

// Grid lays buttons out in rows of width cells.
func Grid(width int, buttons ...Button) *Menu {
	m := &Menu{}
	for len(buttons) > 0 {
		n := min(width, len(buttons))
		m.Row(buttons[:n]...)
		buttons = buttons[n:]
	}
	return m
}

// Sender delivers a text message, optionally with a menu, to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, menu *Menu) error
}

// Responder is a Sender that can also acknowledge a button press with a
// short toast. An empty text only clears the client's progress indicator.
type Responder interface {
	Sender
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// DisplayNameResolver looks up the public handle of a chat, without the "@".
type DisplayNameResolver interface {
	ResolveDisplayName(ctx context.Context, chatID int64) (string, error)
}

// Event is an inbound user interaction.
type Event interface {
	Chat() int64
}

// Command is a "/name args" message.
type Command struct {
	ChatID int64
	Name   string
	Args   string
}

type Text struct {
	ChatID int64
	Body   string
}

type Callback struct {
	ChatID int64
	ID     string
	Action Action
}

func (c Command) Chat() int64  { return c.ChatID }
func (t Text) Chat() int64     { return t.ChatID }
func (c Callback) Chat() int64 { return c.ChatID }
