// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/telebot.v3"
)

// Sender is the subset of *telebot.Bot the adapter needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter delivers reminders as direct Telegram messages. It
// implements notification.Channel.
type TelebotAdapter struct {
	bot Sender
}

func NewTelebotAdapter(b Sender) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID} // Owners are reached in their private chat
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// Send addresses recipient as a Telegram chat ID. telebot has no per-call
// context, so ctx is only checked before the request goes out.
func (tba *TelebotAdapter) Send(ctx context.Context, recipient, body string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram recipient %q: %w", recipient, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tba.SendMessage(chatID, body, nil)
}
