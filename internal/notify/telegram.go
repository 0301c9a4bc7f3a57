package notify

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Sender is the part of the Telegram bot the channel needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramChannel pushes events to a Telegram chat.
type TelegramChannel struct {
	sender Sender
	chatID int64
}

// NewTelegramChannel creates a TelegramChannel targeting the given chat.
func NewTelegramChannel(sender Sender, chatID int64) *TelegramChannel {
	return &TelegramChannel{sender: sender, chatID: chatID}
}

// Name implements Channel.
func (c *TelegramChannel) Name() string { return "telegram" }

// Send implements Channel.
func (c *TelegramChannel) Send(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf("[%s] %s", event.Kind, event.Message)
	if _, err := c.sender.Send(tele.ChatID(c.chatID), text); err != nil {
		return errdefs.Provider("telegram", err)
	}
	return nil
}
