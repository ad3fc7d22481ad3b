package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Sender отправляет текст через Telegram Bot API.
type Sender struct {
	api *telego.Bot
}

// NewSender создаёт отправителя.
func NewSender(api *telego.Bot) *Sender {
	return &Sender{api: api}
}

// SendText отправляет простое текстовое сообщение.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := s.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("отправка в чат %d: %w", chatID, err)
	}
	return nil
}
