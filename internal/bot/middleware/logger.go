// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"unicode/utf8"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(message *telego.Message) {
	if message == nil {
		return
	}

	fields := log.Fields{
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"text":      truncate(message.Text, 50),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.Username
	}
	log.WithFields(fields).Debug("Входящее сообщение")
}

// truncate обрезает строку по рунам, а не по байтам.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
