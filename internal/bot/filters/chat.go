// Package filters решает, в каких чатах бот отвечает.
package filters

import (
	"slices"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает сообщения из разрешённых чатов.
// Пустой список разрешённых = бот работает везде.
// Личка администратора пропускается всегда, чтобы работала админка.
type ChatFilter struct {
	allowed []int64
	isAdmin func(userID int64) bool
}

// NewChatFilter создаёт фильтр.
func NewChatFilter(allowed []int64, isAdmin func(userID int64) bool) *ChatFilter {
	return &ChatFilter{allowed: allowed, isAdmin: isAdmin}
}

// CheckAccess проверяет, обрабатывать ли сообщение.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if len(f.allowed) == 0 || slices.Contains(f.allowed, message.Chat.ID) {
		return true
	}
	if message.Chat.Type == telego.ChatTypePrivate && f.isAdmin != nil && f.isAdmin(message.From.ID) {
		logger.Debug("allow: admin DM")
		return true
	}

	logger.Info("deny: chat not in ALLOWED_CHAT_IDS")
	return false
}
