package middleware

import (
	"runtime/debug"

	"github.com/futig/template-chat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RecoveryMiddleware recovers from panics
type RecoveryMiddleware struct {
	logger *zap.Logger
	bot    Sender
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(logger *zap.Logger, bot Sender) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger,
		bot:    bot,
	}
}

// Handle recovers from panics
func (m *RecoveryMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic recovered in telegram handler",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
				zap.Int("update_id", update.UpdateID),
			)

			// Try to send error message to user
			if _, chatID := updateIDs(update); chatID != 0 {
				if _, err := m.bot.Send(tgbotapi.NewMessage(chatID, render.ErrGeneric)); err != nil {
					m.logger.Error("failed to send error message",
						zap.Error(err),
						zap.Int64("chat_id", chatID),
					)
				}
			}
		}
	}()

	next(update)
}
