package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram drops the typing action after five seconds.
const typingInterval = 4 * time.Second

type requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TypingNotifier keeps the "typing" indicator alive while a turn runs
type TypingNotifier struct {
	api      requester
	chatID   int64
	interval time.Duration
	logger   *zap.Logger

	once sync.Once
	done chan struct{}
}

func NewTypingNotifier(api requester, chatID int64, logger *zap.Logger) *TypingNotifier {
	return &TypingNotifier{
		api:      api,
		chatID:   chatID,
		interval: typingInterval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start sends the action immediately and then every interval until Stop
// or ctx is done.
func (t *TypingNotifier) Start(ctx context.Context) {
	t.send()

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send()
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (t *TypingNotifier) Stop() {
	t.once.Do(func() { close(t.done) })
}

func (t *TypingNotifier) send() {
	if _, err := t.api.Request(tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)); err != nil {
		t.logger.Warn("failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
