package middleware

import (
	"sync"
	"testing"
	"time"

	"github.com/futig/template-chat/internal/pkg/ratelimit"
	"github.com/futig/template-chat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func textUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	mw := NewRateLimiterMiddleware(
		ratelimit.New(60, 1, ratelimit.WithClock(func() time.Time { return now })),
		zap.NewNop(),
		sender,
	)

	var handled int
	next := func(tgbotapi.Update) { handled++ }

	mw.Handle(textUpdate(7, 70, "hi"), next)
	mw.Handle(textUpdate(7, 70, "hi"), next)
	mw.Handle(textUpdate(7, 70, "hi"), next)
	assert.Equal(t, 1, handled)
	require.Len(t, sender.sent, 1, "one warning per interval")
	assert.Equal(t, int64(70), sender.sent[0].ChatID)

	mw.Handle(textUpdate(8, 80, "hi"), next)
	assert.Equal(t, 2, handled)

	now = now.Add(time.Second)
	mw.Handle(textUpdate(7, 70, "hi"), next)
	assert.Equal(t, 3, handled)

	mw.Handle(tgbotapi.Update{}, next)
	assert.Equal(t, 4, handled, "updates without a user pass through")
}

func TestRecoveryMiddleware(t *testing.T) {
	sender := &fakeSender{}
	mw := NewRecoveryMiddleware(zap.NewNop(), sender)

	assert.NotPanics(t, func() {
		mw.Handle(textUpdate(7, 70, "hi"), func(tgbotapi.Update) { panic("boom") })
	})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, render.ErrGeneric, sender.sent[0].Text)
}

func TestLoggingMiddleware(t *testing.T) {
	var called bool
	NewLoggingMiddleware(zap.NewNop()).Handle(textUpdate(7, 70, "hi"), func(tgbotapi.Update) { called = true })
	assert.True(t, called)

	assert.Equal(t, "text", updateType(textUpdate(7, 70, "hi")))
	assert.Equal(t, "callback", updateType(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{}}))
	assert.Equal(t, "other", updateType(tgbotapi.Update{}))
}
