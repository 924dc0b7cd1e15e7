package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/pkg/logger"
	"github.com/futig/template-chat/internal/pkg/ratelimit"
	"github.com/futig/template-chat/internal/telegram/keyboard"
	"github.com/futig/template-chat/internal/telegram/middleware"
	"github.com/futig/template-chat/internal/telegram/render"
	"github.com/futig/template-chat/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Bot represents the Telegram bot
type Bot struct {
	api            Client
	cfg            config.TelegramConfig
	requestTimeout time.Duration
	sessions       *state.Manager
	usecase        ConversationUsecase
	keyboard       *keyboard.Builder
	logger         *zap.Logger
	loggingMW      *middleware.LoggingMiddleware
	recoveryMW     *middleware.RecoveryMiddleware
	rateLimitMW    *middleware.RateLimiterMiddleware
	stopOnce       sync.Once
	stopChan       chan struct{}
	wg             sync.WaitGroup
}

// New creates a Telegram front end over the conversation usecase.
// requestTimeout bounds a single turn.
func New(
	api Client,
	cfg config.TelegramConfig,
	requestTimeout time.Duration,
	sessions *state.Manager,
	usecase ConversationUsecase,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:            api,
		cfg:            cfg,
		requestTimeout: requestTimeout,
		sessions:       sessions,
		usecase:        usecase,
		keyboard:       keyboard.NewBuilder(),
		logger:         logger,
		loggingMW:      middleware.NewLoggingMiddleware(logger),
		recoveryMW:     middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW:    middleware.NewRateLimiterMiddleware(limiter, logger, api),
		stopChan:       make(chan struct{}),
	}
}

// Start starts long polling; updates are handled until ctx is done or Stop is called
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx, updates)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.cfg.ShutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", b.cfg.ShutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-updates:
			if !ok {
				ctxzap.Info(ctx, "updates channel closed")
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	userID, chatID := message.From.ID, message.Chat.ID
	ctx = logger.AddFields(ctx,
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)

	if message.IsCommand() {
		b.handleCommand(ctx, message.Command(), userID, chatID)
		return
	}

	if message.Text == "" {
		b.sendMessage(ctx, chatID, render.MsgTextOnly, nil)
		return
	}

	b.handleText(ctx, userID, chatID, message.Text)
}

func (b *Bot) handleCommand(ctx context.Context, command string, userID, chatID int64) {
	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start", "new":
		b.startConversation(ctx, userID, chatID)
	case "help":
		b.sendMessage(ctx, chatID, render.MsgHelp, nil)
	case "preview":
		b.showPreview(ctx, userID, chatID)
	case "export":
		if _, ok := b.sessions.Get(userID); !ok {
			b.sendMessage(ctx, chatID, render.MsgNoConversation, b.keyboard.StartKeyboard())
			return
		}
		b.sendMessage(ctx, chatID, render.MsgChooseFormat, b.keyboard.ExportKeyboard())
	case "cancel":
		b.closeConversation(ctx, userID)
		b.sendMessage(ctx, chatID, render.MsgConversationClosed, nil)
	default:
		b.sendMessage(ctx, chatID, render.MsgUnknownCommand, nil)
	}
}

// startConversation replaces any conversation the user already has
func (b *Bot) startConversation(ctx context.Context, userID, chatID int64) {
	b.closeConversation(ctx, userID)

	snap := b.usecase.StartConversation(ctx)
	b.sessions.Set(userID, state.Session{ConversationID: snap.ID})

	ctxzap.Info(ctx, "telegram conversation started", zap.String("conversation_id", snap.ID))
	b.sendMessage(ctx, chatID, snap.Greeting, nil)
}

func (b *Bot) closeConversation(ctx context.Context, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		return
	}
	b.sessions.Delete(userID)

	err := b.usecase.DeleteConversation(ctx, sess.ConversationID)
	if err != nil && !errors.Is(err, entity.ErrConversationNotFound) {
		ctxzap.Error(ctx, "failed to delete conversation",
			zap.Error(err),
			zap.String("conversation_id", sess.ConversationID),
		)
	}
}

func (b *Bot) handleText(ctx context.Context, userID, chatID int64, text string) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.sendMessage(ctx, chatID, render.MsgNoConversation, b.keyboard.StartKeyboard())
		return
	}
	ctx = logger.WithConversation(ctx, sess.ConversationID)

	req := &entity.SubmitMessageRequest{
		Message:        text,
		RefinementType: b.sessions.TakeRefinement(userID),
	}

	typing := NewTypingNotifier(b.api, chatID, b.logger)
	typing.Start(ctx)
	defer typing.Stop()

	turnCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	// Telegram has already authenticated the sender.
	res, err := b.usecase.SubmitMessage(turnCtx, sess.ConversationID, true, req)
	if err != nil {
		b.replyError(ctx, userID, chatID, err)
		return
	}

	b.sendMessage(ctx, chatID, render.Template(res.Template, res.Preview), b.keyboard.TemplateKeyboard())
}

func (b *Bot) showPreview(ctx context.Context, userID, chatID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.sendMessage(ctx, chatID, render.MsgNoConversation, b.keyboard.StartKeyboard())
		return
	}

	vm, err := b.usecase.GetPreview(ctx, sess.ConversationID)
	if err != nil {
		b.replyError(ctx, userID, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, render.Preview(vm), nil)
}

func (b *Bot) exportTemplate(ctx context.Context, userID, chatID int64, format entity.ResultFormat) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.sendMessage(ctx, chatID, render.MsgNoConversation, b.keyboard.StartKeyboard())
		return
	}

	doc, err := b.usecase.ExportTemplate(ctx, sess.ConversationID, format)
	if err != nil {
		b.replyError(ctx, userID, chatID, err)
		return
	}

	if err := b.SendDocument(chatID, doc.Filename, doc.Data); err != nil {
		ctxzap.Error(ctx, "failed to send document", zap.Error(err))
		b.sendMessage(ctx, chatID, render.ErrGeneric, nil)
	}
}

func (b *Bot) replyError(ctx context.Context, userID, chatID int64, err error) {
	var chatErr *entity.ChatError
	switch {
	case errors.As(err, &chatErr):
		ctxzap.Warn(ctx, "turn failed", zap.Error(chatErr))
		b.sendMessage(ctx, chatID, render.ChatError(chatErr), nil)
	case errors.Is(err, entity.ErrConversationNotFound):
		b.sessions.Delete(userID)
		b.sendMessage(ctx, chatID, render.MsgConversationExpired, b.keyboard.StartKeyboard())
	case errors.Is(err, entity.ErrNoTemplate):
		b.sendMessage(ctx, chatID, render.MsgNoTemplate, nil)
	default:
		ctxzap.Error(ctx, "telegram request failed", zap.Error(err))
		b.sendMessage(ctx, chatID, render.ErrGeneric, nil)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil || query.Message.Chat == nil {
		return
	}

	userID, chatID := query.From.ID, query.Message.Chat.ID
	ctx = logger.AddFields(ctx,
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)

	data, err := keyboard.ParseCallback(query.Data)
	if err != nil {
		ctxzap.Error(ctx, "invalid callback data",
			zap.Error(err),
			zap.String("data", query.Data),
		)
		b.answerCallback(query.ID, "❌ Invalid data")
		return
	}

	ctxzap.Info(ctx, "callback query received",
		zap.String("action", data.Action),
		zap.String("value", data.Value),
	)

	switch data.Action {
	case keyboard.ActionStart:
		b.answerCallback(query.ID, "")
		b.startConversation(ctx, userID, chatID)
	case keyboard.ActionRefine:
		refinement, ok := data.Refinement()
		if !ok {
			b.answerCallback(query.ID, "❌ Invalid data")
			return
		}
		b.answerCallback(query.ID, "")
		if !b.sessions.SetRefinement(userID, refinement) {
			b.sendMessage(ctx, chatID, render.MsgNoConversation, b.keyboard.StartKeyboard())
			return
		}
		b.sendMessage(ctx, chatID, render.RefinementQueued(refinement), nil)
	case keyboard.ActionExport:
		format, ok := data.Format()
		if !ok {
			b.answerCallback(query.ID, "❌ Invalid data")
			return
		}
		// Answer right away so Telegram does not expire the query.
		b.answerCallback(query.ID, render.MsgExporting)
		b.exportTemplate(ctx, userID, chatID, format)
	default:
		b.answerCallback(query.ID, "❌ Invalid data")
	}
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.api.Send(msg); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// SendDocument sends a file to the chat
func (b *Bot) SendDocument(chatID int64, filename string, data []byte) error {
	doc := tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	}

	if _, err := b.api.Send(tgbotapi.NewDocument(chatID, doc)); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
