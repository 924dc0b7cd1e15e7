package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/pkg/ratelimit"
	"github.com/futig/template-chat/internal/telegram/bot"
	"github.com/futig/template-chat/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against the Bot API and wires the bot to the
// conversation usecase. Sessions live as long as conversations do.
func NewBot(
	cfg config.TelegramConfig,
	conversationCfg config.ConversationConfig,
	requestTimeout time.Duration,
	usecase bot.ConversationUsecase,
	logger *zap.Logger,
) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	sessions := state.NewManager(conversationCfg.TTL, conversationCfg.CleanupInterval)
	limiter := ratelimit.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	b := bot.New(api, cfg, requestTimeout, sessions, usecase, limiter, logger)

	logger.Info("telegram bot initialized successfully")
	return b, nil
}
