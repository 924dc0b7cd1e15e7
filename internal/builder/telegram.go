package builder

import (
	"fmt"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/telegram"
	"go.uber.org/zap"
)

// BuildTelegramBot builds the Telegram front end. Conversations are held
// in this process, separately from the HTTP server's.
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building telegram bot",
		zap.String("environment", cfg.Environment),
	)

	conversationUC := buildConversationUsecase(cfg, logger)

	bot, err := telegram.NewBot(cfg.TelegramCfg, cfg.ConversationCfg, cfg.RequestTimeout, conversationUC, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return bot, logger, nil
}
