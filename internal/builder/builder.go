package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/template-chat/internal/api"
	conversationapi "github.com/futig/template-chat/internal/api/conversation"
	"github.com/futig/template-chat/internal/api/middleware"
	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/integration/llm"
	"github.com/futig/template-chat/internal/pkg/formatter"
	"github.com/futig/template-chat/internal/pkg/validator"
	"github.com/futig/template-chat/internal/usecase/conversation"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	conversationUC := buildConversationUsecase(cfg, logger)

	// Initialize validators
	requestValidator, err := validator.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	logger.Info("Validators initialized")

	// Setup API handlers
	conversationHandler := conversationapi.NewHandler(conversationUC, requestValidator)
	logger.Info("API handlers initialized")

	var limiter *middleware.RateLimiter
	if cfg.RateLimitCfg.RequestsPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitCfg.RequestsPerMinute, cfg.RateLimitCfg.Burst)
		logger.Info("Rate limiting enabled",
			zap.Int("per_minute", cfg.RateLimitCfg.RequestsPerMinute),
			zap.Int("burst", cfg.RateLimitCfg.Burst),
		)
	}

	// Setup router
	router := api.SetupRouter(conversationHandler, limiter, logger, cfg.RequestTimeout)
	logger.Info("HTTP router configured")

	// Create HTTP server; a turn may span several model attempts
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:          server,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// buildConversationUsecase wires the model gateway, registry and
// formatters shared by the HTTP server and the Telegram bot
func buildConversationUsecase(cfg *config.Config, logger *zap.Logger) *conversation.ConversationUsecase {
	// Initialize model gateway (with mock support)
	var gateway conversation.Gateway
	if cfg.EnableMocks {
		logger.Info("Using mock model gateway")
		gateway = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using model gateway",
			zap.String("url", cfg.LLMConnectorCfg.Url),
			zap.String("model", cfg.LLMConnectorCfg.Model),
		)
		gateway = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	registry := conversation.NewRegistry(cfg.ConversationCfg, cfg.Prompts, gateway)
	conversationUC := conversation.NewUsecase(registry, formatter.NewFactory(), logger)
	logger.Info("Use cases initialized",
		zap.Duration("conversation_ttl", cfg.ConversationCfg.TTL),
		zap.Int("max_corrections", cfg.ConversationCfg.MaxCorrections),
	)

	return conversationUC
}
