package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/template-chat/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5m"`

	// Model gateway configuration
	LLMConnectorCfg LLMConnectorConfig `envPrefix:"LLM_"`

	// Conversation registry configuration
	ConversationCfg ConversationConfig `envPrefix:"CONVERSATION_"`

	// Per-client limit on message submissions (0 disables)
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Telegram bot configuration (cmd/telegram-bot only)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Prompt tables (loaded from JSON file, defaults otherwise)
	PromptsFile string `env:"PROMPTS_FILE" envDefault:"internal/config/prompts.json"`
	Prompts     Prompts

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	MessagesEndpoint string               `env:"MESSAGES_ENDPOINT" envDefault:"/v1/messages"`
	APIVersion       string               `env:"API_VERSION" envDefault:"2023-06-01"`
	APIKeyHeader     string               `env:"API_KEY_HEADER" envDefault:"x-api-key"`
	Model            string               `env:"MODEL,notEmpty"`
	MaxTokens        int                  `env:"MAX_TOKENS" envDefault:"4096"`
	Temperature      float64              `env:"TEMPERATURE" envDefault:"0.2"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"120s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"110s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://api.anthropic.com"`
}

// ConversationConfig controls the in-memory conversation registry
// and the corrective prompt bound.
type ConversationConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
	MaxCorrections  int           `env:"MAX_CORRECTIONS" envDefault:"3"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `env:"PER_MINUTE" envDefault:"20"`
	Burst             int `env:"BURST" envDefault:"5"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string        `env:"BOT_TOKEN"`
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"` // seconds
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	prompts, err := LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	cfg.Prompts = prompts

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	llm := cfg.LLMConnectorCfg
	if llm.MaxTokens < 1 || llm.MaxTokens > 64000 {
		errs = append(errs, fmt.Sprintf("LLM_MAX_TOKENS must be between 1 and 64000, got %d", llm.MaxTokens))
	}

	if llm.Temperature < 0 || llm.Temperature > 1 {
		errs = append(errs, fmt.Sprintf("LLM_TEMPERATURE must be between 0 and 1, got %g", llm.Temperature))
	}

	if llm.Retry.Attempts < 1 || llm.Retry.Attempts > 10 {
		errs = append(errs, fmt.Sprintf("LLM_RETRY_ATTEMPTS must be between 1 and 10, got %d", llm.Retry.Attempts))
	}

	if llm.Retry.Delay < 0 {
		errs = append(errs, fmt.Sprintf("LLM_RETRY_DELAY must not be negative, got %s", llm.Retry.Delay))
	}

	if llm.Retry.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("LLM_RETRY_TIMEOUT must be positive, got %s", llm.Retry.Timeout))
	}

	if cfg.ConversationCfg.MaxCorrections < 0 {
		errs = append(errs, fmt.Sprintf("CONVERSATION_MAX_CORRECTIONS must not be negative, got %d", cfg.ConversationCfg.MaxCorrections))
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout))
	}

	if cfg.RateLimitCfg.RequestsPerMinute < 0 || cfg.RateLimitCfg.Burst < 0 {
		errs = append(errs, "RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must not be negative")
	}

	tg := cfg.TelegramCfg
	if tg.RateLimitPerMinute < 1 || tg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", tg.RateLimitPerMinute))
	}

	if tg.RateLimitBurst < 1 || tg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", tg.RateLimitBurst))
	}

	if tg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be positive, got %s", tg.ShutdownTimeout))
	}

	if cfg.ConversationCfg.TTL <= 0 {
		errs = append(errs, fmt.Sprintf("CONVERSATION_TTL must be positive, got %s", cfg.ConversationCfg.TTL))
	}

	if len(errs) > 0 {
		return errors.New("configuration validation errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
