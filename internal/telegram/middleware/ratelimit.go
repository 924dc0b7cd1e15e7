package middleware

import (
	"strconv"
	"time"

	"github.com/futig/template-chat/internal/pkg/ratelimit"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const warningInterval = 30 * time.Second

// RateLimiterMiddleware drops updates from users over their budget and
// warns them at most once per warningInterval.
type RateLimiterMiddleware struct {
	limiter *ratelimit.Limiter
	warned  *cache.Cache
	logger  *zap.Logger
	api     Sender
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger, api Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter: limiter,
		warned:  cache.New(warningInterval, time.Minute),
		logger:  logger,
		api:     api,
	}
}

// Handle processes the update through rate limiting
func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID := updateIDs(update)
	if userID == 0 {
		// Unknown update type, allow it
		next(update)
		return
	}

	key := strconv.FormatInt(userID, 10)
	if allowed, retryAfter := rl.limiter.Allow("tg:" + key); !allowed {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
			zap.Duration("retry_after", retryAfter),
		)
		if rl.warned.Add(key, struct{}{}, cache.DefaultExpiration) == nil && chatID != 0 {
			rl.sendRateLimitWarning(chatID)
		}
		return
	}

	next(update)
}

// sendRateLimitWarning sends a warning message to the user
func (rl *RateLimiterMiddleware) sendRateLimitWarning(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ Too many requests. Please wait a moment before sending more.")
	if _, err := rl.api.Send(msg); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
