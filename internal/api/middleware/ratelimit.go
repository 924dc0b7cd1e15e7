package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/pkg/ratelimit"
	"github.com/futig/template-chat/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// RateLimiter limits requests per client. Clients are keyed by bearer
// token, falling back to the remote IP.
type RateLimiter struct {
	limiter *ratelimit.Limiter
}

func NewRateLimiter(requestsPerMinute, burst int, opts ...ratelimit.Option) *RateLimiter {
	return &RateLimiter{limiter: ratelimit.New(requestsPerMinute, burst, opts...)}
}

// Handler rejects requests over the limit with 429 and a RATE_LIMIT body
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := rl.limiter.Allow(clientKey(r))
		if !allowed {
			ctxzap.Warn(r.Context(), "rate limit exceeded",
				zap.Duration("retry_after", retryAfter),
			)

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			response.ChatError(w, http.StatusTooManyRequests,
				entity.NewChatError(entity.CodeRateLimit, "client rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
