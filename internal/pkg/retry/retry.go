package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
	defaultTimeout  = 90 * time.Second
)

// RetryConfig bounds retries of a single outbound call.
// Delay is the linear base: attempt n waits Delay*n before the next try.
// Timeout bounds each attempt, not the whole sequence.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"1s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"90s"`
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		Timeout:  defaultTimeout,
	}
}

// LinearDelay returns base*n. retry-go passes n starting at 1 for the
// wait after the first failed attempt.
func LinearDelay(base time.Duration) retry.DelayTypeFunc {
	return func(n uint, _ error, _ *retry.Config) time.Duration {
		if n == 0 {
			n = 1
		}
		return base * time.Duration(n)
	}
}

// ToRetryOptions builds retry-go options: linear backoff, no jitter, last
// error only, and cancellation through ctx.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context, retryIf retry.RetryIfFunc, onRetry retry.OnRetryFunc, extra ...retry.Option) []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(LinearDelay(rc.Delay)),
		retry.LastErrorOnly(true),
	}
	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(onRetry))
	}
	return append(opts, extra...)
}
