package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/integration/common"
	pkghttp "github.com/futig/template-chat/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	apiVersionHeader = "anthropic-version"
	stopMaxTokens    = "max_tokens"
)

var tokenLimitMarkers = []string{
	"max_tokens",
	"token limit",
	"too many tokens",
	"prompt is too long",
	"context length",
	"context window",
}

type Option func(*Connector)

// WithRetryTimer replaces the timer used for backoff sleeps.
func WithRetryTimer(timer retry.Timer) Option {
	return func(c *Connector) {
		c.timer = timer
	}
}

type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
	timer     retry.Timer
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
	opts ...Option,
) *Connector {
	c := &Connector{
		connector: common.NewBaseConnector(
			cfg.HTTPClientConfig,
			cfg.APIKeyHeader,
			logger,
			pkghttp.WithStaticHeader(apiVersionHeader, cfg.APIVersion),
		),
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts the conversation to the messages endpoint. Rate limited
// attempts are retried with linear backoff; every other failure is
// returned immediately as a *entity.ChatError.
func (c *Connector) Send(ctx context.Context, messages []entity.Message, opts entity.SendOptions) (*entity.ModelReply, error) {
	req, err := c.buildRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "sending conversation to model",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("has_system", req.System != ""),
	)

	var extra []retry.Option
	if c.timer != nil {
		extra = append(extra, retry.WithTimer(c.timer))
	}

	onRetry := func(attempt uint, err error) {
		ctxzap.Warn(ctx, "model call failed",
			zap.Uint("attempt", attempt+1),
			zap.Error(err),
		)
	}

	resp, err := retry.DoWithData(
		func() (*entity.LLMMessagesResponse, error) {
			return c.attempt(ctx, req)
		},
		c.config.Retry.ToRetryOptions(ctx, isRateLimited, onRetry, extra...)...,
	)
	if err != nil {
		chatErr := classify(err)
		ctxzap.Error(ctx, "model call failed permanently",
			zap.String("code", string(chatErr.Code)),
			zap.Int("status", chatErr.HTTPStatus),
			zap.String("detail", chatErr.Message),
		)
		return nil, chatErr
	}

	reply, err := toReply(resp)
	if err != nil {
		ctxzap.Error(ctx, "model reply rejected", zap.Error(err))
		return nil, err
	}

	ctxzap.Info(ctx, "model reply received",
		zap.String("stop_reason", reply.StopReason),
		zap.Int("segment_count", len(reply.Segments)),
		zap.Int("output_tokens", reply.Usage.OutputTokens),
	)

	return reply, nil
}

func (c *Connector) attempt(ctx context.Context, req *entity.LLMMessagesRequest) (*entity.LLMMessagesResponse, error) {
	if c.config.Retry.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Retry.Timeout)
		defer cancel()
	}

	var resp entity.LLMMessagesResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.MessagesEndpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Connector) buildRequest(messages []entity.Message, opts entity.SendOptions) (*entity.LLMMessagesRequest, error) {
	if len(messages) == 0 {
		return nil, entity.NewChatError(entity.CodeValidation, "messages must not be empty")
	}

	req := &entity.LLMMessagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Messages:    make([]entity.LLMMessage, 0, len(messages)),
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}

	var system []string
	if strings.TrimSpace(opts.System) != "" {
		system = append(system, opts.System)
	}

	for i, msg := range messages {
		if !msg.Role.Valid() {
			return nil, entity.NewChatError(entity.CodeValidation, fmt.Sprintf("message %d: invalid role %q", i, msg.Role))
		}
		text := msg.Text()
		if strings.TrimSpace(text) == "" {
			return nil, entity.NewChatError(entity.CodeValidation, fmt.Sprintf("message %d: empty content", i))
		}
		// the messages endpoint only accepts user and assistant turns
		if msg.Role == entity.RoleSystem {
			system = append(system, text)
			continue
		}
		req.Messages = append(req.Messages, entity.LLMMessage{Role: string(msg.Role), Content: text})
	}

	if len(req.Messages) == 0 {
		return nil, entity.NewChatError(entity.CodeValidation, "messages must contain a user or assistant turn")
	}
	req.System = strings.Join(system, "\n\n")

	return req, nil
}

func isRateLimited(err error) bool {
	var httpErr *pkghttp.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

func classify(err error) *entity.ChatError {
	var (
		httpErr    *pkghttp.HTTPError
		decodeErr  *pkghttp.DecodeError
		networkErr *pkghttp.NetworkError
	)

	switch {
	case errors.As(err, &httpErr):
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return &entity.ChatError{
				Code:       entity.CodeRateLimit,
				Message:    "rate limit exceeded after retries",
				HTTPStatus: httpErr.StatusCode,
				Err:        err,
			}
		}
		detail := upstreamMessage(httpErr.Message)
		code := entity.CodeAPIError
		if hasTokenLimitMarker(detail) {
			code = entity.CodeTokenLimit
		}
		return &entity.ChatError{
			Code:       code,
			Message:    detail,
			HTTPStatus: httpErr.StatusCode,
			Err:        err,
		}
	case errors.As(err, &decodeErr):
		return &entity.ChatError{
			Code:    entity.CodeAPIError,
			Message: "malformed response body: " + decodeErr.Err.Error(),
			Err:     err,
		}
	case errors.As(err, &networkErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return &entity.ChatError{
			Code:    entity.CodeNetwork,
			Message: err.Error(),
			Err:     err,
		}
	default:
		return &entity.ChatError{
			Code:    entity.CodeAPIError,
			Message: err.Error(),
			Err:     err,
		}
	}
}

// upstreamMessage pulls error.message out of a provider error body,
// falling back to the raw body.
func upstreamMessage(body string) string {
	var resp entity.LLMErrorResponse
	if err := json.Unmarshal([]byte(body), &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	if strings.TrimSpace(body) == "" {
		return "empty error response"
	}
	return body
}

func hasTokenLimitMarker(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range tokenLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func toReply(resp *entity.LLMMessagesResponse) (*entity.ModelReply, error) {
	if resp.StopReason == stopMaxTokens {
		return nil, entity.NewChatError(entity.CodeTokenLimit, "reply truncated at max_tokens")
	}

	reply := &entity.ModelReply{
		Model:      resp.Model,
		StopReason: resp.StopReason,
	}
	if resp.Usage != nil {
		reply.Usage = *resp.Usage
	}

	hasText := false
	for _, block := range resp.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		reply.Segments = append(reply.Segments, entity.ContentSegment{Type: "text", Text: block.Text})
		if strings.TrimSpace(block.Text) != "" {
			hasText = true
		}
	}

	if !hasText {
		return nil, entity.NewChatError(entity.CodeAPIError, "empty/missing content in model reply")
	}

	return reply, nil
}
