package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	pkgRetry "github.com/futig/template-chat/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

const testDelay = 100 * time.Millisecond

func testConfig(url string) config.LLMConnectorConfig {
	return config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout: 5 * time.Second,
			Token:          "secret",
			Url:            url,
		},
		MessagesEndpoint: "/v1/messages",
		APIVersion:       "2023-06-01",
		APIKeyHeader:     "x-api-key",
		Model:            "test-model",
		MaxTokens:        4096,
		Temperature:      0.2,
		Retry: pkgRetry.RetryConfig{
			Attempts: 3,
			Delay:    testDelay,
			Timeout:  5 * time.Second,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func okReply(text string) entity.LLMMessagesResponse {
	return entity.LLMMessagesResponse{
		ID:         "msg_1",
		Model:      "test-model",
		Content:    []entity.LLMContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      &entity.LLMUsage{InputTokens: 10, OutputTokens: 5},
	}
}

func rateLimited(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests, entity.LLMErrorResponse{
		Error: &entity.LLMErrorBody{Type: "rate_limit_error", Message: "slow down"},
	})
}

func newTestConnector(t *testing.T, handler http.HandlerFunc) (*Connector, *recordingTimer, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	timer := &recordingTimer{}
	conn := NewConnector(testConfig(srv.URL), zap.NewNop(), WithRetryTimer(timer))
	return conn, timer, &hits
}

func userTurn(text string) []entity.Message {
	return []entity.Message{entity.NewUserMessage(text)}
}

func requireChatError(t *testing.T, err error, code entity.ErrorCode) *entity.ChatError {
	t.Helper()
	require.Error(t, err)
	chatErr, ok := err.(*entity.ChatError)
	require.True(t, ok, "expected *entity.ChatError, got %T", err)
	assert.Equal(t, code, chatErr.Code)
	return chatErr
}

func TestSend_Success(t *testing.T) {
	var got entity.LLMMessagesRequest
	var headers http.Header

	conn, _, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, okReply("hello"))
	})

	messages := []entity.Message{
		entity.NewSystemMessage("be brief"),
		entity.NewUserMessage("hi"),
		entity.NewAssistantMessage("hello"),
		entity.NewUserMessage("make a template"),
	}

	reply, err := conn.Send(context.Background(), messages, entity.SendOptions{System: "You build templates."})
	require.NoError(t, err)

	assert.Equal(t, "hello", reply.Text())
	assert.Equal(t, "end_turn", reply.StopReason)
	assert.Equal(t, 5, reply.Usage.OutputTokens)
	assert.Equal(t, int32(1), hits.Load())

	assert.Equal(t, "secret", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, "You build templates.\n\nbe brief", got.System)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "make a template", got.Messages[2].Content)
}

func TestSend_SegmentedContentIsJoined(t *testing.T) {
	var got entity.LLMMessagesRequest
	conn, _, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, entity.LLMMessagesResponse{
			Content: []entity.LLMContentBlock{
				{Type: "text", Text: "first"},
				{Type: "text", Text: "  "},
				{Type: "text", Text: "second"},
			},
		})
	})

	msg := entity.Message{
		Role: entity.RoleUser,
		Content: entity.SegmentContent(
			entity.ContentSegment{Type: "text", Text: "line one"},
			entity.ContentSegment{Type: "text", Text: "line two"},
		),
	}

	reply, err := conn.Send(context.Background(), []entity.Message{msg}, entity.SendOptions{})
	require.NoError(t, err)

	assert.Equal(t, "first\nsecond", reply.Text())
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "line one\nline two", got.Messages[0].Content)
}

func TestSend_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	conn, timer, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			rateLimited(w)
			return
		}
		writeJSON(w, http.StatusOK, okReply("finally"))
	})

	reply, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
	require.NoError(t, err)

	assert.Equal(t, "finally", reply.Text())
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{testDelay, 2 * testDelay}, timer.delays)
}

func TestSend_RateLimitExhausted(t *testing.T) {
	conn, timer, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		rateLimited(w)
	})

	_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
	chatErr := requireChatError(t, err, entity.CodeRateLimit)

	assert.Equal(t, http.StatusTooManyRequests, chatErr.HTTPStatus)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{testDelay, 2 * testDelay}, timer.delays)
	assert.Equal(t, entity.UserMessage(entity.CodeRateLimit), chatErr.UserMessage())
}

func TestSend_ServerErrorIsNotRetried(t *testing.T) {
	conn, timer, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, entity.LLMErrorResponse{
			Error: &entity.LLMErrorBody{Type: "api_error", Message: "overloaded backend"},
		})
	})

	_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
	chatErr := requireChatError(t, err, entity.CodeAPIError)

	assert.Equal(t, http.StatusInternalServerError, chatErr.HTTPStatus)
	assert.Equal(t, "overloaded backend", chatErr.Message)
	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, timer.delays)
}

func TestSend_TokenLimit(t *testing.T) {
	t.Run("error marker", func(t *testing.T) {
		conn, _, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, entity.LLMErrorResponse{
				Error: &entity.LLMErrorBody{Type: "invalid_request_error", Message: "prompt is too long: 210000 tokens > 200000 maximum"},
			})
		})

		_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
		chatErr := requireChatError(t, err, entity.CodeTokenLimit)
		assert.Equal(t, http.StatusBadRequest, chatErr.HTTPStatus)
	})

	t.Run("truncated reply", func(t *testing.T) {
		conn, _, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
			resp := okReply(`{"template_name": "Task`)
			resp.StopReason = "max_tokens"
			writeJSON(w, http.StatusOK, resp)
		})

		_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
		requireChatError(t, err, entity.CodeTokenLimit)
	})
}

func TestSend_EmptyContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no content", body: `{"id":"msg_1"}`},
		{name: "empty content", body: `{"content":[]}`},
		{name: "blank text", body: `{"content":[{"type":"text","text":"   "}]}`},
		{name: "non text blocks only", body: `{"content":[{"type":"tool_use","text":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
			chatErr := requireChatError(t, err, entity.CodeAPIError)
			assert.Contains(t, chatErr.Message, "empty/missing content")
		})
	}
}

func TestSend_MalformedBody(t *testing.T) {
	conn, _, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	_, err := conn.Send(context.Background(), userTurn("hi"), entity.SendOptions{})
	requireChatError(t, err, entity.CodeAPIError)
}

func TestSend_ValidationFailsWithoutNetwork(t *testing.T) {
	tests := []struct {
		name     string
		messages []entity.Message
	}{
		{name: "nil", messages: nil},
		{name: "empty text", messages: userTurn("   ")},
		{name: "unknown role", messages: []entity.Message{{Role: "tool", Content: entity.TextContent("hi")}}},
		{name: "system only", messages: []entity.Message{entity.NewSystemMessage("rules")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, okReply("unexpected"))
			})

			_, err := conn.Send(context.Background(), tt.messages, entity.SendOptions{})
			requireChatError(t, err, entity.CodeValidation)
			assert.Equal(t, int32(0), hits.Load())
		})
	}
}

func TestSend_CancelledContext(t *testing.T) {
	conn, _, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okReply("unexpected"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.Send(ctx, userTurn("hi"), entity.SendOptions{})
	chatErr := requireChatError(t, err, entity.CodeNetwork)
	assert.ErrorIs(t, chatErr, context.Canceled)
	assert.Equal(t, int32(0), hits.Load())
}

func TestSend_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, _, hits := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		rateLimited(w)
	})
	conn.timer = nil
	conn.config.Retry.Delay = time.Minute

	_, err := conn.Send(ctx, userTurn("hi"), entity.SendOptions{})
	requireChatError(t, err, entity.CodeNetwork)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMockConnector(t *testing.T) {
	mock := NewMockConnector(zap.NewNop())

	reply, err := mock.Send(context.Background(), userTurn("task tracker please"), entity.SendOptions{})
	require.NoError(t, err)
	assert.Contains(t, reply.Text(), "```json")
	assert.Contains(t, reply.Text(), `"template_name": "Task Tracker"`)

	_, err = mock.Send(context.Background(), nil, entity.SendOptions{})
	requireChatError(t, err, entity.CodeValidation)
}
