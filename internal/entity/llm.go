package entity

import "strings"

type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMMessagesRequest struct {
	Model       string       `json:"model"`
	Messages    []LLMMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	System      string       `json:"system,omitempty"`
}

type LLMContentBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type LLMUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type LLMMessagesResponse struct {
	ID         string            `json:"id,omitempty"`
	Model      string            `json:"model,omitempty"`
	Content    []LLMContentBlock `json:"content"`
	StopReason string            `json:"stop_reason,omitempty"`
	Usage      *LLMUsage         `json:"usage,omitempty"`
}

type LLMErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type LLMErrorResponse struct {
	Error *LLMErrorBody `json:"error"`
}

// SendOptions tune a single gateway call.
type SendOptions struct {
	System      string
	Model       string
	MaxTokens   int
	Temperature *float64
}

// ModelReply is a successful gateway result.
type ModelReply struct {
	Segments   []ContentSegment
	Model      string
	StopReason string
	Usage      LLMUsage
}

// Text joins the non-empty text segments in order.
func (r *ModelReply) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if strings.TrimSpace(s.Text) != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Message wraps the reply as an assistant turn.
func (r *ModelReply) Message() Message {
	return NewAssistantMessage(r.Text())
}
