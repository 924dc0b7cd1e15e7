package llm

import (
	"context"

	"github.com/futig/template-chat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockTaskTrackerReply is the canned reply of MockConnector.
const MockTaskTrackerReply = "Here is a task tracker template for your team:\n\n```json\n" + `{
  "template_name": "Task Tracker",
  "description": "Track tasks, owners and due dates for a small team.",
  "page_icon": "✅",
  "blocks": [
    {"object": "block", "type": "heading_1", "heading_1": {"rich_text": [{"type": "text", "text": {"content": "Task Tracker"}}]}},
    {"object": "block", "type": "paragraph", "paragraph": {"rich_text": [{"type": "text", "text": {"content": "Add a row for every task and keep the status up to date."}}]}}
  ],
  "databases": [
    {
      "title": "Tasks",
      "properties": {
        "Name": {"type": "title"},
        "Status": {"type": "select", "options": ["To Do", "In Progress", "Done"]},
        "Due Date": {"type": "date"},
        "Assignee": {"type": "rich_text"}
      }
    }
  ],
  "sample_data": [
    {"Name": "Write onboarding guide", "Status": "In Progress", "Due Date": "2024-05-01", "Assignee": "Alex"}
  ]
}` + "\n```\n\nLet me know if you want more properties or views."

// MockConnector answers every call with the same valid template.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Send(ctx context.Context, messages []entity.Message, _ entity.SendOptions) (*entity.ModelReply, error) {
	if len(messages) == 0 {
		return nil, entity.NewChatError(entity.CodeValidation, "messages must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, &entity.ChatError{Code: entity.CodeNetwork, Message: err.Error(), Err: err}
	}

	ctxzap.Info(ctx, "[MOCK] sending conversation to model", zap.Int("message_count", len(messages)))

	reply := &entity.ModelReply{
		Segments:   []entity.ContentSegment{{Type: "text", Text: MockTaskTrackerReply}},
		Model:      "mock",
		StopReason: "end_turn",
	}

	ctxzap.Info(ctx, "[MOCK] model reply generated", zap.Int("result_length", len(MockTaskTrackerReply)))
	return reply, nil
}
