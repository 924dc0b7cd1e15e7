package conversation

import (
	"context"

	"github.com/futig/template-chat/internal/entity"
)

type ConversationUsecase interface {
	StartConversation(ctx context.Context) *entity.ConversationSnapshot
	SubmitMessage(ctx context.Context, conversationID string, authorized bool, req *entity.SubmitMessageRequest) (*entity.TurnResult, error)
	GetConversation(ctx context.Context, conversationID string) (*entity.ConversationSnapshot, error)
	GetPreview(ctx context.Context, conversationID string) (entity.PreviewViewModel, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	ExportTemplate(ctx context.Context, conversationID string, format entity.ResultFormat) (*entity.ExportedDocument, error)
}

type RequestValidator interface {
	DecodeSubmitMessage(body []byte) (*entity.SubmitMessageRequest, error)
}
