package bot

import (
	"context"

	"github.com/futig/template-chat/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client is the subset of *tgbotapi.BotAPI the bot relies on
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type ConversationUsecase interface {
	StartConversation(ctx context.Context) *entity.ConversationSnapshot
	SubmitMessage(ctx context.Context, conversationID string, authorized bool, req *entity.SubmitMessageRequest) (*entity.TurnResult, error)
	GetPreview(ctx context.Context, conversationID string) (entity.PreviewViewModel, error)
	ExportTemplate(ctx context.Context, conversationID string, format entity.ResultFormat) (*entity.ExportedDocument, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}
