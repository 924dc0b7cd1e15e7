package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ConversationUsecase exposes the registry to the transport layer
type ConversationUsecase struct {
	registry   *Registry
	formatters FormatterFactory
	logger     *zap.Logger
}

func NewUsecase(registry *Registry, formatters FormatterFactory, logger *zap.Logger) *ConversationUsecase {
	return &ConversationUsecase{
		registry:   registry,
		formatters: formatters,
		logger:     logger,
	}
}

// StartConversation opens an empty conversation and returns its greeting
func (uc *ConversationUsecase) StartConversation(ctx context.Context) *entity.ConversationSnapshot {
	o := uc.registry.Create()
	ctx = logger.WithConversation(ctx, o.ID())

	ctxzap.Info(ctx, "conversation started", zap.Int("live_conversations", uc.registry.Len()))

	return uc.snapshot(o)
}

// SubmitMessage runs one turn of the conversation
func (uc *ConversationUsecase) SubmitMessage(
	ctx context.Context,
	conversationID string,
	authorized bool,
	req *entity.SubmitMessageRequest,
) (*entity.TurnResult, error) {
	o, err := uc.registry.Get(conversationID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithConversation(ctx, conversationID)
	ctx = logger.AddFields(ctx, zap.String("refinement", string(req.RefinementType)))

	return o.SubmitMessage(ctx, authorized, req.Message, req.RefinementType)
}

func (uc *ConversationUsecase) GetConversation(_ context.Context, conversationID string) (*entity.ConversationSnapshot, error) {
	o, err := uc.registry.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return uc.snapshot(o), nil
}

// GetPreview projects the current template of the conversation
func (uc *ConversationUsecase) GetPreview(_ context.Context, conversationID string) (entity.PreviewViewModel, error) {
	o, err := uc.registry.Get(conversationID)
	if err != nil {
		return entity.PreviewViewModel{}, err
	}
	return o.Preview(), nil
}

func (uc *ConversationUsecase) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := uc.registry.Delete(conversationID); err != nil {
		return err
	}

	ctxzap.Info(logger.WithConversation(ctx, conversationID), "conversation deleted")
	return nil
}

// ExportTemplate renders the current template as a downloadable document
func (uc *ConversationUsecase) ExportTemplate(
	ctx context.Context,
	conversationID string,
	format entity.ResultFormat,
) (*entity.ExportedDocument, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrInvalidParameter, format)
	}

	o, err := uc.registry.Get(conversationID)
	if err != nil {
		return nil, err
	}

	spec := o.Template()
	if spec == nil {
		return nil, entity.ErrNoTemplate
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	data, err := f.Format(spec)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", format, err)
	}

	ctxzap.Info(logger.WithConversation(ctx, conversationID), "template exported",
		zap.String("format", string(format)),
		zap.Int("size", len(data)),
	)

	return &entity.ExportedDocument{
		Filename:    fileStem(spec.TemplateName) + f.FileExtension(),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func fileStem(name string) string {
	stem := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if stem == "" {
		return "template"
	}
	return stem
}

func (uc *ConversationUsecase) snapshot(o *Orchestrator) *entity.ConversationSnapshot {
	snap := o.Snapshot()
	if exp, ok := uc.registry.ExpiresAt(o.ID()); ok {
		snap.ExpiresAt = exp
	}
	return &snap
}
