package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/extractor"
	"github.com/futig/template-chat/internal/preview"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Orchestrator drives a single conversation. Turns are serialized; the
// history is append-only and only copies of it leave the orchestrator.
type Orchestrator struct {
	id             string
	prompts        config.Prompts
	gateway        Gateway
	maxCorrections int
	createdAt      time.Time

	mu          sync.Mutex
	history     []entity.Message
	template    *entity.TemplateSpecification
	corrections int
}

// NewOrchestrator panics on a nil gateway. maxCorrections caps how many
// corrective prompts are injected in a row; zero disables them.
func NewOrchestrator(id string, prompts config.Prompts, gateway Gateway, maxCorrections int) *Orchestrator {
	if gateway == nil {
		panic("conversation: nil gateway")
	}
	if maxCorrections < 0 {
		maxCorrections = 0
	}

	return &Orchestrator{
		id:             id,
		prompts:        prompts,
		gateway:        gateway,
		maxCorrections: maxCorrections,
		createdAt:      time.Now().UTC(),
	}
}

func (o *Orchestrator) ID() string {
	return o.id
}

// SubmitMessage runs one turn. Every failure is a *entity.ChatError;
// INVALID_STRUCTURE is recoverable and leaves a corrective prompt queued
// in the history for the next turn.
func (o *Orchestrator) SubmitMessage(
	ctx context.Context,
	authorized bool,
	text string,
	refinement entity.RefinementType,
) (*entity.TurnResult, error) {
	if !authorized {
		return nil, entity.NewChatError(entity.CodeUnauthorized, "no authenticated identity")
	}
	if strings.TrimSpace(text) == "" {
		return nil, entity.NewChatError(entity.CodeValidation, "message is blank")
	}
	if !refinement.Known() {
		return nil, &entity.ChatError{
			Code:    entity.CodeValidation,
			Message: fmt.Sprintf("unknown refinement type %q", refinement),
			Err:     entity.ErrInvalidParameter,
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = append(o.history, entity.NewUserMessage(text))

	opts := entity.SendOptions{System: o.systemPrompt(refinement)}
	reply, err := o.gateway.Send(ctx, o.historyCopy(), opts)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		chatErr := entity.AsChatError(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			chatErr = &entity.ChatError{Code: entity.CodeNetwork, Message: err.Error(), Err: err}
		}
		ctxzap.Error(ctx, "model call failed",
			zap.String("code", string(chatErr.Code)),
			zap.Int("status", chatErr.HTTPStatus),
			zap.String("detail", chatErr.Message),
		)
		return nil, chatErr
	}

	raw := reply.Text()
	o.history = append(o.history, reply.Message())

	res, err := extractor.ExtractWithStrategy(raw)
	if err != nil {
		return nil, o.handleInvalid(ctx, err)
	}

	o.template = res.Template
	o.corrections = 0

	ctxzap.Info(ctx, "template accepted",
		zap.String("template_name", res.Template.TemplateName),
		zap.String("strategy", res.Strategy),
		zap.Int("property_count", res.Template.Properties().Len()),
	)

	return &entity.TurnResult{
		Template: res.Template,
		Preview:  preview.Project(res.Template),
		History:  o.historyCopy(),
	}, nil
}

func (o *Orchestrator) handleInvalid(ctx context.Context, err error) *entity.ChatError {
	category := entity.CategoryMalformedJSON
	detail := err.Error()

	var exErr *extractor.Error
	if errors.As(err, &exErr) {
		category = exErr.Category
		detail = exErr.Detail
	}

	if o.corrections < o.maxCorrections {
		o.history = append(o.history, entity.NewUserMessage(o.prompts.CorrectionFor(category, detail)))
		o.corrections++
		ctxzap.Warn(ctx, "invalid template, corrective prompt queued",
			zap.String("category", string(category)),
			zap.String("detail", detail),
			zap.Int("corrections", o.corrections),
		)
	} else {
		ctxzap.Warn(ctx, "invalid template, correction limit reached",
			zap.String("category", string(category)),
			zap.String("detail", detail),
			zap.Int("max_corrections", o.maxCorrections),
		)
	}

	return &entity.ChatError{
		Code:    entity.CodeInvalidStructure,
		Message: fmt.Sprintf("%s: %s", category, detail),
		Err:     err,
	}
}

// systemPrompt appends the refinement instruction for this turn only.
func (o *Orchestrator) systemPrompt(refinement entity.RefinementType) string {
	extra, ok := o.prompts.Refinement(refinement)
	if !ok {
		return o.prompts.System
	}
	if o.prompts.System == "" {
		return extra
	}
	return o.prompts.System + "\n\n" + extra
}

func (o *Orchestrator) historyCopy() []entity.Message {
	out := make([]entity.Message, len(o.history))
	copy(out, o.history)
	return out
}

// History returns a copy of the conversation so far.
func (o *Orchestrator) History() []entity.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.historyCopy()
}

// Template returns the last accepted template, or nil.
func (o *Orchestrator) Template() *entity.TemplateSpecification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.template
}

// Preview projects the current template. Without one, the latest
// assistant reply is scanned as legacy free text, unless it carries JSON.
func (o *Orchestrator) Preview() entity.PreviewViewModel {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.template != nil {
		return preview.Project(o.template)
	}
	for i := len(o.history) - 1; i >= 0; i-- {
		if o.history[i].Role != entity.RoleAssistant {
			continue
		}
		text := o.history[i].Text()
		if _, err := extractor.Extract(text); errors.Is(err, entity.ErrNoValidJSON) {
			return preview.FromLegacyText(text)
		}
		break
	}
	return entity.EmptyPreview()
}

func (o *Orchestrator) Snapshot() entity.ConversationSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return entity.ConversationSnapshot{
		ID:          o.id,
		Greeting:    o.prompts.Greeting,
		History:     o.historyCopy(),
		Template:    o.template,
		Corrections: o.corrections,
		CreatedAt:   o.createdAt,
	}
}
