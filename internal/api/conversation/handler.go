package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/futig/template-chat/internal/api/middleware"
	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/pkg/logger"
	"github.com/futig/template-chat/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	usecase   ConversationUsecase
	validator RequestValidator
}

func NewHandler(usecase ConversationUsecase, validator RequestValidator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// StartConversation handles POST /conversations - Open a conversation
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartConversation")

	snap := h.usecase.StartConversation(ctx)

	ctxzap.Info(ctx, "conversation created", zap.String("conversation_id", snap.ID))
	response.Created(w, entity.CreateConversationResponse{
		ID:       snap.ID,
		Greeting: snap.Greeting,
	})
}

// SubmitMessage handles POST /conversations/{id}/messages - Run one turn
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "SubmitMessage"),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req, err := h.validator.DecodeSubmitMessage(body)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	ctxzap.Info(ctx, "submitting message",
		zap.Int("message_length", len(req.Message)),
		zap.String("refinement", string(req.RefinementType)),
	)

	res, err := h.usecase.SubmitMessage(ctx, conversationID, middleware.IsAuthorized(ctx), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "template produced",
		zap.String("template_name", res.Template.TemplateName),
		zap.Int("history_length", len(res.History)),
	)
	response.Success(w, toSubmitMessageResponse(res))
}

// GetConversation handles GET /conversations/{id} - History and current template
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "GetConversation"),
	)

	ctxzap.Debug(ctx, "fetching conversation")

	snap, err := h.usecase.GetConversation(ctx, conversationID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toConversationDTO(snap))
}

// GetPreview handles GET /conversations/{id}/preview
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "GetPreview"),
	)

	vm, err := h.usecase.GetPreview(ctx, conversationID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, vm)
}

// ExportTemplate handles GET /conversations/{id}/export?format=markdown|docx|pdf
func (h *Handler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "ExportTemplate"),
	)

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	doc, err := h.usecase.ExportTemplate(ctx, conversationID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		ctxzap.Warn(ctx, "export write failed", zap.Error(err))
	}
}

// DeleteConversation handles DELETE /conversations/{id}
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "DeleteConversation"),
	)

	if err := h.usecase.DeleteConversation(ctx, conversationID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// Helper methods
func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.Error(w, status, message)
}

func (h *Handler) respondChatError(ctx context.Context, w http.ResponseWriter, chatErr *entity.ChatError) {
	status := chatErrorStatus(chatErr.Code)
	if chatErr.Recoverable() {
		ctxzap.Warn(ctx, "turn produced no valid template", zap.Error(chatErr))
	} else {
		ctxzap.Error(ctx, "turn failed", zap.Error(chatErr))
	}

	response.ChatError(w, status, chatErr)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var chatErr *entity.ChatError
	if errors.As(err, &chatErr) {
		h.respondChatError(ctx, w, chatErr)
	} else if errors.Is(err, entity.ErrConversationNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "conversation not found", err)
	} else if errors.Is(err, entity.ErrNoTemplate) {
		h.respondError(ctx, w, http.StatusConflict, "conversation has no template yet", err)
	} else if errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) || errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
