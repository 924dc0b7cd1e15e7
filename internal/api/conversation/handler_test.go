package conversation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/template-chat/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exportOnlyUsecase struct {
	ConversationUsecase
	doc *entity.ExportedDocument
}

func (u *exportOnlyUsecase) ExportTemplate(context.Context, string, entity.ResultFormat) (*entity.ExportedDocument, error) {
	return u.doc, nil
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestExportTemplate_WriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	h := NewHandler(&exportOnlyUsecase{doc: &entity.ExportedDocument{
		Filename:    "task-tracker.md",
		ContentType: "text/markdown; charset=utf-8",
		Data:        []byte("# Task Tracker\n"),
	}}, nil)
	r := chi.NewRouter()
	RegisterRoutes(r, h, nil)

	req := httptest.NewRequest(http.MethodGet, "/conversations/abc/export", nil)
	req = req.WithContext(ctxzap.ToContext(req.Context(), zap.New(core)))
	rec := httptest.NewRecorder()

	r.ServeHTTP(brokenWriter{rec}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="task-tracker.md"`, rec.Header().Get("Content-Disposition"))

	entries := logs.FilterMessage("export write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "abc", entries[0].ContextMap()["conversation_id"])
}
