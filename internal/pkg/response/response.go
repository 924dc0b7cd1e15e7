package response

import (
	"encoding/json"
	"net/http"

	"github.com/futig/template-chat/internal/entity"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// headers are already sent, nothing left to report to the client
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response with the status text and a message
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// ChatError writes a failed turn: the fixed user text plus the public code
func ChatError(w http.ResponseWriter, status int, chatErr *entity.ChatError) {
	JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: chatErr.UserMessage(),
		Chat: &entity.ChatErrorDTO{
			Code:    chatErr.PublicCode(),
			Message: chatErr.UserMessage(),
			Status:  chatErr.HTTPStatus,
		},
	})
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
