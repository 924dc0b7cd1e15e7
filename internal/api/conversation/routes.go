package conversation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers conversation routes. limit, when set, guards
// message submission only.
func RegisterRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", h.StartConversation)
		r.Get("/{id}", h.GetConversation)
		r.Delete("/{id}", h.DeleteConversation)
		r.Get("/{id}/preview", h.GetPreview)
		r.Get("/{id}/export", h.ExportTemplate)

		if limit != nil {
			r.With(limit).Post("/{id}/messages", h.SubmitMessage)
		} else {
			r.Post("/{id}/messages", h.SubmitMessage)
		}
	})
}
