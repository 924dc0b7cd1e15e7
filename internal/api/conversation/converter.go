package conversation

import (
	"net/http"

	"github.com/futig/template-chat/internal/entity"
)

func toConversationDTO(snap *entity.ConversationSnapshot) *entity.ConversationDTO {
	dto := &entity.ConversationDTO{
		ID:          snap.ID,
		Greeting:    snap.Greeting,
		Messages:    snap.History,
		Template:    snap.Template,
		Corrections: snap.Corrections,
		CreatedAt:   snap.CreatedAt,
	}
	if dto.Messages == nil {
		dto.Messages = []entity.Message{}
	}
	if !snap.ExpiresAt.IsZero() {
		exp := snap.ExpiresAt
		dto.ExpiresAt = &exp
	}
	return dto
}

func toSubmitMessageResponse(res *entity.TurnResult) *entity.SubmitMessageResponse {
	return &entity.SubmitMessageResponse{
		Content: res.Template,
		Preview: res.Preview,
	}
}

// chatErrorStatus picks the response status for a failed turn
func chatErrorStatus(code entity.ErrorCode) int {
	switch code {
	case entity.CodeValidation:
		return http.StatusBadRequest
	case entity.CodeUnauthorized:
		return http.StatusUnauthorized
	case entity.CodeRateLimit:
		return http.StatusTooManyRequests
	case entity.CodeTokenLimit:
		return http.StatusRequestEntityTooLarge
	case entity.CodeInvalidStructure, entity.CodeMissingFields:
		return http.StatusUnprocessableEntity
	case entity.CodeServiceUnavailable, entity.CodeAPIError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
