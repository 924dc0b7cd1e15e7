package entity

import "time"

type RefinementType string

const (
	RefinementNone         RefinementType = ""
	RefinementProperties   RefinementType = "properties"
	RefinementViews        RefinementType = "views"
	RefinementAutomations  RefinementType = "automations"
	RefinementOptimization RefinementType = "optimization"
)

// Known reports whether r is empty or one of the refinement kinds.
func (r RefinementType) Known() bool {
	switch r {
	case RefinementNone, RefinementProperties, RefinementViews, RefinementAutomations, RefinementOptimization:
		return true
	default:
		return false
	}
}

// TurnResult is what a settled, successful turn hands back.
type TurnResult struct {
	Template *TemplateSpecification
	Preview  PreviewViewModel
	History  []Message
}

// ConversationSnapshot is a read-only view of a conversation.
type ConversationSnapshot struct {
	ID          string
	Greeting    string
	History     []Message
	Template    *TemplateSpecification
	Corrections int
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// HTTP DTOs

type SubmitMessageRequest struct {
	Message        string         `json:"message"`
	RefinementType RefinementType `json:"refinement_type,omitempty"`
}

type CreateConversationResponse struct {
	ID       string `json:"id"`
	Greeting string `json:"greeting"`
}

type SubmitMessageResponse struct {
	Content *TemplateSpecification `json:"content"`
	Preview PreviewViewModel       `json:"preview"`
}

type ConversationDTO struct {
	ID          string                 `json:"id"`
	Greeting    string                 `json:"greeting"`
	Messages    []Message              `json:"messages"`
	Template    *TemplateSpecification `json:"template,omitempty"`
	Corrections int                    `json:"corrections"`
	CreatedAt   time.Time              `json:"created_at"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
}

type ChatErrorDTO struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`
}

type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Chat    *ChatErrorDTO `json:"chat_error,omitempty"`
}
