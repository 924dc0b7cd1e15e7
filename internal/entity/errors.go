package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoTemplate           = errors.New("conversation has no template yet")

	// Template errors
	ErrInvalidTemplate = errors.New("invalid template specification")
	ErrNoValidJSON     = errors.New("no valid JSON found in response")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeRateLimit          ErrorCode = "RATE_LIMIT"
	CodeTokenLimit         ErrorCode = "TOKEN_LIMIT"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInvalidStructure   ErrorCode = "INVALID_STRUCTURE"
	CodeMissingFields      ErrorCode = "MISSING_FIELDS"
	CodeNetwork            ErrorCode = "NETWORK_ERROR"

	// CodeAPIError never reaches end users; it is surfaced as SERVICE_UNAVAILABLE.
	CodeAPIError ErrorCode = "API_ERROR"
)

var userMessages = map[ErrorCode]string{
	CodeRateLimit:          "You've reached the rate limit. Please try again in a few minutes.",
	CodeTokenLimit:         "The response was too long. Please try a simpler request.",
	CodeServiceUnavailable: "The service is temporarily unavailable. Please try again later.",
	CodeAPIError:           "The service is temporarily unavailable. Please try again later.",
	CodeInvalidStructure:   "Failed to process the template structure. Please try again.",
	CodeMissingFields:      "Some required template fields are missing. Please provide more details.",
	CodeValidation:         "Please ensure your input is valid and try again.",
	CodeUnauthorized:       "Please log in to continue.",
	CodeNetwork:            "Network error. Please check your connection and try again.",
}

// UserMessage returns the fixed user-facing text for a code.
// Unknown codes fall back to the network error text.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[CodeNetwork]
}

// ChatError is the typed failure crossing the gateway/orchestrator boundary.
// Message is the technical detail for logs; UserMessage is what callers show.
type ChatError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Err        error
}

func NewChatError(code ErrorCode, message string) *ChatError {
	return &ChatError{Code: code, Message: message}
}

func (e *ChatError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

func (e *ChatError) UserMessage() string {
	return UserMessage(e.Code)
}

// PublicCode is the code shown to callers; API_ERROR stays internal.
func (e *ChatError) PublicCode() ErrorCode {
	if e.Code == CodeAPIError {
		return CodeServiceUnavailable
	}
	return e.Code
}

// Recoverable reports whether the conversation can simply continue.
func (e *ChatError) Recoverable() bool {
	return e.Code == CodeInvalidStructure
}

// AsChatError unwraps err into a ChatError, classifying anything else as a network error.
func AsChatError(err error) *ChatError {
	if err == nil {
		return nil
	}
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr
	}
	return &ChatError{Code: CodeNetwork, Message: err.Error(), Err: err}
}
