package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/template-chat/internal/entity"
	"github.com/xeipuuv/gojsonschema"
)

// MaxMessageLength bounds a single user message in characters.
const MaxMessageLength = 20000

var submitMessageSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"message"},
	"properties": map[string]any{
		"message": map[string]any{
			"type":      "string",
			"maxLength": MaxMessageLength,
		},
		"refinement_type": map[string]any{
			"type": "string",
			"enum": []any{
				string(entity.RefinementNone),
				string(entity.RefinementProperties),
				string(entity.RefinementViews),
				string(entity.RefinementAutomations),
				string(entity.RefinementOptimization),
			},
		},
	},
}

// Validator checks inbound request payloads against JSON schemas
type Validator struct {
	submitMessage *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(submitMessageSchema))
	if err != nil {
		return nil, fmt.Errorf("compile submit message schema: %w", err)
	}

	return &Validator{submitMessage: schema}, nil
}

// DecodeSubmitMessage validates the raw body and decodes it.
// Blank messages pass here; the conversation rejects them.
func (v *Validator) DecodeSubmitMessage(body []byte) (*entity.SubmitMessageRequest, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: request body", entity.ErrMissingField)
	}

	result, err := v.submitMessage.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidParameter, strings.Join(errs, "; "))
	}

	var req entity.SubmitMessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	return &req, nil
}
