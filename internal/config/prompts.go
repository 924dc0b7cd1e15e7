package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

// ErrorPlaceholder is replaced with the validation detail in error prompts.
const ErrorPlaceholder = "{error}"

// Prompts is the prompt table handed to the conversation orchestrator.
type Prompts struct {
	Greeting    string                           `json:"greeting"`
	System      string                           `json:"system"`
	Refinements map[entity.RefinementType]string `json:"refinements"`
	Errors      map[entity.ErrorCategory]string  `json:"errors"`
}

var defaultSystemPrompt = strings.TrimSpace(`
You are a helpful assistant trained to create Notion templates based on user input and specifications.
Follow Notion API specifications where applicable.

Always answer with exactly one JSON object inside a ` + "```json" + ` code block, using these keys:
- "template_name": short non-empty name
- "description": non-empty description of the template and how to use it
- "page_icon": optional emoji
- "cover": optional image URL
- "blocks": array of Notion blocks, each with "object": "block", a "type" such as heading_1, paragraph,
  callout, divider or bulleted_list_item, and the matching type payload
- "databases": array of {"title": string, "properties": {name: config}}; every property config has a
  "type" from: title, rich_text, number, select, multi_select, date, formula, relation, rollup, files,
  checkbox, url, email, phone_number, created_time, created_by, last_edited_time, last_edited_by.
  select and multi_select properties list "options" as an array of labels; formula properties carry
  {"formula": {"expression": "..."}}
- "sample_data": optional array of rows keyed by property name
Do not add any other top-level keys.`)

// DefaultPrompts returns the built-in prompt table.
func DefaultPrompts() Prompts {
	return Prompts{
		Greeting: "Hi! I'm here to help you create a Notion template. To get started, could you tell me what kind of template you're looking for? For example, is it for project management, content planning, personal organization, or something else?",
		System:   defaultSystemPrompt,
		Refinements: map[entity.RefinementType]string{
			entity.RefinementProperties:   "Based on the template specification provided, suggest additional properties that would enhance the functionality. Include exact Notion API configurations for each suggestion.",
			entity.RefinementViews:        "Analyze the current view configurations and recommend additional views that would improve data visualization and workflow. Provide complete view specifications.",
			entity.RefinementAutomations:  "Review the template structure and suggest advanced automations using Notion formulas, relations, and rollups. Include exact formula syntax and configuration details.",
			entity.RefinementOptimization: "Evaluate the current template specification and suggest optimizations for performance and usability. Include specific technical improvements.",
		},
		Errors: map[entity.ErrorCategory]string{
			entity.CategoryInvalidProperty: "The property configuration is invalid. Please provide a corrected specification that matches the Notion API requirements. Current error: {error}",
			entity.CategoryInvalidView:     "The view configuration is incorrect. Please provide a valid view specification according to the Notion API documentation. Current error: {error}",
			entity.CategoryFormulaError:    "The formula syntax is invalid. Please provide a corrected formula that follows Notion's formula syntax. Current error: {error}",
			entity.CategoryInvalidBlock:    "One of the content blocks is invalid. Every block needs \"object\": \"block\" and a \"type\". Please resend the full corrected specification. Current error: {error}",
			entity.CategoryMissingFields:   "The template specification is missing required fields (template_name, description, blocks and databases). Please resend the complete specification. Current error: {error}",
			entity.CategoryMalformedJSON:   "Your previous reply did not contain a valid JSON template. Please answer with exactly one JSON object in a json code block. Current error: {error}",
		},
	}
}

// Validate checks that every refinement kind and error category has a prompt.
func (p Prompts) Validate() error {
	var errs []error

	if strings.TrimSpace(p.System) == "" {
		errs = append(errs, fmt.Errorf("%w: system prompt", entity.ErrMissingField))
	}

	for _, kind := range []entity.RefinementType{
		entity.RefinementProperties,
		entity.RefinementViews,
		entity.RefinementAutomations,
		entity.RefinementOptimization,
	} {
		if strings.TrimSpace(p.Refinements[kind]) == "" {
			errs = append(errs, fmt.Errorf("%w: refinement prompt %q", entity.ErrMissingField, kind))
		}
	}

	for _, category := range entity.ErrorCategories {
		if strings.TrimSpace(p.Errors[category]) == "" {
			errs = append(errs, fmt.Errorf("%w: error prompt %q", entity.ErrMissingField, category))
		}
	}

	return errors.Join(errs...)
}

// Refinement returns the trailing instruction for a refinement kind.
func (p Prompts) Refinement(kind entity.RefinementType) (string, bool) {
	if kind == entity.RefinementNone {
		return "", false
	}
	prompt, ok := p.Refinements[kind]
	return prompt, ok && prompt != ""
}

// CorrectionFor renders the corrective prompt for a failed verdict.
// Unknown categories fall back to the malformed JSON prompt.
func (p Prompts) CorrectionFor(category entity.ErrorCategory, detail string) string {
	tmpl, ok := p.Errors[category]
	if !ok || tmpl == "" {
		tmpl = p.Errors[entity.CategoryMalformedJSON]
	}
	return strings.ReplaceAll(tmpl, ErrorPlaceholder, detail)
}

// LoadPrompts reads a prompts JSON file. Missing keys keep their defaults;
// a missing file means the defaults are used as-is.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: prompts file not found at %s, using default prompts\n", path)
		return prompts, nil
	}
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts file: %w", err)
	}

	if len(data) == 0 {
		return Prompts{}, fmt.Errorf("prompts file is empty: %s", path)
	}

	var override Prompts
	if err := json.Unmarshal(data, &override); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts JSON: %w", err)
	}

	if override.Greeting != "" {
		prompts.Greeting = override.Greeting
	}
	if override.System != "" {
		prompts.System = override.System
	}
	for kind, text := range override.Refinements {
		prompts.Refinements[kind] = text
	}
	for category, text := range override.Errors {
		prompts.Errors[category] = text
	}

	if err := prompts.Validate(); err != nil {
		return Prompts{}, fmt.Errorf("prompts file %s: %w", path, err)
	}

	return prompts, nil
}
