// Package extractor recovers a single template object from free-form model output.
package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/schema"
)

const noValidJSONDetail = "No valid JSON found in response"

var fencedBlock = regexp.MustCompile("(?s)```[ \\t]*(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// Strategy names, in the order they are tried.
const (
	StrategyDirect = "direct"
	StrategyFenced = "fenced"
	StrategyBraces = "braces"
)

// Error is returned when no strategy produced an accepted template.
// Category and Detail come from the first candidate that parsed but was
// rejected, or malformedJson when nothing parsed at all.
type Error struct {
	Category entity.ErrorCategory
	Detail   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract template: %s: %s", e.Category, e.Detail)
}

func (e *Error) Unwrap() error {
	if e.Category == entity.CategoryMalformedJSON {
		return entity.ErrNoValidJSON
	}
	return entity.ErrInvalidTemplate
}

// Verdict converts the error back into a validation verdict.
func (e *Error) Verdict() entity.ValidationVerdict {
	return entity.Invalid(e.Category, e.Detail)
}

// Result carries the accepted template and the strategy that produced it.
type Result struct {
	Template *entity.TemplateSpecification
	Strategy string
}

type chain struct {
	rejected *entity.ValidationVerdict
}

// Extract runs the fallback chain: whole text, fenced blocks, then brace scan.
func Extract(raw string) (*entity.TemplateSpecification, error) {
	res, err := ExtractWithStrategy(raw)
	if err != nil {
		return nil, err
	}
	return res.Template, nil
}

func ExtractWithStrategy(raw string) (*Result, error) {
	var c chain

	if spec := c.try(strings.TrimSpace(raw)); spec != nil {
		return &Result{Template: spec, Strategy: StrategyDirect}, nil
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(raw, -1) {
		if spec := c.try(strings.TrimSpace(m[1])); spec != nil {
			return &Result{Template: spec, Strategy: StrategyFenced}, nil
		}
	}

	for _, candidate := range braceSpans(raw) {
		if spec := c.try(candidate); spec != nil {
			return &Result{Template: spec, Strategy: StrategyBraces}, nil
		}
	}

	if c.rejected != nil {
		return nil, &Error{Category: c.rejected.ErrorCategory, Detail: c.rejected.Detail}
	}
	return nil, &Error{Category: entity.CategoryMalformedJSON, Detail: noValidJSONDetail}
}

// try parses and validates one candidate, remembering the first rejection.
func (c *chain) try(candidate string) *entity.TemplateSpecification {
	if candidate == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil
	}
	if _, isObject := decoded.(map[string]any); !isObject {
		return nil
	}

	verdict := schema.Validate(decoded)
	if !verdict.IsValid {
		if c.rejected == nil {
			c.rejected = &verdict
		}
		return nil
	}

	spec, err := entity.ParseTemplate([]byte(candidate))
	if err != nil {
		if c.rejected == nil {
			rejected := entity.Invalid(entity.CategoryMissingFields, "Invalid template structure: "+err.Error())
			c.rejected = &rejected
		}
		return nil
	}
	return spec
}

// braceSpans returns, for every '{' not inside an earlier span, the complete
// JSON value starting there. The decoder understands strings, so braces in
// quoted text never end a span early.
func braceSpans(raw string) []string {
	var spans []string

	for offset := 0; offset < len(raw); {
		idx := strings.IndexByte(raw[offset:], '{')
		if idx < 0 {
			break
		}
		start := offset + idx

		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			offset = start + 1
			continue
		}

		spans = append(spans, string(bytes.TrimSpace(value)))
		offset = start + int(dec.InputOffset())
	}

	return spans
}
