package schema

import (
	"encoding/json"
	"testing"

	"github.com/futig/template-chat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

const validTemplate = `{
	"template_name": "Task Tracker",
	"description": "Track tasks",
	"blocks": [{"object": "block", "type": "heading_1", "heading_1": {"rich_text": []}}],
	"databases": [{
		"title": "Tasks",
		"properties": {
			"Name": {"type": "title"},
			"Status": {"type": "select", "options": ["Not Started", "In Progress", "Complete"]},
			"Notes": {"type": "text"},
			"Score": {"type": "formula", "formula": {"expression": "prop(\"Points\") * 2"}}
		}
	}]
}`

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "databases shape", raw: validTemplate},
		{
			name: "legacy database_properties",
			raw:  `{"template_name": "A", "description": "B", "blocks": [], "database_properties": {"Name": {"type": "title"}}}`,
		},
		{
			name: "empty legacy properties",
			raw:  `{"template_name": "A", "description": "B", "blocks": [], "database_properties": {}}`,
		},
		{
			name: "legacy views with type and name",
			raw: `{"template_name": "A", "description": "B", "blocks": [], "database_properties": {},
				"views": [{"type": "board", "name": "By status"}]}`,
		},
		{
			name: "nested notion select options",
			raw: `{"template_name": "A", "description": "B", "blocks": [],
				"database_properties": {"Tags": {"type": "multi_select", "multi_select": {"options": [{"name": "x"}]}}}}`,
		},
		{
			name: "null optional fields",
			raw: `{"template_name": "A", "description": "B", "blocks": [],
				"databases": [{"title": null, "properties": {}}], "database_properties": null, "sample_data": null}`,
		},
		{
			name: "select without options",
			raw:  `{"template_name": "A", "description": "B", "blocks": [], "database_properties": {"S": {"type": "select"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(decode(t, tt.raw))
			assert.True(t, verdict.IsValid, verdict.Detail)
			assert.Empty(t, verdict.ErrorCategory)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category entity.ErrorCategory
	}{
		{name: "not an object", raw: `[1, 2]`, category: entity.CategoryMalformedJSON},
		{name: "null", raw: `null`, category: entity.CategoryMalformedJSON},
		{name: "missing template_name", raw: `{"description": "x", "blocks": []}`, category: entity.CategoryMissingFields},
		{name: "blank description", raw: `{"template_name": "x", "description": "  ", "blocks": []}`, category: entity.CategoryMissingFields},
		{name: "missing blocks", raw: `{"template_name": "x", "description": "y", "database_properties": {}}`, category: entity.CategoryMissingFields},
		{name: "blocks not array", raw: `{"template_name": "x", "description": "y", "blocks": {}, "database_properties": {}}`, category: entity.CategoryMissingFields},
		{
			name:     "block without object kind",
			raw:      `{"template_name": "x", "description": "y", "blocks": [{"type": "paragraph"}], "database_properties": {}}`,
			category: entity.CategoryInvalidBlock,
		},
		{
			name:     "block without type kind",
			raw:      `{"template_name": "x", "description": "y", "blocks": [{"object": "block"}], "database_properties": {}}`,
			category: entity.CategoryInvalidBlock,
		},
		{name: "no properties at all", raw: `{"template_name": "x", "description": "y", "blocks": []}`, category: entity.CategoryMissingFields},
		{name: "empty databases", raw: `{"template_name": "x", "description": "y", "blocks": [], "databases": []}`, category: entity.CategoryMissingFields},
		{
			name:     "database without properties",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "databases": [{"title": "T"}]}`,
			category: entity.CategoryMissingFields,
		},
		{
			name:     "unknown property type",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {"A": {"type": "status"}}}`,
			category: entity.CategoryInvalidProperty,
		},
		{
			name:     "missing property type",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {"A": {}}}`,
			category: entity.CategoryInvalidProperty,
		},
		{
			name:     "empty select options",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {"A": {"type": "select", "options": []}}}`,
			category: entity.CategoryInvalidProperty,
		},
		{
			name:     "formula without expression",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {"F": {"type": "formula"}}}`,
			category: entity.CategoryFormulaError,
		},
		{
			name:     "formula with blank expression",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {"F": {"type": "formula", "formula": {"expression": ""}}}}`,
			category: entity.CategoryFormulaError,
		},
		{
			name:     "database title not a string",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "databases": [{"title": 7, "properties": {}}]}`,
			category: entity.CategoryMissingFields,
		},
		{
			name:     "sample_data not an array",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {}, "sample_data": "none"}`,
			category: entity.CategoryMissingFields,
		},
		{
			name:     "sample_data row not an object",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {}, "sample_data": [1]}`,
			category: entity.CategoryMissingFields,
		},
		{
			name: "legacy properties not an object next to databases",
			raw: `{"template_name": "x", "description": "y", "blocks": [],
				"databases": [{"title": "T", "properties": {}}], "database_properties": []}`,
			category: entity.CategoryMissingFields,
		},
		{
			name:     "view without name",
			raw:      `{"template_name": "x", "description": "y", "blocks": [], "database_properties": {}, "views": [{"type": "table"}]}`,
			category: entity.CategoryInvalidView,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(decode(t, tt.raw))
			assert.False(t, verdict.IsValid)
			assert.Equal(t, tt.category, verdict.ErrorCategory)
			assert.NotEmpty(t, verdict.Detail)
		})
	}
}

func TestValidate_MissingTemplateName(t *testing.T) {
	verdict := Validate(map[string]any{"description": "x", "blocks": []any{}})

	assert.False(t, verdict.IsValid)
	assert.Equal(t, entity.CategoryMissingFields, verdict.ErrorCategory)
}

func TestValidate_IsPureAndDeterministic(t *testing.T) {
	candidate := decode(t, `{"template_name": "x", "description": "y", "blocks": [],
		"database_properties": {"B": {"type": "bogus"}, "A": {"type": "also_bogus"}, "C": {"type": "text"}}}`)

	first := Validate(candidate)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Validate(candidate))
	}
	assert.Contains(t, first.Detail, `"A"`)

	props := candidate.(map[string]any)["database_properties"].(map[string]any)
	assert.Equal(t, "text", props["C"].(map[string]any)["type"], "validator must not rewrite its input")
}
