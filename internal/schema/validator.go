// Package schema validates decoded template candidates against the
// template schema. Validation never mutates its input and does no I/O.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

// Validate checks a candidate decoded with encoding/json (maps, slices,
// strings, float64) and stops at the first violated rule.
func Validate(candidate any) entity.ValidationVerdict {
	root, ok := candidate.(map[string]any)
	if !ok || root == nil {
		return entity.Invalid(entity.CategoryMalformedJSON, "Invalid template specification format")
	}

	if v := validateHeader(root); !v.IsValid {
		return v
	}
	if v := validateBlocks(root); !v.IsValid {
		return v
	}

	sets, v := propertySets(root)
	if !v.IsValid {
		return v
	}
	if v := validateSampleData(root); !v.IsValid {
		return v
	}
	for _, set := range sets {
		if v := validateProperties(set); !v.IsValid {
			return v
		}
	}

	return validateViews(root)
}

func validateHeader(root map[string]any) entity.ValidationVerdict {
	for _, field := range []string{"template_name", "description"} {
		if !nonEmptyString(root[field]) {
			return entity.Invalid(entity.CategoryMissingFields,
				fmt.Sprintf("Missing template name or description: %q must be a non-empty string", field))
		}
	}
	return entity.Valid()
}

func validateBlocks(root map[string]any) entity.ValidationVerdict {
	raw, ok := root["blocks"]
	if !ok {
		return entity.Invalid(entity.CategoryMissingFields, "Missing or invalid blocks array")
	}
	blocks, ok := raw.([]any)
	if !ok {
		return entity.Invalid(entity.CategoryMissingFields, "Missing or invalid blocks array")
	}

	for i, item := range blocks {
		block, ok := item.(map[string]any)
		if !ok {
			return entity.Invalid(entity.CategoryInvalidBlock, fmt.Sprintf("block %d is not an object", i))
		}
		if !nonEmptyString(block["object"]) {
			return entity.Invalid(entity.CategoryInvalidBlock, fmt.Sprintf("block %d is missing its object kind", i))
		}
		if !nonEmptyString(block["type"]) {
			return entity.Invalid(entity.CategoryInvalidBlock, fmt.Sprintf("block %d is missing its type", i))
		}
	}
	return entity.Valid()
}

type propertySet struct {
	owner string
	props map[string]any
}

// propertySets resolves either databases[] or database_properties.
// databases wins when both are present.
func propertySets(root map[string]any) ([]propertySet, entity.ValidationVerdict) {
	legacy, hasLegacy := root["database_properties"]
	if hasLegacy && legacy != nil {
		if _, ok := legacy.(map[string]any); !ok {
			return nil, entity.Invalid(entity.CategoryMissingFields, "database_properties must be an object")
		}
	}

	if raw, ok := root["databases"]; ok {
		dbs, ok := raw.([]any)
		if !ok || len(dbs) == 0 {
			return nil, entity.Invalid(entity.CategoryMissingFields, "databases must be a non-empty array")
		}

		sets := make([]propertySet, 0, len(dbs))
		for i, item := range dbs {
			db, ok := item.(map[string]any)
			if !ok {
				return nil, entity.Invalid(entity.CategoryMissingFields, fmt.Sprintf("database %d is not an object", i))
			}
			props, ok := db["properties"].(map[string]any)
			if !ok {
				return nil, entity.Invalid(entity.CategoryMissingFields, fmt.Sprintf("database %d is missing its properties", i))
			}
			title, isString := db["title"].(string)
			if !isString && db["title"] != nil {
				return nil, entity.Invalid(entity.CategoryMissingFields, fmt.Sprintf("database %d title must be a string", i))
			}
			sets = append(sets, propertySet{owner: title, props: props})
		}
		return sets, entity.Valid()
	}

	if hasLegacy {
		props, ok := legacy.(map[string]any)
		if !ok {
			return nil, entity.Invalid(entity.CategoryMissingFields, "database_properties must be an object")
		}
		return []propertySet{{props: props}}, entity.Valid()
	}

	return nil, entity.Invalid(entity.CategoryMissingFields, "Missing database_properties or databases")
}

func validateProperties(set propertySet) entity.ValidationVerdict {
	// map iteration order is random; sort so the first reported error is stable
	names := make([]string, 0, len(set.props))
	for name := range set.props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg, ok := set.props[name].(map[string]any)
		if !ok {
			return entity.Invalid(entity.CategoryInvalidProperty,
				fmt.Sprintf("Invalid property configuration for %q", name))
		}

		raw, _ := cfg["type"].(string)
		typ := entity.NormalizePropertyType(entity.PropertyType(raw))
		if !typ.Known() {
			return entity.Invalid(entity.CategoryInvalidProperty,
				fmt.Sprintf("Invalid property type for %q: %q", name, raw))
		}

		prop := entity.Property{Name: name, Type: typ, Config: cfg}

		if typ == entity.PropertySelect || typ == entity.PropertyMultiSelect {
			if labels, declared := prop.Options(); declared && len(labels) == 0 {
				return entity.Invalid(entity.CategoryInvalidProperty,
					fmt.Sprintf("Property %q declares options but lists none", name))
			}
		}

		if typ == entity.PropertyFormula && strings.TrimSpace(prop.FormulaExpression()) == "" {
			return entity.Invalid(entity.CategoryFormulaError,
				fmt.Sprintf("Formula property %q is missing formula.expression", name))
		}
	}
	return entity.Valid()
}

// validateSampleData accepts a missing or null sample_data, otherwise a
// list of row objects.
func validateSampleData(root map[string]any) entity.ValidationVerdict {
	raw, ok := root["sample_data"]
	if !ok || raw == nil {
		return entity.Valid()
	}
	rows, ok := raw.([]any)
	if !ok {
		return entity.Invalid(entity.CategoryMissingFields, "sample_data must be an array of rows")
	}
	for i, row := range rows {
		if _, ok := row.(map[string]any); !ok {
			return entity.Invalid(entity.CategoryMissingFields, fmt.Sprintf("sample_data row %d is not an object", i))
		}
	}
	return entity.Valid()
}

func validateViews(root map[string]any) entity.ValidationVerdict {
	raw, ok := root["views"]
	if !ok {
		return entity.Valid()
	}
	views, ok := raw.([]any)
	if !ok {
		return entity.Invalid(entity.CategoryInvalidView, "Missing or invalid views configuration")
	}

	for i, item := range views {
		view, ok := item.(map[string]any)
		if !ok || !nonEmptyString(view["type"]) || !nonEmptyString(view["name"]) {
			return entity.Invalid(entity.CategoryInvalidView,
				fmt.Sprintf("Invalid view configuration at %d: missing type or name", i))
		}
	}
	return entity.Valid()
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}
