package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type PropertyType string

const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyNumber         PropertyType = "number"
	PropertySelect         PropertyType = "select"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyDate           PropertyType = "date"
	PropertyFormula        PropertyType = "formula"
	PropertyRelation       PropertyType = "relation"
	PropertyRollup         PropertyType = "rollup"
	PropertyFiles          PropertyType = "files"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertyURL            PropertyType = "url"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyCreatedBy      PropertyType = "created_by"
	PropertyLastEditedTime PropertyType = "last_edited_time"
	PropertyLastEditedBy   PropertyType = "last_edited_by"

	// PropertyText is what models often emit for rich_text. Notion has no such type.
	PropertyText PropertyType = "text"
)

var propertyTypes = map[PropertyType]struct{}{
	PropertyTitle:          {},
	PropertyRichText:       {},
	PropertyNumber:         {},
	PropertySelect:         {},
	PropertyMultiSelect:    {},
	PropertyDate:           {},
	PropertyFormula:        {},
	PropertyRelation:       {},
	PropertyRollup:         {},
	PropertyFiles:          {},
	PropertyCheckbox:       {},
	PropertyURL:            {},
	PropertyEmail:          {},
	PropertyPhoneNumber:    {},
	PropertyCreatedTime:    {},
	PropertyCreatedBy:      {},
	PropertyLastEditedTime: {},
	PropertyLastEditedBy:   {},
}

// NormalizePropertyType maps the text alias onto rich_text.
func NormalizePropertyType(t PropertyType) PropertyType {
	if t == PropertyText {
		return PropertyRichText
	}
	return t
}

// Known reports whether t belongs to the Notion property enumeration.
func (t PropertyType) Known() bool {
	_, ok := propertyTypes[t]
	return ok
}

// Property is one column definition. Config keeps every key except "type" verbatim.
type Property struct {
	Name   string
	Type   PropertyType
	Config map[string]any
}

// Options returns the declared option labels, looking at "options" and at
// the Notion-style nested "select"/"multi_select" objects.
func (p Property) Options() ([]string, bool) {
	raw, ok := p.Config["options"]
	if !ok {
		if nested, isMap := p.Config[string(p.Type)].(map[string]any); isMap {
			raw, ok = nested["options"]
		}
	}
	if !ok {
		return nil, false
	}

	list, isList := raw.([]any)
	if !isList {
		return nil, true
	}

	labels := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			labels = append(labels, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				labels = append(labels, name)
			}
		}
	}
	return labels, true
}

// FormulaExpression returns formula.expression when present.
func (p Property) FormulaExpression() string {
	formula, ok := p.Config["formula"].(map[string]any)
	if !ok {
		return ""
	}
	expr, _ := formula["expression"].(string)
	return expr
}

func (p Property) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Config)+1)
	for k, v := range p.Config {
		out[k] = v
	}
	out["type"] = p.Type
	return json.Marshal(out)
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: property config must be an object", ErrInvalidFormat)
	}

	typ, _ := raw["type"].(string)
	delete(raw, "type")
	if len(raw) == 0 {
		raw = nil
	}

	p.Type = NormalizePropertyType(PropertyType(typ))
	p.Config = raw
	return nil
}

// PropertySet is a name -> Property mapping that keeps insertion order.
type PropertySet struct {
	items []Property
}

func NewPropertySet(props ...Property) PropertySet {
	var s PropertySet
	for _, p := range props {
		s.Set(p)
	}
	return s
}

func (s PropertySet) Len() int {
	return len(s.items)
}

// All returns the properties in insertion order.
func (s PropertySet) All() []Property {
	out := make([]Property, len(s.items))
	copy(out, s.items)
	return out
}

func (s PropertySet) Get(name string) (Property, bool) {
	for _, p := range s.items {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Set replaces a property with the same name in place or appends it.
func (s *PropertySet) Set(p Property) {
	for i := range s.items {
		if s.items[i].Name == p.Name {
			s.items[i] = p
			return
		}
	}
	s.items = append(s.items, p)
}

func (s PropertySet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal property %q: %w", p.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *PropertySet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: properties: %v", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: properties must be an object", ErrInvalidFormat)
	}

	var set PropertySet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: properties: %v", ErrInvalidFormat, err)
		}
		name, _ := tok.(string)

		var p Property
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		p.Name = name
		set.Set(p)
	}

	*s = set
	return nil
}

// Block is one unit of page content, kept verbatim.
type Block map[string]any

// Object returns the object-kind tag ("block").
func (b Block) Object() string {
	v, _ := b["object"].(string)
	return v
}

// Type returns the type-kind tag (heading_1, paragraph, ...).
func (b Block) Type() string {
	v, _ := b["type"].(string)
	return v
}

type Database struct {
	Title      string      `json:"title"`
	Properties PropertySet `json:"properties"`
}

// TemplateSpecification is the canonical template. Both the legacy
// database_properties shape and the databases shape decode into Databases.
type TemplateSpecification struct {
	TemplateName string
	Description  string
	PageIcon     any
	Cover        any
	Blocks       []Block
	Databases    []Database
	SampleData   []map[string]any
}

// Properties returns the first database's properties.
func (t *TemplateSpecification) Properties() PropertySet {
	if t == nil || len(t.Databases) == 0 {
		return PropertySet{}
	}
	return t.Databases[0].Properties
}

type templateWire struct {
	TemplateName       string           `json:"template_name"`
	Description        string           `json:"description"`
	PageIcon           any              `json:"page_icon,omitempty"`
	Cover              any              `json:"cover,omitempty"`
	Blocks             []Block          `json:"blocks"`
	Databases          []Database       `json:"databases,omitempty"`
	DatabaseProperties *PropertySet     `json:"database_properties,omitempty"`
	SampleData         []map[string]any `json:"sample_data,omitempty"`
}

func (t TemplateSpecification) MarshalJSON() ([]byte, error) {
	props := t.Properties()
	blocks := t.Blocks
	if blocks == nil {
		blocks = []Block{}
	}

	return json.Marshal(templateWire{
		TemplateName:       t.TemplateName,
		Description:        t.Description,
		PageIcon:           t.PageIcon,
		Cover:              t.Cover,
		Blocks:             blocks,
		Databases:          t.Databases,
		DatabaseProperties: &props,
		SampleData:         t.SampleData,
	})
}

func (t *TemplateSpecification) UnmarshalJSON(data []byte) error {
	var wire templateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	spec := TemplateSpecification{
		TemplateName: wire.TemplateName,
		Description:  wire.Description,
		PageIcon:     wire.PageIcon,
		Cover:        wire.Cover,
		Blocks:       wire.Blocks,
		SampleData:   wire.SampleData,
	}
	if spec.Blocks == nil {
		spec.Blocks = []Block{}
	}
	if len(spec.SampleData) == 0 {
		spec.SampleData = nil
	}

	switch {
	case len(wire.Databases) > 0:
		spec.Databases = wire.Databases
	case wire.DatabaseProperties != nil:
		spec.Databases = []Database{{
			Title:      wire.TemplateName,
			Properties: *wire.DatabaseProperties,
		}}
	}

	*t = spec
	return nil
}

// ParseTemplate decodes a template from its wire form.
func ParseTemplate(data []byte) (*TemplateSpecification, error) {
	var spec TemplateSpecification
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
