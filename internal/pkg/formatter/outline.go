package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

// section is a heading followed by plain lines; every output format
// renders the same outline.
type section struct {
	Heading string
	Lines   []string
}

type outlineDoc struct {
	Title       string
	Description string
	Sections    []section
}

func outline(spec *entity.TemplateSpecification) outlineDoc {
	doc := outlineDoc{Title: untitled}
	if spec == nil {
		return doc
	}

	if name := strings.TrimSpace(spec.TemplateName); name != "" {
		doc.Title = name
	}
	if icon, ok := spec.PageIcon.(string); ok && icon != "" {
		doc.Title = icon + " " + doc.Title
	}
	doc.Description = strings.TrimSpace(spec.Description)

	for _, db := range spec.Databases {
		heading := "Database"
		if db.Title != "" {
			heading = "Database: " + db.Title
		}
		s := section{Heading: heading}
		for _, p := range db.Properties.All() {
			s.Lines = append(s.Lines, propertyLine(p))
		}
		doc.Sections = append(doc.Sections, s)
	}

	if lines := blockLines(spec.Blocks); len(lines) > 0 {
		doc.Sections = append(doc.Sections, section{Heading: "Page content", Lines: lines})
	}

	if len(spec.SampleData) > 0 {
		s := section{Heading: "Sample data"}
		for _, row := range spec.SampleData {
			s.Lines = append(s.Lines, rowLine(row))
		}
		doc.Sections = append(doc.Sections, s)
	}

	return doc
}

func propertyLine(p entity.Property) string {
	typ := p.Type
	if typ == "" {
		typ = entity.PropertyRichText
	}
	line := fmt.Sprintf("%s (%s)", p.Name, typ)

	if opts, ok := p.Options(); ok && len(opts) > 0 {
		line += ": " + strings.Join(opts, ", ")
	}
	if expr := p.FormulaExpression(); expr != "" {
		line += ": " + expr
	}
	return line
}

func blockLines(blocks []entity.Block) []string {
	var lines []string
	for _, b := range blocks {
		if text := blockText(b); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

// blockText reads plain text from a Notion block, falling back to a bare
// "text" or "content" field.
func blockText(b entity.Block) string {
	if body, ok := b[b.Type()].(map[string]any); ok {
		if rich, ok := body["rich_text"].([]any); ok {
			var sb strings.Builder
			for _, item := range rich {
				sb.WriteString(richTextContent(item))
			}
			return strings.TrimSpace(sb.String())
		}
		if s, ok := body["text"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	for _, key := range []string{"text", "content"} {
		if s, ok := b[key].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func richTextContent(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	if plain, ok := m["plain_text"].(string); ok {
		return plain
	}
	if text, ok := m["text"].(map[string]any); ok {
		s, _ := text["content"].(string)
		return s
	}
	return ""
}

func rowLine(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, row[k]))
	}
	return strings.Join(parts, "; ")
}
