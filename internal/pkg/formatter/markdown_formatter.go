package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/template-chat/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(spec *entity.TemplateSpecification) ([]byte, error) {
	doc := outline(spec)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", doc.Title)
	if doc.Description != "" {
		fmt.Fprintf(&buf, "\n%s\n", doc.Description)
	}
	for _, s := range doc.Sections {
		fmt.Fprintf(&buf, "\n## %s\n\n", s.Heading)
		for _, line := range s.Lines {
			fmt.Fprintf(&buf, "- %s\n", line)
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
