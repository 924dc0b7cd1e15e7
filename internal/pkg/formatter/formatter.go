package formatter

import (
	"fmt"
	"sort"

	"github.com/futig/template-chat/internal/entity"
)

const untitled = "Untitled template"

// Formatter renders a template specification as a document
type Formatter interface {
	Format(spec *entity.TemplateSpecification) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// Factory maps export formats to formatters. Formatters are stateless
// and shared between requests.
type Factory struct {
	formatters map[entity.ResultFormat]Formatter
}

func NewFactory() *Factory {
	return &Factory{
		formatters: map[entity.ResultFormat]Formatter{
			entity.FormatMarkdown: NewMarkdownFormatter(),
			entity.FormatDOCX:     NewDOCXFormatter(),
			entity.FormatPDF:      NewPDFFormatter(),
		},
	}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	formatter, ok := f.formatters[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format: %s", entity.ErrInvalidParameter, format)
	}
	return formatter, nil
}

// Formats lists the supported formats in name order
func (f *Factory) Formats() []entity.ResultFormat {
	out := make([]entity.ResultFormat, 0, len(f.formatters))
	for format := range f.formatters {
		out = append(out, format)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
