package formatter

import (
	"bytes"

	"github.com/futig/template-chat/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(spec *entity.TemplateSpecification) ([]byte, error) {
	out := outline(spec)

	doc := document.New()
	defer doc.Close()

	addParagraph(doc, "Heading1", out.Title)
	if out.Description != "" {
		addParagraph(doc, "", out.Description)
	}

	for _, s := range out.Sections {
		addParagraph(doc, "Heading2", s.Heading)
		for _, line := range s.Lines {
			addParagraph(doc, "ListParagraph", line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addParagraph(doc *document.Document, style, text string) {
	par := doc.AddParagraph()
	if style != "" {
		par.SetStyle(style)
	}
	par.AddRun().AddText(text)
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
