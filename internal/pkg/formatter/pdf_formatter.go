package formatter

import (
	"bytes"
	"os"

	"github.com/futig/template-chat/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// Runtime layout copies fonts next to the binary.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct {
	fontPath string
}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{fontPath: resolveFontPath()}
}

// resolveFontPath looks for DejaVuSans in the runtime layout, then in
// the source layout.
func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (mf *PDFFormatter) Format(spec *entity.TemplateSpecification) ([]byte, error) {
	out := outline(spec)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Core fonts only cover latin-1; emoji icons and cyrillic need the TTF.
	fontName := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if mf.fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", mf.fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", mf.fontPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.MultiCell(0, 10, tr(out.Title), "", "", false)
	pdf.Ln(4)

	pdf.SetFont(fontName, "", 12)
	_, lineHeight := pdf.GetFontSize()
	if out.Description != "" {
		pdf.MultiCell(0, lineHeight*1.5, tr(out.Description), "", "", false)
		pdf.Ln(4)
	}

	for _, s := range out.Sections {
		pdf.SetFont(fontName, "B", 14)
		pdf.MultiCell(0, 8, tr(s.Heading), "", "", false)

		pdf.SetFont(fontName, "", 12)
		for _, line := range s.Lines {
			pdf.MultiCell(0, lineHeight*1.5, tr("- "+line), "", "", false)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
