package entity

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// ExportedDocument is a rendered template ready to be downloaded.
type ExportedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}
