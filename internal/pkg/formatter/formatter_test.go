package formatter

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/futig/template-chat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackerJSON = `{
	"template_name": "Task Tracker",
	"description": "Track work across the team",
	"page_icon": "✅",
	"blocks": [
		{"object": "block", "type": "heading_1", "heading_1": {"rich_text": [{"type": "text", "text": {"content": "Tasks"}}]}},
		{"object": "block", "type": "divider", "divider": {}}
	],
	"database_properties": {
		"Name": {"type": "title"},
		"Status": {"type": "select", "options": ["To Do", "Done"]},
		"Score": {"type": "formula", "formula": {"expression": "prop(\"Points\") * 2"}}
	},
	"sample_data": [{"Name": "Write docs", "Status": "Done"}]
}`

func tracker(t *testing.T) *entity.TemplateSpecification {
	t.Helper()
	spec, err := entity.ParseTemplate([]byte(trackerJSON))
	require.NoError(t, err)
	return spec
}

func TestOutline(t *testing.T) {
	doc := outline(tracker(t))

	assert.Equal(t, "✅ Task Tracker", doc.Title)
	assert.Equal(t, "Track work across the team", doc.Description)
	require.Len(t, doc.Sections, 3)

	assert.Equal(t, "Database: Task Tracker", doc.Sections[0].Heading)
	assert.Equal(t, []string{
		"Name (title)",
		"Status (select): To Do, Done",
		`Score (formula): prop("Points") * 2`,
	}, doc.Sections[0].Lines)

	assert.Equal(t, section{Heading: "Page content", Lines: []string{"Tasks"}}, doc.Sections[1])
	assert.Equal(t, section{Heading: "Sample data", Lines: []string{"Name: Write docs; Status: Done"}}, doc.Sections[2])
}

func TestOutline_NilTemplate(t *testing.T) {
	doc := outline(nil)
	assert.Equal(t, untitled, doc.Title)
	assert.Empty(t, doc.Sections)
}

func TestMarkdownFormatter(t *testing.T) {
	f := NewMarkdownFormatter()

	out, err := f.Format(tracker(t))
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "# ✅ Task Tracker\n")
	assert.Contains(t, md, "## Database: Task Tracker\n\n- Name (title)\n- Status (select): To Do, Done\n")
	assert.Contains(t, md, "## Sample data\n")
	assert.Equal(t, ".md", f.FileExtension())
}

func TestPDFFormatter(t *testing.T) {
	f := &PDFFormatter{}

	out, err := f.Format(tracker(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", f.ContentType())
}

func TestDOCXFormatter(t *testing.T) {
	f := NewDOCXFormatter()

	out, err := f.Format(tracker(t))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var body string
	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		body = string(data)
	}
	require.NotEmpty(t, body, "word/document.xml present")
	assert.Contains(t, body, "Database: Task Tracker")
	assert.Contains(t, body, "Status (select): To Do, Done")
	assert.Equal(t, ".docx", f.FileExtension())
}

func TestFactory(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, []entity.ResultFormat{entity.FormatDOCX, entity.FormatMarkdown, entity.FormatPDF}, factory.Formats())

	for _, format := range factory.Formats() {
		f, err := factory.Create(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, f.ContentType())
	}

	_, err := factory.Create("odt")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}
