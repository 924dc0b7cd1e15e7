package keyboard

import (
	"github.com/futig/template-chat/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// StartKeyboard creates the initial start button
func (b *Builder) StartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 New template", EncodeCallback(ActionStart, "start")),
		),
	)
}

// TemplateKeyboard is shown under every produced template
func (b *Builder) TemplateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			refineButton("🧩 Properties", entity.RefinementProperties),
			refineButton("👁 Views", entity.RefinementViews),
		),
		tgbotapi.NewInlineKeyboardRow(
			refineButton("⚙️ Automations", entity.RefinementAutomations),
			refineButton("🚀 Optimize", entity.RefinementOptimization),
		),
		b.exportRow(),
	)
}

// ExportKeyboard offers the download formats
func (b *Builder) ExportKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(b.exportRow())
}

func (b *Builder) exportRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		exportButton("📝 Markdown", entity.FormatMarkdown),
		exportButton("📄 DOCX", entity.FormatDOCX),
		exportButton("📕 PDF", entity.FormatPDF),
	)
}

func refineButton(label string, r entity.RefinementType) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, EncodeCallback(ActionRefine, string(r)))
}

func exportButton(label string, f entity.ResultFormat) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, EncodeCallback(ActionExport, string(f)))
}
