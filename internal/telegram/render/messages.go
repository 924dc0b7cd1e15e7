package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/template-chat/internal/entity"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

const (
	MsgHelp = `🤖 Commands:

/start - Start a new template conversation
/preview - Show the current template preview
/export - Download the current template
/cancel - Close the conversation
/help - Show this help

Describe the Notion workspace you need and I will draft a template.
Use the buttons under a template to refine properties, views, automations or to optimize it.`

	MsgNoConversation      = "No active conversation. Send /start to begin."
	MsgConversationExpired = "This conversation has expired. Send /start to begin a new one."
	MsgConversationClosed  = "Conversation closed. Send /start whenever you need a new template."
	MsgChooseFormat        = "Choose an export format:"
	MsgNoTemplate          = "There is no template yet. Describe what you need first."
	MsgUnknownCommand      = "❌ Unknown command. Send /help for the list of commands."
	MsgTextOnly            = "Please describe your template in a text message."
	MsgExporting           = "⏳ Preparing the document..."

	ErrGeneric = "❌ Something went wrong. Please try again or send /start."
)

// RefinementQueued confirms that the next message will carry a focus
func RefinementQueued(r entity.RefinementType) string {
	return fmt.Sprintf("Got it. Your next message will focus on %s. What would you like to change?", r)
}

// ChatError shows the fixed user-facing text for a failed turn
func ChatError(err *entity.ChatError) string {
	text := "❌ " + entity.UserMessage(err.PublicCode())
	if err.Recoverable() {
		text += "\nSend another message and I will fix the template."
	}
	return text
}

// Template summarizes a produced template and its preview
func Template(spec *entity.TemplateSpecification, vm entity.PreviewViewModel) string {
	var sb strings.Builder

	name := spec.TemplateName
	if name == "" {
		name = "Untitled template"
	}
	fmt.Fprintf(&sb, "✅ %s\n", name)
	if spec.Description != "" {
		fmt.Fprintf(&sb, "%s\n", spec.Description)
	}

	writePreview(&sb, vm)
	return truncate(sb.String())
}

// Preview renders the view model on its own
func Preview(vm entity.PreviewViewModel) string {
	if len(vm.Properties) == 0 && len(vm.Views) == 0 && len(vm.Suggestions) == 0 {
		return MsgNoTemplate
	}

	var sb strings.Builder
	sb.WriteString("👀 Preview\n")
	writePreview(&sb, vm)
	return truncate(sb.String())
}

func writePreview(sb *strings.Builder, vm entity.PreviewViewModel) {
	if len(vm.Properties) > 0 {
		sb.WriteString("\nProperties:\n")
		for _, p := range vm.Properties {
			fmt.Fprintf(sb, "• %s (%s)\n", p.Name, p.Type)
		}
	}

	if len(vm.Views) > 0 {
		sb.WriteString("\nViews:\n")
		for _, v := range vm.Views {
			fmt.Fprintf(sb, "• %s (%s)", v.Name, v.Type)
			if len(v.Properties) > 0 {
				fmt.Fprintf(sb, ": %s", strings.Join(v.Properties, ", "))
			}
			sb.WriteString("\n")
		}
	}

	if len(vm.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range vm.Suggestions {
			fmt.Fprintf(sb, "• %s\n", s)
		}
	}
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageLength-1]) + "…"
}
