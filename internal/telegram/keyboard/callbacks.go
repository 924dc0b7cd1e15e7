package keyboard

import (
	"fmt"
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

// Callback actions; the value follows the first colon.
const (
	ActionStart  = "action"
	ActionRefine = "refine"
	ActionExport = "export"
)

// CallbackData represents parsed callback data
type CallbackData struct {
	Action string
	Value  string
}

// Refinement returns the value as a refinement focus
func (d *CallbackData) Refinement() (entity.RefinementType, bool) {
	r := entity.RefinementType(d.Value)
	return r, d.Action == ActionRefine && r != entity.RefinementNone && r.Known()
}

// Format returns the value as an export format
func (d *CallbackData) Format() (entity.ResultFormat, bool) {
	f := entity.ResultFormat(d.Value)
	return f, d.Action == ActionExport && f.IsValid()
}

// ParseCallback parses "action:value" callback data
func ParseCallback(data string) (*CallbackData, error) {
	action, value, ok := strings.Cut(data, ":")
	if !ok || action == "" {
		return nil, fmt.Errorf("invalid callback format: %s", data)
	}

	return &CallbackData{
		Action: action,
		Value:  value,
	}, nil
}

// EncodeCallback creates callback data string. Telegram caps it at 64 bytes.
func EncodeCallback(action, value string) string {
	return action + ":" + value
}
