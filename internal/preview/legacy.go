package preview

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

const defaultViewType = "table"

var (
	// "- Property: Due Date (date)", "Suggestion: add a rollup"
	markerLine = regexp.MustCompile(`^(?:[-*•]\s*|\d+[.)]\s*)?(?i:(property|view|suggestion))\s*:\s*(.+)$`)
	// "Name (type)" or "Name - type"
	namedType = regexp.MustCompile(`^(.+?)\s*(?:\(([^()]*)\)|\s-\s*(\S+))$`)
)

// FromLegacyText scans an unstructured reply for Property:, View: and
// Suggestion: lines. Only replies without a structured template are
// scanned this way.
//
// View lines may list their properties after a colon:
//
//	View: Sprint Board (board): Status, Assignee
func FromLegacyText(text string) entity.PreviewViewModel {
	vm := entity.EmptyPreview()

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), "**", ""))
		m := markerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		if value == "" {
			continue
		}

		switch strings.ToLower(m[1]) {
		case "property":
			name, typ := splitNamedType(value, defaultPropertyType)
			vm.Properties = append(vm.Properties, entity.PreviewProperty{Name: name, Type: typ})
		case "view":
			head, props, _ := strings.Cut(value, "):")
			if props != "" {
				head += ")"
			}
			name, typ := splitNamedType(head, defaultViewType)
			vm.Views = append(vm.Views, entity.PreviewView{
				Name:       name,
				Type:       typ,
				Properties: splitList(props),
			})
		case "suggestion":
			vm.Suggestions = append(vm.Suggestions, value)
		}
	}

	return vm
}

func splitNamedType(value, fallback string) (string, string) {
	m := namedType.FindStringSubmatch(value)
	if m == nil {
		return value, fallback
	}

	typ := strings.TrimSpace(m[2] + m[3])
	if typ == "" {
		typ = fallback
	}
	return strings.TrimSpace(m[1]), strings.ToLower(typ)
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
