package preview

import (
	"strings"

	"github.com/futig/template-chat/internal/entity"
)

// defaultPropertyType is shown for properties that carry no type.
const defaultPropertyType = "text"

// Project flattens the first database of spec into the preview model.
// Views and suggestions stay empty for structured templates.
func Project(spec *entity.TemplateSpecification) entity.PreviewViewModel {
	vm := entity.EmptyPreview()
	if spec == nil {
		return vm
	}

	for _, prop := range spec.Properties().All() {
		typ := strings.TrimSpace(string(prop.Type))
		if typ == "" {
			typ = defaultPropertyType
		}
		vm.Properties = append(vm.Properties, entity.PreviewProperty{
			Name: prop.Name,
			Type: typ,
		})
	}

	return vm
}
