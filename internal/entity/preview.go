package entity

type PreviewProperty struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type PreviewView struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Properties []string `json:"properties,omitempty"`
}

// PreviewViewModel is what the rendering surface consumes.
type PreviewViewModel struct {
	Properties  []PreviewProperty `json:"properties"`
	Views       []PreviewView     `json:"views"`
	Suggestions []string          `json:"suggestions"`
}

func EmptyPreview() PreviewViewModel {
	return PreviewViewModel{
		Properties:  []PreviewProperty{},
		Views:       []PreviewView{},
		Suggestions: []string{},
	}
}
