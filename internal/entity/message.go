package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one the model endpoint accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

type ContentSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content is either plain text or an ordered list of segments.
// On the wire it is a JSON string or a JSON array of {type, text}.
type Content struct {
	text     string
	segments []ContentSegment
}

func TextContent(text string) Content {
	return Content{text: text}
}

func SegmentContent(segments ...ContentSegment) Content {
	cp := make([]ContentSegment, len(segments))
	copy(cp, segments)
	return Content{segments: cp}
}

// IsSegmented reports whether the content was built from segments.
func (c Content) IsSegmented() bool {
	return c.segments != nil
}

// Segments returns a copy of the content segments.
func (c Content) Segments() []ContentSegment {
	if c.segments == nil {
		return nil
	}
	cp := make([]ContentSegment, len(c.segments))
	copy(cp, c.segments)
	return cp
}

// Text reconstructs the logical text, joining segments in order.
func (c Content) Text() string {
	if c.segments == nil {
		return c.text
	}

	parts := make([]string, 0, len(c.segments))
	for _, s := range c.segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n")
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.segments != nil {
		return json.Marshal(c.segments)
	}
	return json.Marshal(c.text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = TextContent(text)
		return nil
	}

	var segments []ContentSegment
	if err := json.Unmarshal(data, &segments); err != nil {
		return fmt.Errorf("%w: content must be a string or a list of segments", ErrInvalidFormat)
	}
	*c = SegmentContent(segments...)
	return nil
}

type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent(text)}
}

func (m Message) Text() string {
	return m.Content.Text()
}
