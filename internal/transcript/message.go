// Package transcript loads conversation records and prepares them for the
// document renderers.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Roles the renderers label specially. Any other role is kept as given.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string  `json:"role" yaml:"role"`
	Content Content `json:"content" yaml:"content"`
}

// Fragment is one piece of message content. Type is "text" (the default),
// "markdown", "html" or "code"; anything else contributes its Text only.
type Fragment struct {
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	HTML     string `json:"html,omitempty" yaml:"html,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Content is either a plain string or a list of fragments. Decoding never
// fails: values of any other shape decode to empty content.
type Content struct {
	Fragments []Fragment
}

// Text returns content holding a single text fragment.
func Text(s string) Content {
	return Content{Fragments: []Fragment{{Type: "text", Text: s}}}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Fragments = []Fragment{{Type: "text", Text: s}}
		return nil
	}

	var single Fragment
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if err := json.Unmarshal(data, &single); err == nil {
			c.Fragments = []Fragment{single}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	for _, item := range items {
		if err := json.Unmarshal(item, &s); err == nil {
			c.Fragments = append(c.Fragments, Fragment{Type: "text", Text: s})
			continue
		}
		var f Fragment
		if err := json.Unmarshal(item, &f); err == nil {
			c.Fragments = append(c.Fragments, f)
		}
	}
	return nil
}

// MarshalJSON writes single-text content as a string.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Fragments) == 1 && c.Fragments[0].kind() == "text" {
		return json.Marshal(c.Fragments[0].Text)
	}
	if c.Fragments == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(c.Fragments)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Content) UnmarshalYAML(value *yaml.Node) error {
	*c = Content{}

	switch value.Kind {
	case yaml.ScalarNode:
		c.Fragments = []Fragment{{Type: "text", Text: value.Value}}
	case yaml.MappingNode:
		var f Fragment
		if err := value.Decode(&f); err == nil {
			c.Fragments = []Fragment{f}
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				c.Fragments = append(c.Fragments, Fragment{Type: "text", Text: item.Value})
			case yaml.MappingNode:
				var f Fragment
				if err := item.Decode(&f); err == nil {
					c.Fragments = append(c.Fragments, f)
				}
			}
		}
	}
	return nil
}

func (f Fragment) kind() string {
	kind := strings.ToLower(strings.TrimSpace(f.Type))
	if kind == "" {
		return "text"
	}
	return kind
}

// Markdown returns the fragment as markdown source.
func (f Fragment) Markdown() string {
	switch f.kind() {
	case "text", "markdown":
		return f.Text
	case "html":
		src := f.HTML
		if src == "" {
			src = f.Text
		}
		return HTMLToMarkdown(src)
	case "code":
		if f.Text == "" {
			return ""
		}
		fence := "```"
		for strings.Contains(f.Text, fence) {
			fence += "`"
		}
		return fence + f.Language + "\n" + strings.TrimRight(f.Text, "\n") + "\n" + fence
	default:
		return f.Text
	}
}

// Markdown joins the fragments into one markdown source, one fragment per
// paragraph.
func (c Content) Markdown() string {
	var parts []string
	for _, f := range c.Fragments {
		if md := f.Markdown(); strings.TrimSpace(md) != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Transcript is a loaded conversation file.
type Transcript struct {
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// Format of a transcript file.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Load decodes a transcript. The top level is either a list of messages or
// an object with "title" and "messages". Individual messages that do not
// decode are kept as empty messages so that ordering survives.
func Load(data []byte, format Format) (*Transcript, error) {
	if format == FormatAuto {
		format = detectFormat(data)
	}

	switch format {
	case FormatJSON:
		return loadJSON(data)
	case FormatYAML:
		return loadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported transcript format %q", format)
	}
}

func detectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatYAML
}

func loadJSON(data []byte) (*Transcript, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Transcript{}, nil
	}

	var raw []json.RawMessage
	title := ""
	if trimmed[0] == '{' {
		var envelope struct {
			Title    string            `json:"title"`
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
		title, raw = envelope.Title, envelope.Messages
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	t := &Transcript{Title: title, Messages: make([]Message, 0, len(raw))}
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			m = Message{}
		}
		t.Messages = append(t.Messages, m)
	}
	return t, nil
}

func loadYAML(data []byte) (*Transcript, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	t := &Transcript{}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return t, nil
	}

	node := root.Content[0]
	if node.Kind == yaml.MappingNode {
		var envelope struct {
			Title    string      `yaml:"title"`
			Messages []yaml.Node `yaml:"messages"`
		}
		if err := node.Decode(&envelope); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
		t.Title = envelope.Title
		for i := range envelope.Messages {
			t.Messages = append(t.Messages, decodeYAMLMessage(&envelope.Messages[i]))
		}
		return t, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("failed to decode transcript: expected a list of messages")
	}
	for _, item := range node.Content {
		t.Messages = append(t.Messages, decodeYAMLMessage(item))
	}
	return t, nil
}

func decodeYAMLMessage(node *yaml.Node) Message {
	var m Message
	if err := node.Decode(&m); err != nil {
		return Message{}
	}
	return m
}
