package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerdneilsfield/chatdoc/internal/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultTitle is used when no title can be derived.
const DefaultTitle = "Conversation"

// maxTitleRunes bounds a title derived from the first user line.
const maxTitleRunes = 60

// Entry is one normalized message.
type Entry struct {
	Role  string
	Label string
	Doc   *markdown.Document
}

// Conversation is the renderer input: a title and the normalized messages.
type Conversation struct {
	Title   string
	Entries []Entry
}

// PrepareOptions controls normalization.
type PrepareOptions struct {
	// Title overrides any derived title.
	Title string
	// Math enables TeX math in message content.
	Math bool
}

// Prepare normalizes every message and resolves the title. The title is the
// explicit one, else the "title" front matter field of the first message,
// else the first non-empty user line, else DefaultTitle. Malformed or empty
// messages become entries with no blocks.
func Prepare(messages []Message, opts PrepareOptions) *Conversation {
	first := markdown.NewNormalizer(markdown.Options{FrontMatter: true, Math: opts.Math})
	rest := markdown.NewNormalizer(markdown.Options{Math: opts.Math})

	conv := &Conversation{Title: strings.TrimSpace(opts.Title)}
	var frontTitle, userLine string

	for i, m := range messages {
		src := norm.NFC.String(m.Content.Markdown())
		role := normalizeRole(m.Role)

		var doc *markdown.Document
		if i == 0 {
			doc = first.Normalize(src)
			if t, ok := doc.Meta["title"]; ok {
				frontTitle = strings.TrimSpace(fmt.Sprint(t))
			}
		} else {
			doc = rest.Normalize(src)
		}

		if userLine == "" && role == RoleUser {
			userLine = firstLine(doc)
		}

		conv.Entries = append(conv.Entries, Entry{Role: role, Label: RoleLabel(role), Doc: doc})
	}

	if conv.Title == "" {
		conv.Title = frontTitle
	}
	if conv.Title == "" {
		conv.Title = truncateRunes(userLine, maxTitleRunes)
	}
	if conv.Title == "" {
		conv.Title = DefaultTitle
	}
	return conv
}

func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case "human":
		return RoleUser
	case "ai", "model", "bot":
		return RoleAssistant
	}
	return role
}

// RoleLabel returns the display label for a role.
func RoleLabel(role string) string {
	if role == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(role)
}

func firstLine(doc *markdown.Document) string {
	for _, b := range doc.Blocks {
		var text string
		switch v := b.(type) {
		case markdown.Heading:
			text = markdown.InlineText(v.Inlines)
		case markdown.Paragraph:
			text = markdown.InlineText(v.Inlines)
		default:
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

// Count returns the number of entries per role.
func (c *Conversation) Count() map[string]int {
	out := make(map[string]int)
	for _, e := range c.Entries {
		out[e.Role]++
	}
	return out
}

// Markdown renders the conversation as a single markdown document: the
// title as a level one heading and each message under a level two heading
// naming its role. Headings inside messages are shifted down two levels.
func (c *Conversation) Markdown() string {
	doc := &markdown.Document{}
	doc.Blocks = append(doc.Blocks, markdown.Heading{Level: 1, Inlines: []markdown.Inline{{Text: c.Title}}})
	for _, e := range c.Entries {
		doc.Blocks = append(doc.Blocks, markdown.Heading{Level: 2, Inlines: []markdown.Inline{{Text: e.Label}}})
		doc.Blocks = append(doc.Blocks, shiftHeadings(e.Doc.Blocks, 2)...)
	}
	return markdown.Render(doc)
}

func shiftHeadings(blocks []markdown.Block, by int) []markdown.Block {
	out := make([]markdown.Block, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case markdown.Heading:
			v.Level += by
			if v.Level > 6 {
				v.Level = 6
			}
			out = append(out, v)
		case markdown.Quote:
			v.Blocks = shiftHeadings(v.Blocks, by)
			out = append(out, v)
		default:
			out = append(out, b)
		}
	}
	return out
}
