package document

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

// Segment is the text nodes of one paragraph, in order.
type Segment struct {
	Nodes []*etree.Element
}

// Text concatenates the segment's node text.
func (s Segment) Text() string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		sb.WriteString(n.Text())
	}
	return sb.String()
}

// Collection is the collected text of a block. Paragraphs without text
// nodes contribute no segment.
type Collection struct {
	Block    *Block
	Segments []Segment
}

// Collect gathers the text nodes owned by b. Field instructions, deleted
// text, equations and nested containers are not visited.
func Collect(b *Block) *Collection {
	c := &Collection{Block: b}
	var cur *Segment

	flush := func() {
		if cur != nil && len(cur.Nodes) > 0 {
			c.Segments = append(c.Segments, *cur)
		}
		cur = nil
	}

	if b.Kind == KindParagraph {
		cur = &Segment{}
	}

	markup.Walk(b.Element, markup.VisitorFuncs{OnElement: func(el *etree.Element) markup.Action {
		switch {
		case markup.Is(el, skippedTags...), markup.Is(el, containerTags...):
			return markup.Skip
		case markup.Is(el, tagParagraph):
			flush()
			cur = &Segment{}
		case markup.Is(el, tagText):
			if cur == nil {
				cur = &Segment{}
			}
			cur.Nodes = append(cur.Nodes, el)
			return markup.Skip
		}
		return markup.Descend
	}})
	flush()

	return c
}

// Nodes returns every text node of the collection in order.
func (c *Collection) Nodes() []*etree.Element {
	var out []*etree.Element
	for _, s := range c.Segments {
		out = append(out, s.Nodes...)
	}
	return out
}

// Unit is the translation unit: segment texts joined by newlines.
func (c *Collection) Unit() string {
	texts := make([]string, len(c.Segments))
	for i, s := range c.Segments {
		texts[i] = s.Text()
	}
	return strings.Join(texts, "\n")
}

// Blank reports whether the unit has nothing to translate.
func (c *Collection) Blank() bool {
	return strings.IndexFunc(c.Unit(), func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// Apply writes a translated unit back. When the translation keeps one
// newline per paragraph boundary each paragraph receives its own line;
// otherwise the whole string is spread over all nodes.
func (c *Collection) Apply(translated string) {
	if len(c.Segments) == 0 {
		return
	}

	if len(c.Segments) > 1 {
		lines := strings.Split(translated, "\n")
		if len(lines) == len(c.Segments) {
			for i, s := range c.Segments {
				Redistribute(s.Nodes, lines[i])
			}
			return
		}
	}
	Redistribute(c.Nodes(), translated)
}
