// Package markdown normalizes conversational markdown into a small block
// and inline model shared by every output renderer.
package markdown

// Document is the normalized form of one markdown source. It is built
// fresh by Normalize and never mutated afterwards.
type Document struct {
	Blocks []Block
	// Meta holds front matter fields, if any.
	Meta map[string]interface{}
}

// Block is one of Heading, Paragraph, List, CodeBlock, Quote, Table, Rule
// or MathBlock.
type Block interface {
	block()
}

// Heading is an ATX or setext heading, Level 1 to 6.
type Heading struct {
	Level   int
	Inlines []Inline
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Inlines []Inline
}

// List is an ordered or unordered list. Nested lists live inside items.
type List struct {
	Ordered bool
	Start   int
	Items   []ListItem
}

// ListItem holds the blocks of one list entry.
type ListItem struct {
	Blocks []Block
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Language string
	Code     string
}

// Quote is a block quote.
type Quote struct {
	Blocks []Block
}

// Table is a GFM table. Rows may be shorter than the header.
type Table struct {
	Header []Cell
	Rows   [][]Cell
	Align  []Alignment
}

// Cell is one table cell.
type Cell struct {
	Inlines []Inline
}

// Alignment of a table column.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Rule is a thematic break.
type Rule struct{}

// MathBlock is display math in TeX notation.
type MathBlock struct {
	TeX string
}

func (Heading) block()   {}
func (Paragraph) block() {}
func (List) block()      {}
func (CodeBlock) block() {}
func (Quote) block()     {}
func (Table) block()     {}
func (Rule) block()      {}
func (MathBlock) block() {}

// Inline is a run of text with uniform styling. A Break inline carries no
// text and marks a hard line break.
type Inline struct {
	Text   string
	Bold   bool
	Italic bool
	Strike bool
	Code   bool
	Math   bool
	Href   string
	Break  bool
}

// Plain reports whether the run carries no styling.
func (i Inline) Plain() bool {
	return !i.Bold && !i.Italic && !i.Strike && !i.Code && !i.Math && i.Href == "" && !i.Break
}

// Columns returns the number of columns of the table, the widest of the
// header and every row.
func (t Table) Columns() int {
	n := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// InlineText concatenates the text of inlines, rendering breaks as
// newlines.
func InlineText(inlines []Inline) string {
	var out []byte
	for _, in := range inlines {
		if in.Break {
			out = append(out, '\n')
			continue
		}
		out = append(out, in.Text...)
	}
	return string(out)
}
