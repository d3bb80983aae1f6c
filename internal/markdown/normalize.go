package markdown

import (
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options selects optional syntax.
type Options struct {
	// FrontMatter parses a leading YAML block into Document.Meta.
	FrontMatter bool
	// Math recognizes $...$ and $$...$$ TeX. Off by default because chat
	// text often contains currency amounts.
	Math bool
}

// Normalizer converts markdown into the block model.
type Normalizer struct {
	md goldmark.Markdown
	// plain parses input whose leading block is not usable front matter.
	plain *Normalizer
}

// NewNormalizer creates a normalizer for the given options.
func NewNormalizer(opts Options) *Normalizer {
	extensions := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
	}
	if opts.FrontMatter {
		extensions = append(extensions, meta.Meta)
	}
	if opts.Math {
		extensions = append(extensions, mathjax.MathJax)
	}

	n := &Normalizer{
		md: goldmark.New(goldmark.WithExtensions(extensions...)),
	}
	if opts.FrontMatter {
		opts.FrontMatter = false
		n.plain = NewNormalizer(opts)
	}
	return n
}

var defaultNormalizer = NewNormalizer(Options{})

// Normalize converts src with the default options.
func Normalize(src string) *Document {
	return defaultNormalizer.Normalize(src)
}

// Normalize converts src into a Document. It never fails: input the parser
// cannot handle degrades to a single plain paragraph. A leading block is
// front matter only when it is closed and decodes to a non-empty mapping;
// otherwise src is read as ordinary markdown.
func (n *Normalizer) Normalize(src string) (doc *Document) {
	if n.plain != nil && !closedFrontMatter(src) {
		return n.plain.Normalize(src)
	}

	defer func() {
		if r := recover(); r != nil {
			doc = plainDocument(src)
		}
	}()

	source := []byte(src)
	pc := parser.NewContext()
	root := n.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var m map[string]interface{}
	if n.plain != nil {
		var err error
		m, err = meta.TryGet(pc)
		if err != nil || len(m) == 0 {
			return n.plain.Normalize(src)
		}
	}

	doc = &Document{
		Blocks: convertBlocks(root, source),
		Meta:   m,
	}
	return doc
}

// closedFrontMatter reports whether src opens with a dash line and has a
// later dash line closing the block.
func closedFrontMatter(src string) bool {
	lines := strings.Split(src, "\n")
	if len(lines) < 2 || !dashLine(lines[0]) {
		return false
	}
	for _, line := range lines[1:] {
		if dashLine(line) {
			return true
		}
	}
	return false
}

func dashLine(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && strings.Trim(line, "-") == ""
}

func plainDocument(src string) *Document {
	doc := &Document{}
	if strings.TrimSpace(src) != "" {
		doc.Blocks = []Block{Paragraph{Inlines: []Inline{{Text: src}}}}
	}
	return doc
}

func convertBlocks(parent ast.Node, src []byte) []Block {
	var out []Block
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if b := convertBlock(c, src); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func convertBlock(node ast.Node, src []byte) Block {
	switch v := node.(type) {
	case *ast.Heading:
		level := v.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return Heading{Level: level, Inlines: convertInlines(v, src, style{}, nil)}

	case *ast.Paragraph, *ast.TextBlock:
		inlines := convertInlines(v, src, style{}, nil)
		if len(inlines) == 0 {
			return nil
		}
		return Paragraph{Inlines: inlines}

	case *ast.List:
		list := List{Ordered: v.IsOrdered(), Start: v.Start}
		if list.Ordered && list.Start == 0 {
			list.Start = 1
		}
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			list.Items = append(list.Items, ListItem{Blocks: convertBlocks(item, src)})
		}
		return list

	case *ast.FencedCodeBlock:
		return CodeBlock{Language: string(v.Language(src)), Code: linesText(v, src)}

	case *ast.CodeBlock:
		return CodeBlock{Code: linesText(v, src)}

	case *ast.Blockquote:
		return Quote{Blocks: convertBlocks(v, src)}

	case *east.Table:
		return convertTable(v, src)

	case *ast.ThematicBreak:
		return Rule{}

	case *ast.HTMLBlock:
		raw := strings.TrimSpace(linesText(v, src))
		if raw == "" {
			return nil
		}
		return Paragraph{Inlines: []Inline{{Text: raw}}}

	case *mathjax.MathBlock:
		return MathBlock{TeX: strings.TrimSpace(linesText(v, src))}

	default:
		if node.Type() == ast.TypeBlock && node.Lines().Len() > 0 {
			return Paragraph{Inlines: []Inline{{Text: linesText(node, src)}}}
		}
		if node.HasChildren() {
			if inlines := convertInlines(node, src, style{}, nil); len(inlines) > 0 {
				return Paragraph{Inlines: inlines}
			}
		}
		return nil
	}
}

func convertTable(t *east.Table, src []byte) Table {
	table := Table{}
	for _, a := range t.Alignments {
		switch a {
		case east.AlignLeft:
			table.Align = append(table.Align, AlignLeft)
		case east.AlignCenter:
			table.Align = append(table.Align, AlignCenter)
		case east.AlignRight:
			table.Align = append(table.Align, AlignRight)
		default:
			table.Align = append(table.Align, AlignNone)
		}
	}

	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []Cell
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, Cell{Inlines: convertInlines(cell, src, style{}, nil)})
		}
		if _, isHeader := row.(*east.TableHeader); isHeader {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

type style struct {
	bold, italic, strike bool
	href                 string
}

func (s style) inline(text string) Inline {
	return Inline{Text: text, Bold: s.bold, Italic: s.italic, Strike: s.strike, Href: s.href}
}

func convertInlines(parent ast.Node, src []byte, st style, out []Inline) []Inline {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			out = appendText(out, st.inline(textValue(v, src)))
			if v.HardLineBreak() {
				out = append(out, Inline{Break: true})
			} else if v.SoftLineBreak() {
				out = appendText(out, st.inline(" "))
			}

		case *ast.String:
			out = appendText(out, st.inline(string(v.Value)))

		case *ast.CodeSpan:
			in := st.inline(childText(v, src))
			in.Code = true
			out = append(out, in)

		case *ast.Emphasis:
			next := st
			if v.Level >= 2 {
				next.bold = true
			} else {
				next.italic = true
			}
			out = convertInlines(v, src, next, out)

		case *east.Strikethrough:
			next := st
			next.strike = true
			out = convertInlines(v, src, next, out)

		case *ast.Link:
			next := st
			next.href = string(v.Destination)
			out = convertInlines(v, src, next, out)

		case *ast.AutoLink:
			next := st
			next.href = string(v.URL(src))
			out = appendText(out, next.inline(string(v.Label(src))))

		case *ast.RawHTML:
			var sb strings.Builder
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				sb.Write(seg.Value(src))
			}
			out = appendText(out, st.inline(sb.String()))

		case *mathjax.InlineMath:
			out = append(out, Inline{Text: childText(v, src), Math: true})

		default:
			out = convertInlines(c, src, st, out)
		}
	}
	return out
}

// appendText merges in with the previous run when both carry the same
// styling, so a styled span stays a single run.
func appendText(out []Inline, in Inline) []Inline {
	if in.Text == "" {
		return out
	}
	if n := len(out); n > 0 {
		prev := out[n-1]
		if !prev.Break && !prev.Code && !prev.Math &&
			prev.Bold == in.Bold && prev.Italic == in.Italic &&
			prev.Strike == in.Strike && prev.Href == in.Href {
			out[n-1].Text += in.Text
			return out
		}
	}
	return append(out, in)
}

// textValue resolves backslash escapes and character references the way a
// renderer would, except in raw text.
func textValue(t *ast.Text, src []byte) string {
	value := t.Segment.Value(src)
	if t.IsRaw() {
		return string(value)
	}
	value = util.ResolveNumericReferences(value)
	value = util.ResolveEntityNames(value)
	return string(util.UnescapePunctuations(value))
}

func childText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			continue
		}
		sb.WriteString(childText(c, src))
	}
	return sb.String()
}

func linesText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\n")
}
