package pdf

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/nerdneilsfield/chatdoc/internal/markdown"
)

var headingSizes = [...]float64{20, 17, 15, 13, 12, 11}

const (
	listIndent  = 18.0
	quoteIndent = 14.0
	codeSize    = 9.5
	codePad     = 4.0
	cellPad     = 4.0
	tabWidth    = 4
)

// frame is the horizontal band blocks are laid into. bars holds the x
// positions of enclosing quote rules.
type frame struct {
	x, width float64
	italic   bool
	color    *rgb
	bars     []float64
}

func (f frame) indent(dx float64) frame {
	f.x += dx
	f.width -= dx
	if f.width < baseSize {
		f.width = baseSize
	}
	return f
}

func (f frame) quoted() frame {
	bars := make([]float64, len(f.bars), len(f.bars)+1)
	copy(bars, f.bars)
	f.bars = append(bars, f.x+2)
	f = f.indent(quoteIndent)
	f.italic = true
	f.color = &colorMuted
	return f
}

func (e *engine) blocks(blocks []markdown.Block, f frame) {
	for _, b := range blocks {
		e.block(b, f)
	}
}

func (e *engine) block(b markdown.Block, f frame) {
	switch b := b.(type) {
	case markdown.Heading:
		level := b.Level
		if level < 1 {
			level = 1
		}
		if level > len(headingSizes) {
			level = len(headingSizes)
		}
		size := headingSizes[level-1]
		e.y += size * 0.4
		base := textStyle{size: size, bold: true, color: &colorAccent}
		e.emit(e.layout(spansFromInlines(b.Inlines, base), f.width), f, size*1.3, markdown.AlignLeft)
		e.y += size * 0.25
	case markdown.Paragraph:
		e.paragraph(b.Inlines, f)
	case markdown.List:
		e.list(b, f)
	case markdown.CodeBlock:
		e.code(b.Code, f)
	case markdown.Quote:
		e.blocks(b.Blocks, f.quoted())
	case markdown.Table:
		e.table(b, f)
	case markdown.Rule:
		e.rule(f)
	case markdown.MathBlock:
		var spans []span
		for i, l := range strings.Split(b.TeX, "\n") {
			if i > 0 {
				spans = append(spans, span{brk: true})
			}
			spans = append(spans, span{text: l, style: textStyle{size: baseSize, italic: true, mono: true}})
		}
		e.emit(e.layout(spans, f.width), f, baseSize*lineFactor, markdown.AlignCenter)
		e.y += baseSize * 0.5
	}
}

func (e *engine) baseStyle(f frame) textStyle {
	return textStyle{size: baseSize, italic: f.italic, color: f.color}
}

func (e *engine) paragraph(inlines []markdown.Inline, f frame) {
	lines := e.layout(spansFromInlines(inlines, e.baseStyle(f)), f.width)
	e.emit(lines, f, baseSize*lineFactor, markdown.AlignLeft)
	e.y += baseSize * 0.5
}

// emit places lines at the cursor, breaking pages between lines.
func (e *engine) emit(lines []line, f frame, lh float64, align markdown.Alignment) {
	fallback := colorText
	if f.color != nil {
		fallback = *f.color
	}
	for _, l := range lines {
		e.ensureSpace(lh)
		e.drawBars(f, lh)
		x := f.x
		switch align {
		case markdown.AlignCenter:
			x += (f.width - l.width) / 2
		case markdown.AlignRight:
			x += f.width - l.width
		}
		e.drawLine(l, x, lh, fallback)
		e.y += lh
	}
}

func (e *engine) drawBars(f frame, h float64) {
	if len(f.bars) == 0 {
		return
	}
	e.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	e.pdf.SetLineWidth(2)
	for _, x := range f.bars {
		e.pdf.Line(x, e.y, x, e.y+h)
	}
}

func (e *engine) list(l markdown.List, f frame) {
	lh := baseSize * lineFactor
	inner := f.indent(listIndent)
	start := l.Start
	if start < 1 {
		start = 1
	}

	for i, item := range l.Items {
		marker := "•"
		if l.Ordered {
			marker = fmt.Sprintf("%d.", start+i)
		}

		e.ensureSpace(lh)
		style := e.baseStyle(f)
		style.italic = false
		e.setFont(style)
		e.setColor(colorText)
		e.pdf.SetXY(f.x, e.y)
		e.pdf.CellFormat(listIndent-4, lh, e.fonts.trBody(marker), "", 0, "R", false, 0, "")

		if len(item.Blocks) == 0 {
			e.y += lh
			continue
		}
		e.blocks(item.Blocks, inner)
	}
}

// code lays out a code block line by line on a shaded band. Lines wider
// than the frame are hard-wrapped by display columns.
func (e *engine) code(src string, f frame) {
	style := textStyle{size: codeSize, mono: true}
	lh := codeSize * 1.35
	cols := int(f.width / e.measure("M", style))
	if cols < 1 {
		cols = 1
	}

	src = strings.TrimRight(src, "\n")
	var rows []string
	for _, l := range strings.Split(src, "\n") {
		rows = append(rows, wrapColumns(expandTabs(l), cols-1)...)
	}

	e.y += codePad / 2
	for i, row := range rows {
		h := lh
		if i == 0 || i == len(rows)-1 {
			h += codePad
		}
		e.ensureSpace(h)
		e.drawBars(f, h)
		e.pdf.SetFillColor(colorBand.r, colorBand.g, colorBand.b)
		e.pdf.Rect(f.x, e.y, f.width, h, "F")

		top := e.y
		if i == 0 {
			top += codePad
		}
		e.setFont(style)
		e.setColor(colorText)
		e.pdf.SetXY(f.x+codePad, top)
		e.pdf.CellFormat(f.width-2*codePad, lh, e.fonts.trMono(row), "", 0, "L", false, 0, "")
		e.y += h
	}
	e.y += baseSize * 0.5
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// wrapColumns splits s into rows of at most cols display columns.
func wrapColumns(s string, cols int) []string {
	if cols < 1 {
		cols = 1
	}
	if runewidth.StringWidth(s) <= cols {
		return []string{s}
	}

	var rows []string
	var b strings.Builder
	width := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > cols && width > 0 {
			rows = append(rows, b.String())
			b.Reset()
			width = 0
		}
		b.WriteRune(r)
		width += w
	}
	if b.Len() > 0 {
		rows = append(rows, b.String())
	}
	return rows
}

// table draws rows line by line so a tall row may continue on the next
// page. Columns share the frame width equally.
func (e *engine) table(t markdown.Table, f frame) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	lh := baseSize * lineFactor
	colW := f.width / float64(cols)

	rows := make([][]markdown.Cell, 0, len(t.Rows)+1)
	rows = append(rows, t.Header)
	rows = append(rows, t.Rows...)

	e.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	e.pdf.SetLineWidth(0.5)

	for ri, row := range rows {
		header := ri == 0
		cells := make([][]line, cols)
		height := 1
		for c := 0; c < cols; c++ {
			style := e.baseStyle(f)
			style.bold = header
			var inlines []markdown.Inline
			if c < len(row) {
				inlines = row[c].Inlines
			}
			cells[c] = e.layout(spansFromInlines(inlines, style), colW-2*cellPad)
			if len(cells[c]) > height {
				height = len(cells[c])
			}
		}

		for li := 0; li < height; li++ {
			h := lh
			if li == 0 {
				h += cellPad
			}
			if li == height-1 {
				h += cellPad
			}
			e.ensureSpace(h)
			top := e.y
			if header {
				e.pdf.SetFillColor(colorBand.r, colorBand.g, colorBand.b)
				e.pdf.Rect(f.x, top, f.width, h, "F")
			}

			e.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
			e.pdf.SetLineWidth(0.5)
			if li == 0 {
				e.pdf.Line(f.x, top, f.x+f.width, top)
			}
			for c := 0; c <= cols; c++ {
				x := f.x + float64(c)*colW
				e.pdf.Line(x, top, x, top+h)
			}
			if li == height-1 {
				e.pdf.Line(f.x, top+h, f.x+f.width, top+h)
			}

			if li == 0 {
				e.y += cellPad
			}
			for c := 0; c < cols; c++ {
				if li >= len(cells[c]) {
					continue
				}
				l := cells[c][li]
				x := f.x + float64(c)*colW + cellPad
				inner := colW - 2*cellPad
				if c < len(t.Align) {
					switch t.Align[c] {
					case markdown.AlignCenter:
						x += (inner - l.width) / 2
					case markdown.AlignRight:
						x += inner - l.width
					}
				}
				e.drawLine(l, x, lh, colorText)
			}
			e.y = top + h
		}
	}
	e.y += baseSize * 0.5
}

func (e *engine) rule(f frame) {
	h := baseSize
	e.ensureSpace(h)
	e.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	e.pdf.SetLineWidth(0.75)
	e.pdf.Line(f.x, e.y+h/2, f.x+f.width, e.y+h/2)
	e.y += h
}
