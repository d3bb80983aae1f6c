package pdf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nerdneilsfield/chatdoc/internal/markdown"
)

// textStyle is the font selection for a run of text.
type textStyle struct {
	size                 float64
	bold, italic, strike bool
	mono                 bool
	href                 string
	color                *rgb
}

func (s textStyle) fontStyle() string {
	out := ""
	if s.bold {
		out += "B"
	}
	if s.italic {
		out += "I"
	}
	return out
}

// span is styled text before line breaking. A span with brk set forces a
// line break.
type span struct {
	text  string
	style textStyle
	brk   bool
}

// frag is a measured piece of a laid out line.
type frag struct {
	text  string
	style textStyle
	width float64
}

type line struct {
	frags []frag
	width float64
}

func spansFromInlines(inlines []markdown.Inline, base textStyle) []span {
	out := make([]span, 0, len(inlines))
	for _, in := range inlines {
		if in.Break {
			out = append(out, span{brk: true})
			continue
		}
		st := base
		st.bold = st.bold || in.Bold
		st.italic = st.italic || in.Italic || in.Math
		st.strike = in.Strike
		st.mono = st.mono || in.Code || in.Math
		st.href = in.Href
		out = append(out, span{text: in.Text, style: st})
	}
	return out
}

func (e *engine) setFont(s textStyle) {
	family := e.fonts.body
	if s.mono {
		family = e.fonts.mono
	}
	e.pdf.SetFont(family, s.fontStyle(), s.size)
}

func (e *engine) tr(s textStyle) func(string) string {
	if s.mono {
		return e.fonts.trMono
	}
	return e.fonts.trBody
}

func (e *engine) measure(text string, s textStyle) float64 {
	e.setFont(s)
	return e.pdf.GetStringWidth(e.tr(s)(text))
}

// layout breaks spans into lines no wider than width. Breaks happen at
// spaces; a word wider than a whole line is split between characters.
func (e *engine) layout(spans []span, width float64) []line {
	var lines []line
	cur := line{}

	push := func() {
		lines = append(lines, e.trimTrailingSpace(cur))
		cur = line{}
	}
	appendFrag := func(f frag) {
		if n := len(cur.frags); n > 0 && cur.frags[n-1].style == f.style {
			cur.frags[n-1].text += f.text
			cur.frags[n-1].width += f.width
		} else {
			cur.frags = append(cur.frags, f)
		}
		cur.width += f.width
	}

	for _, sp := range spans {
		if sp.brk {
			push()
			continue
		}
		for _, tok := range tokenize(sp.text) {
			if isSpace(tok) {
				if len(cur.frags) == 0 {
					continue
				}
				appendFrag(frag{text: " ", style: sp.style, width: e.measure(" ", sp.style)})
				continue
			}

			w := e.measure(tok, sp.style)
			if cur.width+w > width && len(cur.frags) > 0 {
				push()
			}
			if w <= width {
				appendFrag(frag{text: tok, style: sp.style, width: w})
				continue
			}

			for _, piece := range e.splitWord(tok, sp.style, width) {
				pw := e.measure(piece, sp.style)
				if cur.width+pw > width && len(cur.frags) > 0 {
					push()
				}
				appendFrag(frag{text: piece, style: sp.style, width: pw})
			}
		}
	}
	if len(cur.frags) > 0 || len(lines) == 0 {
		push()
	}
	return lines
}

// splitWord cuts a word into pieces that each fit width. Every piece holds
// at least one rune.
func (e *engine) splitWord(word string, s textStyle, width float64) []string {
	var pieces []string
	for word != "" {
		end := 0
		for i := range word {
			if i == 0 {
				continue
			}
			if e.measure(word[:i], s) > width {
				break
			}
			end = i
		}
		if e.measure(word, s) <= width {
			end = len(word)
		}
		if end == 0 {
			_, size := utf8.DecodeRuneInString(word)
			end = size
		}
		pieces = append(pieces, word[:end])
		word = word[end:]
	}
	return pieces
}

func tokenize(text string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i > start && space != inSpace {
			out = append(out, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSpace(tok string) bool {
	return strings.TrimSpace(tok) == ""
}

func (e *engine) trimTrailingSpace(l line) line {
	for len(l.frags) > 0 {
		last := &l.frags[len(l.frags)-1]
		trimmed := strings.TrimRight(last.text, " ")
		if trimmed == last.text {
			break
		}
		if trimmed == "" {
			l.frags = l.frags[:len(l.frags)-1]
			continue
		}
		last.text = trimmed
		last.width = e.measure(trimmed, last.style)
		break
	}

	l.width = 0
	for _, f := range l.frags {
		l.width += f.width
	}
	return l
}

// drawLine writes one laid out line at x on the cursor row.
func (e *engine) drawLine(l line, x, lh float64, fallback rgb) {
	cx := x
	for _, f := range l.frags {
		e.setFont(f.style)
		c := fallback
		if f.style.color != nil {
			c = *f.style.color
		}
		if f.style.href != "" {
			c = colorLink
		}
		e.setColor(c)

		if f.style.mono {
			e.pdf.SetFillColor(colorBand.r, colorBand.g, colorBand.b)
			pad := f.style.size * 0.2
			e.pdf.Rect(cx, e.y+(lh-f.style.size)/2-pad, f.width, f.style.size+2*pad, "F")
		}

		e.pdf.SetXY(cx, e.y)
		e.pdf.CellFormat(f.width, lh, e.tr(f.style)(f.text), "", 0, "L", false, 0, f.style.href)

		if f.style.strike || f.style.href != "" {
			e.pdf.SetDrawColor(c.r, c.g, c.b)
			e.pdf.SetLineWidth(0.5)
			mid := e.y + lh/2
			if f.style.href != "" && !f.style.strike {
				mid = e.y + lh/2 + f.style.size*0.4
			}
			e.pdf.Line(cx, mid, cx+f.width, mid)
		}
		cx += f.width
	}
}
