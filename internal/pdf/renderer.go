// Package pdf lays out a prepared conversation onto fixed-size pages.
//
// Layout is a cursor state machine: every line is placed at the running
// vertical cursor, and a line that would cross the bottom margin first
// starts a new page, which re-emits header and footer and resets the
// cursor. Blocks are never truncated; long ones continue on later pages.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"go.uber.org/zap"
)

// Branding is the static decoration applied to every page.
type Branding struct {
	Header string
	// Footer is a template; {page} and {pages} are replaced.
	Footer string
}

// Options controls the rendered output.
type Options struct {
	Title    string
	Author   string
	Branding Branding
	// PageSize is "A4" (default), "A5", "Letter" or "Legal".
	PageSize string
	// FontPath optionally names a TrueType font used for body text in
	// place of the core Helvetica, for scripts outside Latin-1.
	FontPath string
	// MonoFontPath optionally names a TrueType font used for code.
	MonoFontPath string
	Now          time.Time
	Logger       *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Branding.Header == "" {
		o.Branding.Header = "Chat Export"
	}
	if o.Branding.Footer == "" {
		o.Branding.Footer = "Page {page} of {pages}"
	}
	switch strings.ToLower(o.PageSize) {
	case "a5":
		o.PageSize = "A5"
	case "letter":
		o.PageSize = "Letter"
	case "legal":
		o.PageSize = "Legal"
	default:
		o.PageSize = "A4"
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Page geometry in points.
const (
	marginX      = 56.0
	marginTop    = 64.0
	marginBottom = 64.0
	headerY      = 28.0
	footerOffset = 36.0
	baseSize     = 11.0
	lineFactor   = 1.45
)

type rgb struct{ r, g, b int }

var (
	colorText   = rgb{33, 33, 33}
	colorAccent = rgb{31, 78, 121}
	colorMuted  = rgb{127, 127, 127}
	colorLink   = rgb{5, 99, 193}
	colorRule   = rgb{191, 191, 191}
	colorBand   = rgb{242, 242, 242}
)

// Render lays out conv and returns the PDF bytes.
func Render(conv *transcript.Conversation, opts Options) ([]byte, error) {
	pdf, err := render(conv, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func render(conv *transcript.Conversation, opts Options) (*gofpdf.Fpdf, error) {
	opts.setDefaults()
	if conv == nil {
		conv = &transcript.Conversation{}
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = conv.Title
	}
	if title == "" {
		title = transcript.DefaultTitle
	}

	pdf := gofpdf.New("P", "pt", opts.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetTitle(title, true)
	pdf.SetCreator("chatdoc", true)
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	pdf.AliasNbPages("")

	fonts, err := loadFonts(pdf, opts)
	if err != nil {
		return nil, err
	}

	e := newEngine(pdf, fonts)
	e.installBranding(opts.Branding)

	e.cover(title, opts, len(conv.Entries))
	for i, entry := range conv.Entries {
		e.entry(entry, i == 0)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	opts.Logger.Debug("rendered pdf",
		zap.String("title", title),
		zap.Int("messages", len(conv.Entries)),
		zap.Int("pages", pdf.PageCount()))

	return pdf, nil
}

// fontSet names the families used for body and code text, with the
// translator each needs. Core fonts are cp1252; UTF-8 fonts take text as is.
type fontSet struct {
	body, mono     string
	trBody, trMono func(string) string
}

func loadFonts(pdf *gofpdf.Fpdf, opts Options) (fontSet, error) {
	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	identity := func(s string) string { return s }

	fs := fontSet{body: "Helvetica", mono: "Courier", trBody: cp1252, trMono: cp1252}

	if opts.FontPath != "" {
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8Font("body", style, opts.FontPath)
		}
		if err := pdf.Error(); err != nil {
			return fs, fmt.Errorf("failed to load font %s: %w", opts.FontPath, err)
		}
		fs.body, fs.trBody = "body", identity
	}
	if opts.MonoFontPath != "" {
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8Font("mono", style, opts.MonoFontPath)
		}
		if err := pdf.Error(); err != nil {
			return fs, fmt.Errorf("failed to load font %s: %w", opts.MonoFontPath, err)
		}
		fs.mono, fs.trMono = "mono", identity
	}
	return fs, nil
}

// engine holds the layout state.
type engine struct {
	pdf   *gofpdf.Fpdf
	fonts fontSet

	pageW, pageH float64
	left, right  float64
	bottom       float64

	// y is the running cursor, measured from the top of the page.
	y     float64
	pages int
}

func newEngine(pdf *gofpdf.Fpdf, fonts fontSet) *engine {
	w, h := pdf.GetPageSize()
	return &engine{
		pdf:    pdf,
		fonts:  fonts,
		pageW:  w,
		pageH:  h,
		left:   marginX,
		right:  w - marginX,
		bottom: h - marginBottom,
	}
}

func (e *engine) installBranding(b Branding) {
	e.pdf.SetHeaderFunc(func() {
		e.pdf.SetFont(e.fonts.body, "", 8)
		e.setColor(colorMuted)
		e.pdf.SetXY(e.left, headerY)
		e.pdf.CellFormat(e.right-e.left, 10, e.fonts.trBody(b.Header), "", 0, "L", false, 0, "")
		e.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
		e.pdf.SetLineWidth(0.5)
		e.pdf.Line(e.left, headerY+14, e.right, headerY+14)
	})

	e.pdf.SetFooterFunc(func() {
		text := strings.ReplaceAll(b.Footer, "{pages}", "{nb}")
		text = strings.ReplaceAll(text, "{page}", fmt.Sprint(e.pdf.PageNo()))
		e.pdf.SetFont(e.fonts.body, "", 8)
		e.setColor(colorMuted)
		e.pdf.SetXY(e.left, e.pageH-footerOffset)
		e.pdf.CellFormat(e.right-e.left, 10, e.fonts.trBody(text), "", 0, "C", false, 0, "")
	})
}

// newPage starts a page and resets the cursor. Header and footer are
// emitted by the registered callbacks.
func (e *engine) newPage() {
	e.pdf.AddPage()
	e.pages++
	e.y = marginTop
}

// ensureSpace starts a new page unless h more points fit above the bottom
// margin. A fresh page always accepts the line, so nothing is dropped.
func (e *engine) ensureSpace(h float64) {
	if e.pages == 0 {
		e.newPage()
		return
	}
	if e.y+h > e.bottom && e.y > marginTop {
		e.newPage()
	}
}

func (e *engine) setColor(c rgb) {
	e.pdf.SetTextColor(c.r, c.g, c.b)
}

func (e *engine) cover(title string, opts Options, messages int) {
	e.newPage()
	e.y = e.pageH * 0.3

	e.centered(title, 26, "B", colorAccent)
	e.y += 12
	if opts.Author != "" {
		e.centered(opts.Author, 13, "", colorMuted)
	}
	noun := "messages"
	if messages == 1 {
		noun = "message"
	}
	e.centered(fmt.Sprintf("Exported %s · %d %s", opts.Now.Format("2 January 2006"), messages, noun), 11, "", colorMuted)
}

func (e *engine) centered(text string, size float64, style string, c rgb) {
	lh := size * lineFactor
	for _, l := range e.layout([]span{{text: text, style: textStyle{size: size, bold: style == "B"}}}, e.right-e.left) {
		e.ensureSpace(lh)
		x := e.left + (e.right-e.left-l.width)/2
		e.drawLine(l, x, lh, c)
		e.y += lh
	}
}

func (e *engine) entry(en transcript.Entry, first bool) {
	if first {
		e.newPage()
	} else {
		e.y += 10
	}

	size := 12.0
	lh := size * lineFactor
	e.ensureSpace(lh * 2)
	e.pdf.SetFont(e.fonts.body, "B", size)
	e.setColor(colorAccent)
	e.pdf.SetXY(e.left, e.y)
	e.pdf.CellFormat(e.right-e.left, lh, e.fonts.trBody(en.Label), "", 0, "L", false, 0, "")
	e.y += lh
	e.pdf.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	e.pdf.SetLineWidth(0.75)
	e.pdf.Line(e.left, e.y, e.right, e.y)
	e.y += 6

	if en.Doc != nil {
		e.blocks(en.Doc.Blocks, frame{x: e.left, width: e.right - e.left})
	}
}
