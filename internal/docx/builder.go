// Package docx renders a prepared conversation as a WordprocessingML
// package with fixed branding: a cover block, a running header and a footer
// carrying page number fields.
package docx

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/markdown"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"go.uber.org/zap"
)

// A4 portrait with one inch margins, in twentieths of a point.
const (
	pageWidth  = 11906
	pageHeight = 16838
	pageMargin = 1440
	textWidth  = pageWidth - 2*pageMargin
)

// Branding is the static decoration applied to every document.
type Branding struct {
	// Header is the running header text.
	Header string
	// Footer is the footer template; {page} and {pages} become fields.
	Footer string
	// Application is recorded in the extended properties.
	Application string
}

// DefaultBranding returns the branding used when none is configured.
func DefaultBranding() Branding {
	return Branding{
		Header:      "Chat Export",
		Footer:      "Page {page} of {pages}",
		Application: "chatdoc",
	}
}

// Options controls document metadata.
type Options struct {
	// Title overrides the conversation title.
	Title string
	// Author is recorded as creator and shown on the cover.
	Author   string
	Branding Branding
	// Now stamps the cover and core properties; zero means time.Now.
	Now time.Time
	// ID is the document identifier; a random UUID when empty.
	ID     string
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	def := DefaultBranding()
	if o.Branding.Header == "" {
		o.Branding.Header = def.Header
	}
	if o.Branding.Footer == "" {
		o.Branding.Footer = def.Footer
	}
	if o.Branding.Application == "" {
		o.Branding.Application = def.Application
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Build renders conv and serializes the package.
func Build(conv *transcript.Conversation, opts Options) ([]byte, error) {
	pkg, err := BuildPackage(conv, opts)
	if err != nil {
		return nil, err
	}
	return pkg.Serialize()
}

// BuildPackage renders conv into a new package. A nil or empty
// conversation still yields a complete document with cover and branding.
func BuildPackage(conv *transcript.Conversation, opts Options) (*container.Package, error) {
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

	b := &builder{
		rels:  container.NewRelationships(),
		links: make(map[string]string),
	}
	b.rels.Add(container.RelTypeStyles, "styles.xml", false)
	b.rels.Add(container.RelTypeNumbering, "numbering.xml", false)
	b.rels.Add(container.RelTypeSettings, "settings.xml", false)
	headerID := b.rels.Add(container.RelTypeHeader, "header1.xml", false)
	footerID := b.rels.Add(container.RelTypeFooter, "footer1.xml", false)

	doc := wordTree("w:document")
	body := el(doc.Root(), "w:body")
	b.cover(body, title, opts, len(conv.Entries))
	for _, entry := range conv.Entries {
		b.entry(body, entry)
	}

	sect := el(body, "w:sectPr")
	el(sect, "w:headerReference", "w:type", "default", "r:id", headerID)
	el(sect, "w:footerReference", "w:type", "default", "r:id", footerID)
	el(sect, "w:pgSz", "w:w", fmt.Sprint(pageWidth), "w:h", fmt.Sprint(pageHeight))
	margin := fmt.Sprint(pageMargin)
	el(sect, "w:pgMar",
		"w:top", margin, "w:right", margin, "w:bottom", margin, "w:left", margin,
		"w:header", "708", "w:footer", "708", "w:gutter", "0")

	pkg := container.New()

	ct := container.NewContentTypes()
	for name, media := range map[string]string{
		partDocument:  mediaDocument,
		partStyles:    mediaStyles,
		partNumbering: mediaNumbering,
		partSettings:  mediaSettings,
		partHeader:    mediaHeader,
		partFooter:    mediaFooter,
		partCore:      mediaCore,
		partApp:       mediaApp,
	} {
		ct.SetOverride(name, media)
	}
	sortOverrides(ct)
	ctData, err := ct.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode content types: %w", err)
	}
	pkg.SetPart(container.ContentTypesPart, ctData)

	pkgRels := container.NewRelationships()
	pkgRels.Add(container.RelTypeOfficeDocument, partDocument, false)
	pkgRels.Add(container.RelTypeCoreProperties, partCore, false)
	pkgRels.Add(container.RelTypeExtendedProps, partApp, false)
	if err := putRels(pkg, "", pkgRels); err != nil {
		return nil, err
	}

	for _, p := range []struct {
		name string
		tree *markup.Tree
	}{
		{partCore, corePart(title, opts.Author, opts.ID, opts.Now)},
		{partApp, appPart(opts.Branding.Application)},
		{partDocument, doc},
		{partStyles, stylesPart()},
		{partNumbering, b.num.part()},
		{partSettings, settingsPart()},
		{partHeader, headerPart(opts.Branding.Header)},
		{partFooter, footerPart(opts.Branding.Footer)},
	} {
		data, err := markup.Encode(p.tree)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", p.name, err)
		}
		pkg.SetPart(p.name, data)
	}

	if err := putRels(pkg, partDocument, b.rels); err != nil {
		return nil, err
	}

	opts.Logger.Debug("built document",
		zap.String("title", title),
		zap.Int("messages", len(conv.Entries)),
		zap.Int("links", len(b.links)),
		zap.Int("parts", len(pkg.Names())))

	return pkg, nil
}

func putRels(pkg *container.Package, source string, rels *container.Relationships) error {
	data, err := rels.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode relationships of %q: %w", source, err)
	}
	pkg.SetPart(container.RelsPathFor(source), data)
	return nil
}

func sortOverrides(ct *container.ContentTypes) {
	sort.Slice(ct.Overrides, func(i, j int) bool {
		return ct.Overrides[i].PartName < ct.Overrides[j].PartName
	})
}

type builder struct {
	rels  *container.Relationships
	num   numbering
	links map[string]string
}

func (b *builder) cover(body *etree.Element, title string, opts Options, messages int) {
	b.styled(body, "Title", title)
	if opts.Author != "" {
		b.styled(body, "Subtitle", opts.Author)
	}

	noun := "messages"
	if messages == 1 {
		noun = "message"
	}
	b.styled(body, "Subtitle", fmt.Sprintf("Exported %s · %d %s", opts.Now.Format("2 January 2006"), messages, noun))

	el(el(el(body, "w:p"), "w:r"), "w:br", "w:type", "page")
}

func (b *builder) styled(parent *etree.Element, style, text string) *etree.Element {
	p := el(parent, "w:p")
	val(el(p, "w:pPr"), "w:pStyle", style)
	if text != "" {
		textEl(el(p, "w:r"), "w:t", text)
	}
	return p
}

func (b *builder) entry(body *etree.Element, e transcript.Entry) {
	b.styled(body, "MessageRole", e.Label)
	if e.Doc != nil {
		b.blocks(body, e.Doc.Blocks, blockContext{})
	}
}

type blockContext struct {
	// style replaces the default paragraph style, e.g. inside quotes.
	style string
	depth int
}

func (b *builder) blocks(parent *etree.Element, blocks []markdown.Block, ctx blockContext) {
	for _, blk := range blocks {
		b.block(parent, blk, ctx)
	}
}

func (b *builder) block(parent *etree.Element, blk markdown.Block, ctx blockContext) {
	switch v := blk.(type) {
	case markdown.Heading:
		level := v.Level
		if level < 1 {
			level = 1
		}
		if level > len(headingSizes) {
			level = len(headingSizes)
		}
		b.paragraph(parent, fmt.Sprintf("Heading%d", level), v.Inlines, nil)

	case markdown.Paragraph:
		b.paragraph(parent, ctx.style, v.Inlines, nil)

	case markdown.List:
		b.list(parent, v, ctx)

	case markdown.CodeBlock:
		b.code(parent, v)

	case markdown.Quote:
		inner := ctx
		inner.style = "Quote"
		b.blocks(parent, v.Blocks, inner)

	case markdown.Table:
		b.table(parent, v)

	case markdown.Rule:
		p := el(parent, "w:p")
		bdr := el(el(p, "w:pPr"), "w:pBdr")
		el(bdr, "w:bottom", "w:val", "single", "w:sz", "6", "w:space", "1", "w:color", "BFBFBF")

	case markdown.MathBlock:
		p := el(parent, "w:p")
		math := el(el(p, "m:oMathPara"), "m:oMath")
		textEl(el(math, "m:r"), "m:t", v.TeX)
	}
}

type numRef struct {
	id, level int
}

func (b *builder) paragraph(parent *etree.Element, style string, inlines []markdown.Inline, num *numRef) *etree.Element {
	p := el(parent, "w:p")
	if style != "" || num != nil {
		pPr := el(p, "w:pPr")
		if style != "" {
			val(pPr, "w:pStyle", style)
		}
		if num != nil {
			numPr := el(pPr, "w:numPr")
			val(numPr, "w:ilvl", fmt.Sprint(num.level))
			val(numPr, "w:numId", fmt.Sprint(num.id))
		}
	}
	b.runs(p, inlines, false)
	return p
}

func (b *builder) list(parent *etree.Element, l markdown.List, ctx blockContext) {
	level := ctx.depth
	if level >= maxListDepth {
		level = maxListDepth - 1
	}

	id := b.num.bullets()
	if l.Ordered {
		id = b.num.newOrdered(level, l.Start)
	}
	ref := &numRef{id: id, level: level}

	inner := ctx
	inner.depth = ctx.depth + 1

	for _, item := range l.Items {
		numbered := false
		for _, blk := range item.Blocks {
			switch v := blk.(type) {
			case markdown.Paragraph:
				if !numbered {
					b.paragraph(parent, "ListParagraph", v.Inlines, ref)
					numbered = true
				} else {
					b.paragraph(parent, "ListParagraph", v.Inlines, nil)
				}
			case markdown.List:
				if !numbered {
					b.paragraph(parent, "ListParagraph", nil, ref)
					numbered = true
				}
				b.list(parent, v, inner)
			default:
				if !numbered {
					b.paragraph(parent, "ListParagraph", nil, ref)
					numbered = true
				}
				b.block(parent, blk, ctx)
			}
		}
		if !numbered {
			b.paragraph(parent, "ListParagraph", nil, ref)
		}
	}
}

func (b *builder) code(parent *etree.Element, c markdown.CodeBlock) {
	for _, line := range strings.Split(c.Code, "\n") {
		p := el(parent, "w:p")
		val(el(p, "w:pPr"), "w:pStyle", "Code")
		line = strings.ReplaceAll(line, "\t", "    ")
		if line == "" {
			continue
		}
		b.run(p, markdown.Inline{Text: line, Code: true}, false)
	}
}

func (b *builder) table(parent *etree.Element, t markdown.Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	width := fmt.Sprint(textWidth / cols)

	tbl := el(parent, "w:tbl")
	tblPr := el(tbl, "w:tblPr")
	val(tblPr, "w:tblStyle", "TableGrid")
	el(tblPr, "w:tblW", "w:w", fmt.Sprint(textWidth), "w:type", "dxa")

	grid := el(tbl, "w:tblGrid")
	for i := 0; i < cols; i++ {
		el(grid, "w:gridCol", "w:w", width)
	}

	row := func(cells []markdown.Cell, header bool) {
		tr := el(tbl, "w:tr")
		if header {
			el(el(tr, "w:trPr"), "w:tblHeader")
		}
		for i := 0; i < cols; i++ {
			tc := el(tr, "w:tc")
			el(el(tc, "w:tcPr"), "w:tcW", "w:w", width, "w:type", "dxa")
			p := el(tc, "w:p")
			if i < len(t.Align) {
				if jc := alignment(t.Align[i]); jc != "" {
					val(el(p, "w:pPr"), "w:jc", jc)
				}
			}
			if i < len(cells) {
				b.runs(p, cells[i].Inlines, header)
			}
		}
	}

	if len(t.Header) > 0 {
		row(t.Header, true)
	}
	for _, r := range t.Rows {
		row(r, false)
	}

	// Adjacent tables would merge without a separating paragraph.
	el(parent, "w:p")
}

func alignment(a markdown.Alignment) string {
	switch a {
	case markdown.AlignLeft:
		return "left"
	case markdown.AlignCenter:
		return "center"
	case markdown.AlignRight:
		return "right"
	}
	return ""
}

func (b *builder) runs(p *etree.Element, inlines []markdown.Inline, bold bool) {
	for _, in := range inlines {
		if bold {
			in.Bold = true
		}
		if in.Href != "" && !in.Break && !in.Math {
			link := el(p, "w:hyperlink", "r:id", b.link(in.Href))
			b.run(link, in, true)
			continue
		}
		b.run(p, in, false)
	}
}

func (b *builder) link(href string) string {
	if id, ok := b.links[href]; ok {
		return id
	}
	id := b.rels.Add(container.RelTypeHyperlink, href, true)
	b.links[href] = id
	return id
}

func (b *builder) run(parent *etree.Element, in markdown.Inline, link bool) {
	if in.Break {
		el(el(parent, "w:r"), "w:br")
		return
	}
	if in.Math {
		math := el(parent, "m:oMath")
		textEl(el(math, "m:r"), "m:t", in.Text)
		return
	}
	if in.Text == "" {
		return
	}

	r := el(parent, "w:r")
	if link || in.Code || in.Bold || in.Italic || in.Strike {
		rPr := el(r, "w:rPr")
		if link {
			val(rPr, "w:rStyle", "Hyperlink")
		}
		if in.Code {
			el(rPr, "w:rFonts", "w:ascii", monoFont, "w:hAnsi", monoFont, "w:cs", monoFont)
		}
		if in.Bold {
			el(rPr, "w:b")
		}
		if in.Italic {
			el(rPr, "w:i")
		}
		if in.Strike {
			el(rPr, "w:strike")
		}
		if in.Code {
			el(rPr, "w:shd", "w:val", "clear", "w:color", "auto", "w:fill", codeShade)
		}
	}
	textEl(r, "w:t", in.Text)
}
