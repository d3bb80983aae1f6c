package docx

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

// Fonts and colors of the generated styles.
const (
	bodyFont    = "Calibri"
	monoFont    = "Consolas"
	accentColor = "1F4E79"
	mutedColor  = "7F7F7F"
	codeShade   = "F2F2F2"
	linkColor   = "0563C1"
)

type styleSpec struct {
	id, name, kind string
	basedOn        string
	size           int // half-points
	bold, italic   bool
	color          string
	font           string
	shade          string
	spaceBefore    int
	spaceAfter     int
	indent         int
	leftBorder     bool
	bottomBorder   bool
	outline        int // 0 means none, otherwise outline level + 1
	center         bool
}

var headingSizes = [...]int{36, 30, 26, 24, 22, 22}

func styleSpecs() []styleSpec {
	specs := []styleSpec{
		{id: "Title", name: "Title", kind: "paragraph", basedOn: "Normal", size: 56, bold: true, color: accentColor, spaceBefore: 2400, spaceAfter: 240, center: true},
		{id: "Subtitle", name: "Subtitle", kind: "paragraph", basedOn: "Normal", size: 24, color: mutedColor, spaceAfter: 120, center: true},
		{id: "MessageRole", name: "Message Role", kind: "paragraph", basedOn: "Normal", size: 24, bold: true, color: accentColor, spaceBefore: 360, spaceAfter: 120, bottomBorder: true},
		{id: "ListParagraph", name: "List Paragraph", kind: "paragraph", basedOn: "Normal", indent: 720, spaceAfter: 60},
		{id: "Code", name: "Code", kind: "paragraph", basedOn: "Normal", size: 20, font: monoFont, shade: codeShade, spaceAfter: 0},
		{id: "Quote", name: "Quote", kind: "paragraph", basedOn: "Normal", italic: true, color: mutedColor, indent: 720, leftBorder: true},
		{id: "Header", name: "header", kind: "paragraph", basedOn: "Normal", size: 18, color: mutedColor, spaceAfter: 0},
		{id: "Footer", name: "footer", kind: "paragraph", basedOn: "Normal", size: 18, color: mutedColor, spaceAfter: 0, center: true},
		{id: "Hyperlink", name: "Hyperlink", kind: "character", color: linkColor},
	}
	for i, size := range headingSizes {
		specs = append(specs, styleSpec{
			id:          fmt.Sprintf("Heading%d", i+1),
			name:        fmt.Sprintf("heading %d", i+1),
			kind:        "paragraph",
			basedOn:     "Normal",
			size:        size,
			bold:        true,
			color:       accentColor,
			spaceBefore: 240,
			spaceAfter:  120,
			outline:     i + 1,
		})
	}
	return specs
}

func stylesPart() *markup.Tree {
	tree := wordTree("w:styles")
	root := tree.Root()

	defaults := el(root, "w:docDefaults")
	rPr := el(el(defaults, "w:rPrDefault"), "w:rPr")
	el(rPr, "w:rFonts", "w:ascii", bodyFont, "w:hAnsi", bodyFont, "w:eastAsia", bodyFont, "w:cs", bodyFont)
	val(rPr, "w:sz", "22")
	val(rPr, "w:szCs", "22")
	pPr := el(el(defaults, "w:pPrDefault"), "w:pPr")
	el(pPr, "w:spacing", "w:after", "160", "w:line", "264", "w:lineRule", "auto")

	normal := el(root, "w:style", "w:type", "paragraph", "w:default", "1", "w:styleId", "Normal")
	val(normal, "w:name", "Normal")
	el(normal, "w:qFormat")

	font := el(root, "w:style", "w:type", "character", "w:default", "1", "w:styleId", "DefaultParagraphFont")
	val(font, "w:name", "Default Paragraph Font")
	el(font, "w:uiPriority", "w:val", "1")
	el(font, "w:semiHidden")

	for _, spec := range styleSpecs() {
		writeStyle(root, spec)
	}

	table := el(root, "w:style", "w:type", "table", "w:styleId", "TableGrid")
	val(table, "w:name", "Table Grid")
	tblPr := el(table, "w:tblPr")
	borders := el(tblPr, "w:tblBorders")
	for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
		el(borders, side, "w:val", "single", "w:sz", "4", "w:space", "0", "w:color", "BFBFBF")
	}
	margins := el(tblPr, "w:tblCellMar")
	el(margins, "w:left", "w:w", "108", "w:type", "dxa")
	el(margins, "w:right", "w:w", "108", "w:type", "dxa")

	return tree
}

func writeStyle(root *etree.Element, spec styleSpec) {
	style := el(root, "w:style", "w:type", spec.kind, "w:styleId", spec.id)
	val(style, "w:name", spec.name)
	if spec.basedOn != "" {
		val(style, "w:basedOn", spec.basedOn)
		val(style, "w:next", spec.basedOn)
	}
	el(style, "w:qFormat")

	if spec.kind == "paragraph" {
		pPr := el(style, "w:pPr")
		if spec.outline > 0 {
			el(pPr, "w:keepNext")
		}
		if spec.leftBorder || spec.bottomBorder {
			bdr := el(pPr, "w:pBdr")
			if spec.leftBorder {
				el(bdr, "w:left", "w:val", "single", "w:sz", "18", "w:space", "8", "w:color", "BFBFBF")
			}
			if spec.bottomBorder {
				el(bdr, "w:bottom", "w:val", "single", "w:sz", "4", "w:space", "1", "w:color", accentColor)
			}
		}
		if spec.shade != "" {
			el(pPr, "w:shd", "w:val", "clear", "w:color", "auto", "w:fill", spec.shade)
		}
		el(pPr, "w:spacing", "w:before", fmt.Sprint(spec.spaceBefore), "w:after", fmt.Sprint(spec.spaceAfter))
		if spec.indent > 0 {
			el(pPr, "w:ind", "w:left", fmt.Sprint(spec.indent))
		}
		if spec.center {
			val(pPr, "w:jc", "center")
		}
		if spec.outline > 0 {
			val(pPr, "w:outlineLvl", fmt.Sprint(spec.outline-1))
		}
	}

	rPr := el(style, "w:rPr")
	if spec.font != "" {
		el(rPr, "w:rFonts", "w:ascii", spec.font, "w:hAnsi", spec.font, "w:cs", spec.font)
	}
	if spec.bold {
		el(rPr, "w:b")
	}
	if spec.italic {
		el(rPr, "w:i")
	}
	if spec.color != "" {
		val(rPr, "w:color", spec.color)
	}
	if spec.size > 0 {
		val(rPr, "w:sz", fmt.Sprint(spec.size))
		val(rPr, "w:szCs", fmt.Sprint(spec.size))
	}
	if spec.id == "Hyperlink" {
		val(rPr, "w:u", "single")
	}
}

func settingsPart() *markup.Tree {
	tree := wordTree("w:settings")
	root := tree.Root()
	el(root, "w:zoom", "w:percent", "100")
	val(root, "w:defaultTabStop", "720")
	val(root, "w:characterSpacingControl", "doNotCompress")
	compat := el(root, "w:compat")
	el(compat, "w:compatSetting",
		"w:name", "compatibilityMode",
		"w:uri", "http://schemas.microsoft.com/office/word",
		"w:val", "15")
	return tree
}

func headerPart(text string) *markup.Tree {
	tree := wordTree("w:hdr")
	p := el(tree.Root(), "w:p")
	val(el(p, "w:pPr"), "w:pStyle", "Header")
	if text != "" {
		textEl(el(p, "w:r"), "w:t", text)
	}
	return tree
}

// footerPart lays out the footer template, replacing {page} and {pages}
// with PAGE and NUMPAGES fields.
func footerPart(template string) *markup.Tree {
	tree := wordTree("w:ftr")
	p := el(tree.Root(), "w:p")
	val(el(p, "w:pPr"), "w:pStyle", "Footer")

	rest := template
	for rest != "" {
		i := strings.Index(rest, "{")
		if i < 0 {
			textEl(el(p, "w:r"), "w:t", rest)
			break
		}
		if i > 0 {
			textEl(el(p, "w:r"), "w:t", rest[:i])
			rest = rest[i:]
		}
		switch {
		case strings.HasPrefix(rest, "{pages}"):
			field(p, "NUMPAGES")
			rest = rest[len("{pages}"):]
		case strings.HasPrefix(rest, "{page}"):
			field(p, "PAGE")
			rest = rest[len("{page}"):]
		default:
			textEl(el(p, "w:r"), "w:t", "{")
			rest = rest[1:]
		}
	}
	return tree
}

// field appends a complex field with a placeholder result.
func field(p *etree.Element, instr string) {
	el(el(p, "w:r"), "w:fldChar", "w:fldCharType", "begin")
	textEl(el(p, "w:r"), "w:instrText", " "+instr+" ")
	el(el(p, "w:r"), "w:fldChar", "w:fldCharType", "separate")
	textEl(el(p, "w:r"), "w:t", "1")
	el(el(p, "w:r"), "w:fldChar", "w:fldCharType", "end")
}

func corePart(title, author, id string, now time.Time) *markup.Tree {
	tree := markup.New("cp:coreProperties",
		markup.Namespace{Prefix: "cp", URI: nsCP},
		markup.Namespace{Prefix: "dc", URI: nsDC},
		markup.Namespace{Prefix: "dcterms", URI: nsDCTerms},
		markup.Namespace{Prefix: "dcmitype", URI: nsDCMI},
		markup.Namespace{Prefix: "xsi", URI: nsXSI},
	)
	root := tree.Root()
	root.CreateElement("dc:title").SetText(title)
	if author != "" {
		root.CreateElement("dc:creator").SetText(author)
		root.CreateElement("cp:lastModifiedBy").SetText(author)
	}
	root.CreateElement("dc:identifier").SetText(id)
	root.CreateElement("cp:keywords").SetText("chat export")

	stamp := now.UTC().Format("2006-01-02T15:04:05Z")
	el(root, "dcterms:created", "xsi:type", "dcterms:W3CDTF").SetText(stamp)
	el(root, "dcterms:modified", "xsi:type", "dcterms:W3CDTF").SetText(stamp)
	return tree
}

func appPart(application string) *markup.Tree {
	tree := markup.New("Properties", markup.Namespace{Prefix: "vt", URI: nsVT})
	root := tree.Root()
	root.CreateAttr("xmlns", nsExtProp)
	root.CreateElement("Application").SetText(application)
	root.CreateElement("DocSecurity").SetText("0")
	root.CreateElement("ScaleCrop").SetText("false")
	root.CreateElement("LinksUpToDate").SetText("false")
	return tree
}
