package docx

import (
	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

// Namespaces used by the generated parts.
const (
	nsW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsM       = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	nsCP      = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsDCMI    = "http://purl.org/dc/dcmitype/"
	nsXSI     = "http://www.w3.org/2001/XMLSchema-instance"
	nsExtProp = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	nsVT      = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
)

// Part names and media types.
const (
	partDocument  = "word/document.xml"
	partStyles    = "word/styles.xml"
	partNumbering = "word/numbering.xml"
	partSettings  = "word/settings.xml"
	partHeader    = "word/header1.xml"
	partFooter    = "word/footer1.xml"
	partCore      = "docProps/core.xml"
	partApp       = "docProps/app.xml"

	mediaDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	mediaStyles    = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	mediaNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	mediaSettings  = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	mediaHeader    = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	mediaFooter    = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	mediaCore      = "application/vnd.openxmlformats-package.core-properties+xml"
	mediaApp       = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

// wordTree creates a WordprocessingML part rooted at tag.
func wordTree(tag string) *markup.Tree {
	return markup.New(tag,
		markup.Namespace{Prefix: "w", URI: nsW},
		markup.Namespace{Prefix: "r", URI: nsR},
		markup.Namespace{Prefix: "m", URI: nsM},
	)
}

// el appends a child element with attribute key/value pairs.
func el(parent *etree.Element, tag string, attrs ...string) *etree.Element {
	child := parent.CreateElement(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		child.CreateAttr(attrs[i], attrs[i+1])
	}
	return child
}

// val appends <tag w:val="v"/>.
func val(parent *etree.Element, tag, v string) *etree.Element {
	return el(parent, tag, "w:val", v)
}

// textEl appends a text-bearing element.
func textEl(parent *etree.Element, tag, text string) *etree.Element {
	t := parent.CreateElement(tag)
	markup.SetText(t, text)
	return t
}
