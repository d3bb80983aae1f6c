// Package document finds the translatable text of a word-processing
// package and writes translations back without disturbing formatting.
//
// A part is split into blocks: paragraphs, table cells and text boxes.
// Each block yields a translation unit, the text of its text nodes, and a
// translated unit is spread back over the same text nodes so that run
// formatting survives.
package document

import (
	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

// BlockKind tells what element a block wraps.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindTableCell
	KindTextBox
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTableCell:
		return "table-cell"
	case KindTextBox:
		return "text-box"
	default:
		return "unknown"
	}
}

const (
	tagParagraph = "w:p"
	tagCell      = "w:tc"
	tagTextBox   = "w:txbxContent"
	tagText      = "w:t"
)

// containerTags own every paragraph below them.
var containerTags = []string{tagCell, tagTextBox}

// skippedTags hold no translatable text: field instructions, deleted
// revisions, equations, and legacy fallbacks duplicating drawing content.
var skippedTags = []string{
	"w:instrText",
	"w:delText",
	"w:delInstrText",
	"m:oMath",
	"m:oMathPara",
	"mc:Fallback",
}

// Block is one translation unit container inside a part.
type Block struct {
	Part    string
	Kind    BlockKind
	Element *etree.Element
}

// ExtractBlocks returns the blocks of a decoded part in document order.
// Paragraphs inside a table cell or text box belong to that container; a
// container nested in another is a block of its own.
func ExtractBlocks(tree *markup.Tree, part string) []*Block {
	var blocks []*Block
	markup.Walk(tree.Root(), markup.VisitorFuncs{OnElement: func(el *etree.Element) markup.Action {
		switch {
		case markup.Is(el, skippedTags...):
			return markup.Skip
		case markup.Is(el, tagCell):
			blocks = append(blocks, &Block{Part: part, Kind: KindTableCell, Element: el})
		case markup.Is(el, tagTextBox):
			blocks = append(blocks, &Block{Part: part, Kind: KindTextBox, Element: el})
		case markup.Is(el, tagParagraph) && !markup.HasAncestor(el, containerTags...):
			blocks = append(blocks, &Block{Part: part, Kind: KindParagraph, Element: el})
		}
		return markup.Descend
	}})
	return blocks
}
