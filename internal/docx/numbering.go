package docx

import (
	"fmt"

	"github.com/nerdneilsfield/chatdoc/internal/markup"
)

const (
	maxListDepth = 9

	bulletAbstract  = 0
	decimalAbstract = 1

	bulletNum = 1
)

var bulletGlyphs = [...]string{"•", "◦", "▪"}

// numbering tracks numbering instances. Bulleted lists share one instance;
// every ordered list gets its own so that it restarts at its start value.
type numbering struct {
	ordered []orderedNum
}

type orderedNum struct {
	id    int
	level int
	start int
}

func (n *numbering) bullets() int {
	return bulletNum
}

// newOrdered registers an ordered list beginning at start on level.
func (n *numbering) newOrdered(level, start int) int {
	id := bulletNum + 1 + len(n.ordered)
	if start < 1 {
		start = 1
	}
	n.ordered = append(n.ordered, orderedNum{id: id, level: level, start: start})
	return id
}

func (n *numbering) part() *markup.Tree {
	tree := wordTree("w:numbering")
	root := tree.Root()

	bullet := el(root, "w:abstractNum", "w:abstractNumId", fmt.Sprint(bulletAbstract))
	val(bullet, "w:multiLevelType", "hybridMultilevel")
	for lvl := 0; lvl < maxListDepth; lvl++ {
		level := el(bullet, "w:lvl", "w:ilvl", fmt.Sprint(lvl))
		val(level, "w:start", "1")
		val(level, "w:numFmt", "bullet")
		val(level, "w:lvlText", bulletGlyphs[lvl%len(bulletGlyphs)])
		val(level, "w:lvlJc", "left")
		el(el(level, "w:pPr"), "w:ind", "w:left", fmt.Sprint(720*(lvl+1)), "w:hanging", "360")
		el(el(level, "w:rPr"), "w:rFonts", "w:ascii", bodyFont, "w:hAnsi", bodyFont, "w:hint", "default")
	}

	decimal := el(root, "w:abstractNum", "w:abstractNumId", fmt.Sprint(decimalAbstract))
	val(decimal, "w:multiLevelType", "hybridMultilevel")
	formats := [...]string{"decimal", "lowerLetter", "lowerRoman"}
	for lvl := 0; lvl < maxListDepth; lvl++ {
		level := el(decimal, "w:lvl", "w:ilvl", fmt.Sprint(lvl))
		val(level, "w:start", "1")
		val(level, "w:numFmt", formats[lvl%len(formats)])
		val(level, "w:lvlText", fmt.Sprintf("%%%d.", lvl+1))
		val(level, "w:lvlJc", "left")
		el(el(level, "w:pPr"), "w:ind", "w:left", fmt.Sprint(720*(lvl+1)), "w:hanging", "360")
	}

	num := el(root, "w:num", "w:numId", fmt.Sprint(bulletNum))
	val(num, "w:abstractNumId", fmt.Sprint(bulletAbstract))

	for _, o := range n.ordered {
		num := el(root, "w:num", "w:numId", fmt.Sprint(o.id))
		val(num, "w:abstractNumId", fmt.Sprint(decimalAbstract))
		override := el(num, "w:lvlOverride", "w:ilvl", fmt.Sprint(o.level))
		val(override, "w:startOverride", fmt.Sprint(o.start))
	}
	return tree
}
