package markup

import (
	"strings"

	"github.com/beevik/etree"
)

// SetText replaces the text of el. The element is marked space-preserving
// when edge whitespace or repeated spaces would otherwise be collapsed. An
// existing xml:space attribute is dropped only when the text changes to
// empty.
func SetText(el *etree.Element, text string) {
	old := el.Text()
	el.SetText(text)

	attr := el.SelectAttr("xml:space")
	switch {
	case NeedsPreserve(text):
		if attr == nil {
			el.CreateAttr("xml:space", "preserve")
		} else {
			attr.Value = "preserve"
		}
	case attr != nil && text == "" && old != "":
		el.RemoveAttr("xml:space")
	}
}

// NeedsPreserve reports whether s loses whitespace without xml:space.
func NeedsPreserve(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == ' ' || first == '\t' || last == ' ' || last == '\t' || strings.Contains(s, "  ")
}
