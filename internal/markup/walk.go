package markup

import (
	"strings"

	"github.com/beevik/etree"
)

// Action tells Walk whether to enter an element's children.
type Action int

const (
	// Descend visits the element's children.
	Descend Action = iota
	// Skip leaves the element's subtree unvisited.
	Skip
)

// Visitor receives the content tokens of a tree in document order.
type Visitor interface {
	Element(el *etree.Element) Action
	Text(cd *etree.CharData)
}

// VisitorFuncs adapts plain functions to a Visitor. Nil fields descend
// into every element and ignore text.
type VisitorFuncs struct {
	OnElement func(el *etree.Element) Action
	OnText    func(cd *etree.CharData)
}

func (v VisitorFuncs) Element(el *etree.Element) Action {
	if v.OnElement == nil {
		return Descend
	}
	return v.OnElement(el)
}

func (v VisitorFuncs) Text(cd *etree.CharData) {
	if v.OnText != nil {
		v.OnText(cd)
	}
}

// Walk visits the children of el depth first. Comments, processing
// instructions and directives carry no content and are not reported.
func Walk(el *etree.Element, v Visitor) {
	if el == nil {
		return
	}
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if v.Element(t) == Descend {
				Walk(t, v)
			}
		case *etree.CharData:
			v.Text(t)
		case *etree.Comment, *etree.ProcInst, *etree.Directive:
		}
	}
}

// Name returns the prefixed tag name, e.g. "w:p".
func Name(el *etree.Element) string {
	return el.FullTag()
}

// Is reports whether el has one of the prefixed names.
func Is(el *etree.Element, names ...string) bool {
	full := el.FullTag()
	for _, n := range names {
		if full == n {
			return true
		}
	}
	return false
}

// Attr returns the value of a prefixed attribute, or "".
func Attr(el *etree.Element, key string) string {
	return el.SelectAttrValue(key, "")
}

// Text returns all character data below el, in document order.
func Text(el *etree.Element) string {
	var sb strings.Builder
	Walk(el, VisitorFuncs{OnText: func(cd *etree.CharData) {
		sb.WriteString(cd.Data)
	}})
	return sb.String()
}

// HasAncestor reports whether any ancestor of el has one of the names.
func HasAncestor(el *etree.Element, names ...string) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if Is(p, names...) {
			return true
		}
	}
	return false
}
