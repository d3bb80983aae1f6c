// Package markup decodes structured-markup parts into an order-preserving
// tree and encodes them back.
//
// The tree keeps sibling order, attribute order and namespace prefixes
// verbatim, so a part that is decoded and encoded without modification
// is semantically unchanged.
package markup

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ErrMalformedMarkup is returned when a part cannot be parsed.
var ErrMalformedMarkup = errors.New("malformed markup")

// Tree is a decoded markup part.
type Tree struct {
	doc *etree.Document
}

// Decode parses data into a tree.
func Decode(data []byte) (*Tree, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true

	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedMarkup)
	}

	return &Tree{doc: doc}, nil
}

// Encode serializes the tree.
func Encode(t *Tree) ([]byte, error) {
	if t == nil || t.doc == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrMalformedMarkup)
	}
	return t.doc.WriteToBytes()
}

// New creates a tree with a standalone XML declaration and a root element
// declaring the given namespace prefixes in the order given.
func New(rootTag string, namespaces ...Namespace) *Tree {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement(rootTag)
	for _, ns := range namespaces {
		root.CreateAttr("xmlns:"+ns.Prefix, ns.URI)
	}

	return &Tree{doc: doc}
}

// Namespace is a prefix declaration.
type Namespace struct {
	Prefix string
	URI    string
}

// Root returns the root element.
func (t *Tree) Root() *etree.Element {
	return t.doc.Root()
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{doc: t.doc.Copy()}
}
