package document

import (
	"fmt"

	"github.com/nerdneilsfield/chatdoc/internal/container"
)

// Scope selects which story parts besides the main body are translated.
type Scope struct {
	// Headers includes headers and footers.
	Headers bool
	// Footnotes includes footnotes and endnotes.
	Footnotes bool
	Comments  bool
}

// DefaultScope includes everything except comments.
func DefaultScope() Scope {
	return Scope{Headers: true, Footnotes: true}
}

// PartKind classifies a story part.
type PartKind int

const (
	PartBody PartKind = iota
	PartHeader
	PartFooter
	PartFootnotes
	PartEndnotes
	PartComments
)

func (k PartKind) String() string {
	switch k {
	case PartBody:
		return "body"
	case PartHeader:
		return "header"
	case PartFooter:
		return "footer"
	case PartFootnotes:
		return "footnotes"
	case PartEndnotes:
		return "endnotes"
	case PartComments:
		return "comments"
	default:
		return "unknown"
	}
}

// Part is a story part holding translatable text.
type Part struct {
	Name string
	Kind PartKind
}

type storyRel struct {
	relType string
	kind    PartKind
}

// Parts lists the story parts of pkg selected by scope, main body first,
// then in relationship order. Relationships pointing at missing parts are
// ignored.
func Parts(pkg *container.Package, scope Scope) ([]Part, error) {
	main, err := pkg.MainDocument()
	if err != nil {
		return nil, err
	}
	if !pkg.Has(main) {
		return nil, fmt.Errorf("%w: %s", container.ErrPartNotFound, main)
	}

	parts := []Part{{Name: main, Kind: PartBody}}

	var related []storyRel
	if scope.Headers {
		related = append(related, storyRel{container.RelTypeHeader, PartHeader}, storyRel{container.RelTypeFooter, PartFooter})
	}
	if scope.Footnotes {
		related = append(related, storyRel{container.RelTypeFootnotes, PartFootnotes}, storyRel{container.RelTypeEndnotes, PartEndnotes})
	}
	if scope.Comments {
		related = append(related, storyRel{container.RelTypeComments, PartComments})
	}

	seen := map[string]bool{main: true}
	for _, r := range related {
		names, err := pkg.RelatedParts(main, r.relType)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if seen[name] || !pkg.Has(name) {
				continue
			}
			seen[name] = true
			parts = append(parts, Part{Name: name, Kind: r.kind})
		}
	}
	return parts, nil
}
