package container

import (
	"fmt"
	"strings"
)

// ValidationError lists every invariant violation found in a package.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid package: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the package invariants: every part has a media type,
// every relationship manifest parses and belongs to an existing part, and
// every internal relationship target exists.
func Validate(p *Package) error {
	var problems []string

	ct, err := p.ContentTypes()
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	for _, name := range sortedNames(p.Names()) {
		if name == ContentTypesPart {
			continue
		}
		if _, ok := ct.MediaType(name); !ok {
			problems = append(problems, fmt.Sprintf("no media type for %s", name))
		}

		source, isRels := SourceOf(name)
		if !isRels {
			continue
		}
		if source != "" && !p.Has(source) {
			problems = append(problems, fmt.Sprintf("orphaned relationships %s", name))
			continue
		}

		data, _ := p.Part(name)
		rels, err := ParseRelationships(data)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		for _, rel := range rels.Relationships {
			if rel.External() {
				continue
			}
			target := ResolveTarget(source, rel.Target)
			if !p.Has(target) {
				problems = append(problems, fmt.Sprintf("%s: %s targets missing part %s", name, rel.ID, target))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
