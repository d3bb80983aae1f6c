package translation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Glossary holds fixed translations for exact source strings.
type Glossary struct {
	SourceLang   string            `toml:"source_lang"`
	TargetLang   string            `toml:"target_lang"`
	Translations map[string]string `toml:"translations"`
}

func NewGlossary(sourceLang, targetLang string, translations map[string]string) *Glossary {
	return &Glossary{
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		Translations: translations,
	}
}

// LoadGlossary reads a TOML glossary file.
func LoadGlossary(path string) (*Glossary, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file: %w", err)
	}
	return ParseGlossary(content)
}

// ParseGlossary decodes a TOML glossary.
func ParseGlossary(content []byte) (*Glossary, error) {
	g := &Glossary{}
	if err := toml.Unmarshal(content, g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal glossary: %w", err)
	}
	if g.SourceLang == "" || g.TargetLang == "" {
		return nil, fmt.Errorf("glossary is missing source_lang or target_lang")
	}
	return g, nil
}

// Lookup returns the fixed translation of text. Surrounding whitespace is
// ignored for matching and kept in the result.
func (g *Glossary) Lookup(text string) (string, bool) {
	if g == nil || len(g.Translations) == 0 {
		return "", false
	}
	key := strings.TrimSpace(text)
	tr, ok := g.Translations[key]
	if !ok || key == "" {
		return "", false
	}
	start := strings.Index(text, key)
	return text[:start] + tr + text[start+len(key):], true
}

func (g *Glossary) applies(hints Hints) bool {
	if hints.TargetLang != "" && !strings.EqualFold(hints.TargetLang, g.TargetLang) {
		return false
	}
	if hints.SourceLang != "" && !strings.EqualFold(hints.SourceLang, g.SourceLang) {
		return false
	}
	return true
}

// Wrap answers glossary entries locally and sends only the remaining texts
// to fn. A glossary for other languages than the hints name is ignored.
func (g *Glossary) Wrap(fn BatchFunc) BatchFunc {
	return func(ctx context.Context, texts []string, hints Hints) ([]string, error) {
		if g == nil || !g.applies(hints) {
			return fn(ctx, texts, hints)
		}

		out := make([]string, len(texts))
		var pending []string
		var index []int
		for i, text := range texts {
			if tr, ok := g.Lookup(text); ok {
				out[i] = tr
				continue
			}
			pending = append(pending, text)
			index = append(index, i)
		}
		if len(pending) == 0 {
			return out, nil
		}

		translated, err := fn(ctx, pending, hints)
		if err != nil {
			return nil, err
		}
		if len(translated) != len(pending) {
			return nil, fmt.Errorf("%w: sent %d, received %d", ErrLengthMismatch, len(pending), len(translated))
		}
		for j, i := range index {
			out[i] = translated[j]
		}
		return out, nil
	}
}
