package translation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glossaryTOML = `
source_lang = "en"
target_lang = "fr"

[translations]
"Hello" = "Bonjour"
"Quarterly report" = "Rapport trimestriel"
`

func upper(_ context.Context, texts []string, _ Hints) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func TestParseGlossary(t *testing.T) {
	g, err := ParseGlossary([]byte(glossaryTOML))
	require.NoError(t, err)
	assert.Equal(t, "en", g.SourceLang)
	assert.Equal(t, "fr", g.TargetLang)
	assert.Len(t, g.Translations, 2)

	_, err = ParseGlossary([]byte(`[translations]` + "\n" + `"a" = "b"`))
	assert.Error(t, err)

	_, err = ParseGlossary([]byte(`not = toml = at all`))
	assert.Error(t, err)
}

func TestLoadGlossary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.toml")
	require.NoError(t, os.WriteFile(path, []byte(glossaryTOML), 0o644))

	g, err := LoadGlossary(path)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", g.Translations["Hello"])

	_, err = LoadGlossary(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestGlossaryLookup(t *testing.T) {
	g := NewGlossary("en", "fr", map[string]string{"Hello": "Bonjour"})

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Hello", "Bonjour", true},
		{"  Hello ", "  Bonjour ", true},
		{"Hello world", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		got, ok := g.Lookup(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGlossaryWrap(t *testing.T) {
	g, err := ParseGlossary([]byte(glossaryTOML))
	require.NoError(t, err)

	var sent []string
	fn := g.Wrap(func(ctx context.Context, texts []string, hints Hints) ([]string, error) {
		sent = append(sent, texts...)
		return upper(ctx, texts, hints)
	})

	out, err := fn(context.Background(), []string{"Hello", "other", "Quarterly report", "more"}, Hints{TargetLang: "FR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonjour", "OTHER", "Rapport trimestriel", "MORE"}, out)
	assert.Equal(t, []string{"other", "more"}, sent)

	sent = nil
	out, err = fn(context.Background(), []string{"Hello"}, Hints{TargetLang: "de"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HELLO"}, out)
	assert.Equal(t, []string{"Hello"}, sent)

	sent = nil
	out, err = fn(context.Background(), []string{"Hello"}, Hints{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonjour"}, out)
	assert.Empty(t, sent)
}

func TestGlossaryWrapMismatch(t *testing.T) {
	g := NewGlossary("en", "fr", map[string]string{"Hello": "Bonjour"})
	fn := g.Wrap(func(context.Context, []string, Hints) ([]string, error) {
		return []string{"only one"}, nil
	})

	_, err := fn(context.Background(), []string{"a", "Hello", "b"}, Hints{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestNilGlossaryWrap(t *testing.T) {
	var g *Glossary
	out, err := g.Wrap(upper)(context.Background(), []string{"x"}, Hints{})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, out)
}

func TestIdentity(t *testing.T) {
	in := []string{"a", "b"}
	out, err := Identity(context.Background(), in, Hints{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
	out[0] = "changed"
	assert.Equal(t, "a", in[0])
}
