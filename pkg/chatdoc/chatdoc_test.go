package chatdoc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/translator"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func sample() []Message {
	return []Message{
		{Role: "user", Content: Text("How do I list files?")},
		{Role: "assistant", Content: Text("Use `ls`:\n\n```sh\nls -la\n```\n\n- one\n- two")},
	}
}

func bodyText(t *testing.T, data []byte) string {
	t.Helper()
	pkg, err := container.Open(data)
	require.NoError(t, err)
	raw, err := pkg.Part("word/document.xml")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	var sb strings.Builder
	for _, el := range doc.FindElements("//w:t") {
		sb.WriteString(el.Text())
	}
	return sb.String()
}

func TestBuildDocument(t *testing.T) {
	data, err := BuildDocument(sample(), Options{Author: "Ada", Now: now})
	require.NoError(t, err)
	require.NoError(t, Validate(data))

	text := bodyText(t, data)
	assert.Contains(t, text, "How do I list files?")
	assert.Contains(t, text, "ls -la")
	assert.Contains(t, text, "Ada")
}

func TestBuildDocumentEmptyMessages(t *testing.T) {
	data, err := BuildDocument([]Message{{Role: "user"}, {}}, Options{Now: now})
	require.NoError(t, err)
	assert.NoError(t, Validate(data))

	data, err = BuildDocument(nil, Options{Now: now})
	require.NoError(t, err)
	assert.NoError(t, Validate(data))
}

func TestRenderPaginated(t *testing.T) {
	data, err := RenderPaginated(sample(), Options{Title: "Files", Now: now, PageSize: "letter"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportMarkdown(t *testing.T) {
	data, err := ExportMarkdown(sample(), Options{})
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "# How do I list files?"))
	assert.Contains(t, out, "## User")
	assert.Contains(t, out, "## Assistant")
	assert.Contains(t, out, "ls -la")
}

func upper(_ context.Context, texts []string, _ translation.Hints) ([]string, error) {
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = strings.ToUpper(s)
	}
	return out, nil
}

func TestTranslatePackage(t *testing.T) {
	data, err := BuildDocument(sample(), Options{Now: now})
	require.NoError(t, err)

	out, err := TranslatePackage(context.Background(), data, upper, DefaultTranslateOptions())
	require.NoError(t, err)
	require.NoError(t, Validate(out))

	text := bodyText(t, out)
	assert.Contains(t, text, "HOW DO I LIST FILES?")
	assert.Contains(t, text, "LS -LA")
	assert.NotContains(t, text, "How do I")
}

func TestTranslatePackagePartial(t *testing.T) {
	data, err := BuildDocument(sample(), Options{Now: now})
	require.NoError(t, err)

	calls := 0
	flaky := func(ctx context.Context, texts []string, hints translation.Hints) ([]string, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("provider down")
		}
		return upper(ctx, texts, hints)
	}

	opts := DefaultTranslateOptions()
	opts.BatchSize = 2
	out, err := TranslatePackage(context.Background(), data, flaky, opts)
	require.Error(t, err)
	assert.True(t, translator.IsPartial(err))
	require.NotNil(t, out)
	assert.NoError(t, Validate(out))
}

func TestTranslatePackageCorrupt(t *testing.T) {
	out, err := TranslatePackage(context.Background(), []byte("not a zip"), upper, DefaultTranslateOptions())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, container.ErrCorruptContainer)
}

func TestDefaultTranslateOptions(t *testing.T) {
	opts := DefaultTranslateOptions()
	assert.Equal(t, 50, opts.BatchSize)
	assert.True(t, opts.IncludeHeaders)
	assert.True(t, opts.IncludeFootnotes)
	assert.False(t, opts.IncludeComments)
	assert.Equal(t, 1, opts.Concurrency)
}
