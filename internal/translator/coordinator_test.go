package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/document"
	"github.com/nerdneilsfield/chatdoc/internal/docx"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	documentPart = "word/document.xml"
	headerPart   = "word/header1.xml"
	wordNS       = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
)

// fixture builds a minimal package with the given body and, if header is
// not empty, a header part.
func fixture(t *testing.T, body, header string) []byte {
	t.Helper()
	pkg := container.New()

	ct := container.NewContentTypes()
	ct.SetOverride(documentPart, "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")

	rels := container.NewRelationships()
	rels.Add(container.RelTypeOfficeDocument, documentPart, false)
	pkg.SetPart(container.RelsPathFor(""), mustMarshal(t, rels.Marshal))

	pkg.SetPart(documentPart, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<w:document `+wordNS+`><w:body>`+body+`</w:body></w:document>`))

	if header != "" {
		ct.SetOverride(headerPart, "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml")
		docRels := container.NewRelationships()
		docRels.Add(container.RelTypeHeader, "header1.xml", false)
		pkg.SetPart(container.RelsPathFor(documentPart), mustMarshal(t, docRels.Marshal))
		pkg.SetPart(headerPart, []byte(`<w:hdr `+wordNS+`>`+header+`</w:hdr>`))
	}

	pkg.SetPart(container.ContentTypesPart, mustMarshal(t, ct.Marshal))
	data, err := pkg.Serialize()
	require.NoError(t, err)
	return data
}

func mustMarshal(t *testing.T, fn func() ([]byte, error)) []byte {
	t.Helper()
	data, err := fn()
	require.NoError(t, err)
	return data
}

func para(texts ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, text := range texts {
		fmt.Fprintf(&sb, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, text)
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

// units returns the translation units of every body block.
func units(t *testing.T, data []byte, part string) []string {
	t.Helper()
	pkg, err := container.Open(data)
	require.NoError(t, err)
	raw, err := pkg.Part(part)
	require.NoError(t, err)
	tree, err := markup.Decode(raw)
	require.NoError(t, err)

	var out []string
	for _, b := range document.ExtractBlocks(tree, part) {
		out = append(out, document.Collect(b).Unit())
	}
	return out
}

func upper(_ context.Context, texts []string, _ translation.Hints) ([]string, error) {
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = strings.ToUpper(s)
	}
	return out, nil
}

func TestTranslateHelloWorld(t *testing.T) {
	data := fixture(t, para("Hello ", "world"), "")

	fn := func(_ context.Context, texts []string, _ translation.Hints) ([]string, error) {
		assert.Equal(t, []string{"Hello world"}, texts)
		return []string{"Bonjour le monde"}, nil
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, DefaultOptions())
	require.NoError(t, err)

	pkg, err := container.Open(res.Data)
	require.NoError(t, err)
	raw, err := pkg.Part(documentPart)
	require.NoError(t, err)
	tree, err := markup.Decode(raw)
	require.NoError(t, err)

	blocks := document.ExtractBlocks(tree, documentPart)
	require.Len(t, blocks, 1)
	var got []string
	for _, n := range document.Collect(blocks[0]).Nodes() {
		got = append(got, n.Text())
	}
	assert.Equal(t, []string{"Bonjour l", "e monde"}, got)

	assert.Equal(t, 1, res.Report.Blocks)
	assert.Equal(t, 1, res.Report.Submitted)
	assert.Equal(t, 1, res.Report.Batches)
	assert.Empty(t, res.Report.Untranslated)
}

func TestTranslateIdentity(t *testing.T) {
	pkg, err := docx.BuildPackage(transcript.Prepare([]transcript.Message{
		{Role: "user", Content: transcript.Text("Hi  there, **see** the table")},
		{Role: "assistant", Content: transcript.Text("# Title\n\n- a\n- b\n\n| x | y |\n|---|---|\n| 1 | 2 |\n\n```\nindented  code\n```")},
	}, transcript.PrepareOptions{}), docx.Options{})
	require.NoError(t, err)

	before := map[string]string{}
	for _, name := range pkg.Names() {
		raw, err := pkg.Part(name)
		require.NoError(t, err)
		before[name] = string(raw)
	}

	report, err := NewCoordinator(nil).Translate(context.Background(), pkg, translation.Identity, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{documentPart, headerPart, "word/footer1.xml"}, report.Parts)
	assert.Greater(t, report.Submitted, 5)

	for _, name := range report.Parts {
		tree, err := markup.Decode([]byte(before[name]))
		require.NoError(t, err)
		want, err := markup.Encode(tree)
		require.NoError(t, err)

		got, err := pkg.Part(name)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
}

func TestTranslateSkipsBlankBlocks(t *testing.T) {
	data := fixture(t, para("one")+"<w:p/>"+para("   ")+para("two"), "")

	var sent []string
	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		sent = append(sent, texts...)
		return upper(ctx, texts, h)
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, sent)
	assert.Equal(t, 4, res.Report.Blocks)
	assert.Equal(t, 2, res.Report.Skipped)
	assert.Equal(t, []string{"ONE", "", "   ", "TWO"}, units(t, res.Data, documentPart))
}

func TestTranslateBatching(t *testing.T) {
	body := ""
	for i := 0; i < 5; i++ {
		body += para(fmt.Sprintf("text %d", i))
	}
	data := fixture(t, body, "")

	hints := translation.Hints{TargetLang: "de", Formality: translation.FormalityMore, MaskProfanity: true, Extra: map[string]string{"k": "v"}}
	var sizes []int
	var progress []string
	opts := DefaultOptions()
	opts.BatchSize = 2
	opts.Hints = hints
	opts.OnBatch = func(done, total int) { progress = append(progress, fmt.Sprintf("%d/%d", done, total)) }

	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		assert.Equal(t, hints, h)
		sizes = append(sizes, len(texts))
		return upper(ctx, texts, h)
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"1/3", "2/3", "3/3"}, progress)
	assert.Equal(t, 3, res.Report.Batches)
	assert.Equal(t, []string{"TEXT 0", "TEXT 1", "TEXT 2", "TEXT 3", "TEXT 4"}, units(t, res.Data, documentPart))
}

func TestTranslateContractViolation(t *testing.T) {
	data := fixture(t, para("a")+para("b")+para("c"), "")

	opts := DefaultOptions()
	opts.BatchSize = 1
	calls := 0
	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		calls++
		if calls == 2 {
			return []string{"X", "Y"}, nil
		}
		return upper(ctx, texts, h)
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, opts)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, IsPartial(err))

	var pe *PartialError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []int{1}, pe.Untranslated)

	var cv *ContractViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, 1, cv.Batch)
	assert.Equal(t, 1, cv.Want)
	assert.Equal(t, 2, cv.Got)
	assert.True(t, errors.Is(err, translation.ErrLengthMismatch))

	assert.Equal(t, []string{"A", "b", "C"}, units(t, res.Data, documentPart))
	assert.Equal(t, 1, res.Report.Failed)
}

func TestTranslateProviderError(t *testing.T) {
	data := fixture(t, para("a")+para("b"), "")
	boom := errors.New("provider unavailable")

	opts := DefaultOptions()
	opts.BatchSize = 1
	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		if texts[0] == "a" {
			return nil, boom
		}
		return upper(ctx, texts, h)
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []int{0}, be.Blocks)
	assert.Equal(t, []string{"a", "B"}, units(t, res.Data, documentPart))
}

func TestTranslateCancellation(t *testing.T) {
	data := fixture(t, para("a")+para("b")+para("c"), "")
	pkg, err := container.Open(data)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := DefaultOptions()
	opts.BatchSize = 1
	calls := 0
	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return upper(ctx, texts, h)
	}

	_, err = NewCoordinator(nil).Translate(ctx, pkg, fn, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, calls)

	out, err := pkg.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b", "c"}, units(t, out, documentPart))

	_, err = NewCoordinator(nil).TranslatePackage(ctx, data, upper, opts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTranslateScope(t *testing.T) {
	data := fixture(t, para("body"), para("header text"))

	tests := []struct {
		name    string
		headers bool
		want    string
	}{
		{"Included", true, "HEADER TEXT"},
		{"Excluded", false, "header text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.IncludeHeaders = tt.headers
			res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, upper, opts)
			require.NoError(t, err)
			assert.Equal(t, []string{"BODY"}, units(t, res.Data, documentPart))
			assert.Equal(t, []string{tt.want}, units(t, res.Data, headerPart))
		})
	}
}

func TestTranslateConcurrent(t *testing.T) {
	body := ""
	var want []string
	for i := 0; i < 40; i++ {
		body += para(fmt.Sprintf("item %d", i), " tail")
		want = append(want, fmt.Sprintf("ITEM %d TAIL", i))
	}
	data := fixture(t, body, "")

	opts := DefaultOptions()
	opts.BatchSize = 3
	opts.Concurrency = 4
	var mu sync.Mutex
	calls := 0
	fn := func(ctx context.Context, texts []string, h translation.Hints) ([]string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return upper(ctx, texts, h)
	}

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, fn, opts)
	require.NoError(t, err)
	assert.Equal(t, 14, calls)
	assert.Equal(t, want, units(t, res.Data, documentPart))
}

func TestTranslateCorruptInput(t *testing.T) {
	_, err := NewCoordinator(nil).TranslatePackage(context.Background(), []byte("not a zip"), upper, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, container.ErrCorruptContainer))
}

func TestTranslateMalformedPart(t *testing.T) {
	pkg, err := container.Open(fixture(t, para("a"), ""))
	require.NoError(t, err)
	pkg.SetPart(documentPart, []byte("<w:document><w:body><<"))
	data, err := pkg.Serialize()
	require.NoError(t, err)

	_, err = NewCoordinator(nil).TranslatePackage(context.Background(), data, upper, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, markup.ErrMalformedMarkup))
}

func TestTranslateMalformedHeaderSkipped(t *testing.T) {
	pkg, err := container.Open(fixture(t, para("hello"), para("header")))
	require.NoError(t, err)
	broken := []byte("<w:hdr><<")
	pkg.SetPart(headerPart, broken)
	data, err := pkg.Serialize()
	require.NoError(t, err)

	res, err := NewCoordinator(nil).TranslatePackage(context.Background(), data, upper, DefaultOptions())
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, IsPartial(err))
	assert.True(t, errors.Is(err, markup.ErrMalformedMarkup))

	var pe *PartialError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{headerPart}, pe.FailedParts)
	assert.Empty(t, pe.Untranslated)

	assert.Equal(t, []string{headerPart}, res.Report.FailedParts)
	assert.Equal(t, []string{documentPart}, res.Report.Parts)
	assert.Equal(t, []string{"HELLO"}, units(t, res.Data, documentPart))

	out, err := container.Open(res.Data)
	require.NoError(t, err)
	raw, err := out.Part(headerPart)
	require.NoError(t, err)
	assert.Equal(t, broken, raw)
}
