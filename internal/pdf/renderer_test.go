package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/nerdneilsfield/chatdoc/internal/markdown"
	"github.com/nerdneilsfield/chatdoc/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

func prepare(messages ...transcript.Message) *transcript.Conversation {
	return transcript.Prepare(messages, transcript.PrepareOptions{})
}

func testEngine(t *testing.T) *engine {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	fonts, err := loadFonts(pdf, Options{})
	require.NoError(t, err)
	return newEngine(pdf, fonts)
}

func TestRenderEmptyConversation(t *testing.T) {
	pdf, err := render(prepare(), Options{Now: fixedTime})
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())
}

func TestRenderBytes(t *testing.T) {
	data, err := Render(prepare(transcript.Message{Role: "user", Content: transcript.Text("Hi")}), Options{Now: fixedTime})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderLongContentPaginates(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		sb.WriteString("This paragraph is long enough to wrap across more than one line on an A4 page with the default margins.\n\n")
	}
	sb.WriteString("```\n")
	for i := 0; i < 80; i++ {
		sb.WriteString("line of code\n")
	}
	sb.WriteString("```\n")

	pdf, err := render(prepare(
		transcript.Message{Role: "user", Content: transcript.Text("Write a lot")},
		transcript.Message{Role: "assistant", Content: transcript.Text(sb.String())},
	), Options{Now: fixedTime})
	require.NoError(t, err)
	assert.Greater(t, pdf.PageCount(), 3)
}

func TestRenderPageSize(t *testing.T) {
	tests := []struct {
		size string
		w, h float64
	}{
		{"", 595.28, 841.89},
		{"letter", 612, 792},
		{"A5", 420.94, 595.28},
		{"bogus", 595.28, 841.89},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			pdf, err := render(prepare(), Options{PageSize: tt.size, Now: fixedTime})
			require.NoError(t, err)
			w, h := pdf.GetPageSize()
			assert.InDelta(t, tt.w, w, 2)
			assert.InDelta(t, tt.h, h, 2)
		})
	}
}

func TestRenderBranding(t *testing.T) {
	pdf, err := render(prepare(transcript.Message{Role: "user", Content: transcript.Text("Hi")}), Options{
		Branding: Branding{Header: "ACME Corp", Footer: "Page {page} of {pages}"},
		Now:      fixedTime,
	})
	require.NoError(t, err)
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	out := buf.String()
	assert.Contains(t, out, "ACME Corp")
	assert.Contains(t, out, "Page 1 of 2")
	assert.Contains(t, out, "Page 2 of 2")
}

func TestRenderMalformedMarkdown(t *testing.T) {
	_, err := render(prepare(
		transcript.Message{Role: "assistant", Content: transcript.Text("**unclosed and [bracket and | a |\n|--|\n| 1 | 2 | 3 |")},
		transcript.Message{},
	), Options{Now: fixedTime})
	require.NoError(t, err)
}

func TestLayoutRespectsWidth(t *testing.T) {
	e := testEngine(t)
	text := "The quick brown fox jumps over the lazy dog and keeps running through the field until nightfall."
	spans := spansFromInlines([]markdown.Inline{
		{Text: text},
		{Text: " bold tail", Bold: true},
		{Text: " " + strings.Repeat("#", 120)},
	}, textStyle{size: baseSize})

	lines := e.layout(spans, 150)
	require.Greater(t, len(lines), 3)

	var words []string
	for _, l := range lines {
		assert.LessOrEqual(t, l.width, 150.0+0.001)
		var sb strings.Builder
		for _, f := range l.frags {
			sb.WriteString(f.text)
		}
		words = append(words, strings.Fields(sb.String())...)
	}
	joined := strings.Join(words, " ")
	assert.True(t, strings.HasPrefix(joined, "The quick brown fox"))
	assert.Equal(t, 120, strings.Count(joined, "#"))
}

func TestLayoutHardBreak(t *testing.T) {
	e := testEngine(t)
	lines := e.layout([]span{
		{text: "one", style: textStyle{size: baseSize}},
		{brk: true},
		{text: "two", style: textStyle{size: baseSize}},
	}, 400)
	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0].frags[0].text)
	assert.Equal(t, "two", lines[1].frags[0].text)
}

func TestCursorNeverCrossesBottom(t *testing.T) {
	e := testEngine(t)
	e.newPage()

	lh := baseSize * lineFactor
	for i := 0; i < 200; i++ {
		e.emit(e.layout([]span{{text: "line", style: textStyle{size: baseSize}}}, 200), frame{x: e.left, width: 200}, lh, markdown.AlignLeft)
		assert.LessOrEqual(t, e.y, e.bottom)
	}
	assert.Greater(t, e.pages, 1)
	assert.Equal(t, e.pages, e.pdf.PageCount())
}

func TestWrapColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		cols int
		want []string
	}{
		{"Fits", "abc", 5, []string{"abc"}},
		{"Exact", "abcdef", 3, []string{"abc", "def"}},
		{"Remainder", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"Wide", "日本語です", 4, []string{"日本", "語で", "す"}},
		{"Empty", "", 3, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapColumns(tt.in, tt.cols))
		})
	}
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "    x", expandTabs("\tx"))
	assert.Equal(t, "ab  x", expandTabs("ab\tx"))
	assert.Equal(t, "plain", expandTabs("plain"))
}
