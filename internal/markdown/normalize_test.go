package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInlineStyles(t *testing.T) {
	doc := Normalize("**Bold** and *italic*")
	require.Len(t, doc.Blocks, 1)

	para, ok := doc.Blocks[0].(Paragraph)
	require.True(t, ok)
	assert.Equal(t, []Inline{
		{Text: "Bold", Bold: true},
		{Text: " and "},
		{Text: "italic", Italic: true},
	}, para.Inlines)
}

func TestNormalizeHeadings(t *testing.T) {
	doc := Normalize("# One\n\n## Two\n\n###### Six")
	require.Len(t, doc.Blocks, 3)

	for i, level := range []int{1, 2, 6} {
		h, ok := doc.Blocks[i].(Heading)
		require.True(t, ok, "block %d", i)
		assert.Equal(t, level, h.Level)
	}
	assert.Equal(t, "Six", InlineText(doc.Blocks[2].(Heading).Inlines))
}

func TestNormalizeCode(t *testing.T) {
	t.Run("Fenced", func(t *testing.T) {
		doc := Normalize("```python\nprint('hi')\nx = 1\n```")
		require.Len(t, doc.Blocks, 1)
		assert.Equal(t, CodeBlock{Language: "python", Code: "print('hi')\nx = 1"}, doc.Blocks[0])
	})

	t.Run("Inline", func(t *testing.T) {
		doc := Normalize("use `go test` here")
		para := doc.Blocks[0].(Paragraph)
		assert.Equal(t, []Inline{
			{Text: "use "},
			{Text: "go test", Code: true},
			{Text: " here"},
		}, para.Inlines)
	})
}

func TestNormalizeLists(t *testing.T) {
	doc := Normalize("- a\n  - nested\n- b\n\n3. three\n4. four\n")
	require.Len(t, doc.Blocks, 2)

	bullets := doc.Blocks[0].(List)
	assert.False(t, bullets.Ordered)
	require.Len(t, bullets.Items, 2)
	require.Len(t, bullets.Items[0].Blocks, 2)
	nested, ok := bullets.Items[0].Blocks[1].(List)
	require.True(t, ok)
	assert.Equal(t, "nested", InlineText(nested.Items[0].Blocks[0].(Paragraph).Inlines))

	ordered := doc.Blocks[1].(List)
	assert.True(t, ordered.Ordered)
	assert.Equal(t, 3, ordered.Start)
	assert.Len(t, ordered.Items, 2)
}

func TestNormalizeQuoteRuleTable(t *testing.T) {
	doc := Normalize("> quoted\n\n---\n\n| a | b |\n|:--|--:|\n| 1 | 2 |\n")
	require.Len(t, doc.Blocks, 3)

	quote := doc.Blocks[0].(Quote)
	require.Len(t, quote.Blocks, 1)
	assert.Equal(t, "quoted", InlineText(quote.Blocks[0].(Paragraph).Inlines))

	assert.Equal(t, Rule{}, doc.Blocks[1])

	table := doc.Blocks[2].(Table)
	assert.Equal(t, 2, table.Columns())
	assert.Equal(t, []Alignment{AlignLeft, AlignRight}, table.Align)
	assert.Equal(t, "a", InlineText(table.Header[0].Inlines))
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2", InlineText(table.Rows[0][1].Inlines))
}

func TestNormalizeLinksAndBreaks(t *testing.T) {
	doc := Normalize("see [docs](https://example.com) now  \nnext line")
	para := doc.Blocks[0].(Paragraph)

	assert.Contains(t, para.Inlines, Inline{Text: "docs", Href: "https://example.com"})
	assert.Contains(t, para.Inlines, Inline{Break: true})
	text := InlineText(para.Inlines)
	assert.True(t, strings.HasPrefix(text, "see docs now"), text)
	assert.True(t, strings.HasSuffix(text, "\nnext line"), text)
}

func TestNormalizeEscapes(t *testing.T) {
	doc := Normalize(`1 \* 2 &amp; 3`)
	assert.Equal(t, "1 * 2 & 3", InlineText(doc.Blocks[0].(Paragraph).Inlines))
}

func TestNormalizeDegrades(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"UnclosedBold", "**unclosed", "**unclosed"},
		{"StrayBracket", "[not a link", "[not a link"},
		{"Currency", "costs $5 and $10", "costs $5 and $10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(tt.input)
			require.Len(t, doc.Blocks, 1)
			para, ok := doc.Blocks[0].(Paragraph)
			require.True(t, ok)
			assert.Equal(t, tt.want, InlineText(para.Inlines))
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize("").Blocks)
	assert.Empty(t, Normalize("   \n\n").Blocks)
}

func TestNormalizeFrontMatter(t *testing.T) {
	n := NewNormalizer(Options{FrontMatter: true})
	doc := n.Normalize("---\ntitle: Release plan\n---\n\nBody text")

	assert.Equal(t, "Release plan", doc.Meta["title"])
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "Body text", InlineText(doc.Blocks[0].(Paragraph).Inlines))
}

func TestNormalizeFrontMatterFallback(t *testing.T) {
	n := NewNormalizer(Options{FrontMatter: true})

	tests := []struct {
		name string
		src  string
	}{
		{"Unclosed prose", "---\nHello there, how are you?"},
		{"Unclosed mapping", "---\nkey: value"},
		{"Empty block", "---\n---\nBody"},
		{"Not a mapping", "---\n- a\n- b\n---\n\nBody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := n.Normalize(tt.src)
			assert.Nil(t, doc.Meta)
			assert.Equal(t, Normalize(tt.src).Blocks, doc.Blocks)
		})
	}
}

func TestNormalizeInlineMath(t *testing.T) {
	n := NewNormalizer(Options{Math: true})
	doc := n.Normalize("area is $r^2$ here")
	para := doc.Blocks[0].(Paragraph)

	var math []Inline
	for _, in := range para.Inlines {
		if in.Math {
			math = append(math, in)
		}
	}
	require.Len(t, math, 1)
	assert.Equal(t, "r^2", math[0].Text)
}

func TestRenderRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"# Title",
		"",
		"**Bold** and *italic* with `code`.",
		"",
		"- first",
		"- second",
		"",
		"> a quote",
		"",
		"```python",
		"print('hi')",
		"```",
	}, "\n")

	doc := Normalize(src)
	again := Normalize(Render(doc))
	assert.Equal(t, doc.Blocks, again.Blocks)
}

func TestWriteTable(t *testing.T) {
	table := Table{
		Header: []Cell{{Inlines: []Inline{{Text: "a"}}}, {Inlines: []Inline{{Text: "b"}}}},
		Rows:   [][]Cell{{{Inlines: []Inline{{Text: "x|y"}}}}},
		Align:  []Alignment{AlignNone, AlignCenter},
	}

	var sb strings.Builder
	writeTable(&sb, table, "")
	assert.Equal(t, "| a | b |\n| --- | :---: |\n| x\\|y |  |\n", sb.String())
}

func TestRenderEscapesLiteralMarkers(t *testing.T) {
	doc := &Document{Blocks: []Block{Paragraph{Inlines: []Inline{{Text: "2 * 3 = 6"}}}}}
	again := Normalize(Render(doc))
	assert.Equal(t, "2 * 3 = 6", InlineText(again.Blocks[0].(Paragraph).Inlines))
}
