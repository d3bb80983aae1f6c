package markdown

import (
	"fmt"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	mdfmt "github.com/Kunde21/markdownfmt/v3/markdown"
)

// Render emits markdown for doc. The output is passed through markdownfmt
// so that equivalent documents render identically; if formatting fails the
// unformatted text is returned.
func Render(doc *Document) string {
	if doc == nil {
		return ""
	}

	var sb strings.Builder
	writeBlocks(&sb, doc.Blocks, "")
	raw := sb.String()

	formatted, err := markdownfmt.Process("", []byte(raw),
		mdfmt.WithCodeFormatters(mdfmt.GoCodeFormatter))
	if err != nil {
		return raw
	}
	return string(formatted)
}

func writeBlocks(sb *strings.Builder, blocks []Block, indent string) {
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeBlock(sb, b, indent)
	}
}

func writeBlock(sb *strings.Builder, b Block, indent string) {
	switch v := b.(type) {
	case Heading:
		fmt.Fprintf(sb, "%s%s %s\n", indent, strings.Repeat("#", v.Level), renderInlines(v.Inlines))

	case Paragraph:
		for _, line := range strings.Split(renderInlines(v.Inlines), "\n") {
			sb.WriteString(indent + line + "\n")
		}

	case List:
		for i, item := range v.Items {
			marker := "- "
			if v.Ordered {
				marker = fmt.Sprintf("%d. ", v.Start+i)
			}
			var inner strings.Builder
			writeBlocks(&inner, item.Blocks, "")
			lines := strings.Split(strings.TrimRight(inner.String(), "\n"), "\n")
			pad := strings.Repeat(" ", len(marker))
			for j, line := range lines {
				switch {
				case j == 0:
					sb.WriteString(indent + marker + line + "\n")
				case line == "":
					sb.WriteString("\n")
				default:
					sb.WriteString(indent + pad + line + "\n")
				}
			}
		}

	case CodeBlock:
		fence := "```"
		for strings.Contains(v.Code, fence) {
			fence += "`"
		}
		sb.WriteString(indent + fence + v.Language + "\n")
		for _, line := range strings.Split(v.Code, "\n") {
			sb.WriteString(indent + line + "\n")
		}
		sb.WriteString(indent + fence + "\n")

	case Quote:
		var inner strings.Builder
		writeBlocks(&inner, v.Blocks, "")
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			sb.WriteString(strings.TrimRight(indent+"> "+line, " ") + "\n")
		}

	case Table:
		writeTable(sb, v, indent)

	case Rule:
		sb.WriteString(indent + "---\n")

	case MathBlock:
		sb.WriteString(indent + "$$\n" + indent + v.TeX + "\n" + indent + "$$\n")
	}
}

func writeTable(sb *strings.Builder, t Table, indent string) {
	cols := t.Columns()
	if cols == 0 {
		return
	}

	row := func(cells []Cell) {
		sb.WriteString(indent + "|")
		for i := 0; i < cols; i++ {
			text := ""
			if i < len(cells) {
				text = strings.ReplaceAll(renderInlines(cells[i].Inlines), "|", `\|`)
			}
			sb.WriteString(" " + text + " |")
		}
		sb.WriteString("\n")
	}

	row(t.Header)
	sb.WriteString(indent + "|")
	for i := 0; i < cols; i++ {
		align := AlignNone
		if i < len(t.Align) {
			align = t.Align[i]
		}
		switch align {
		case AlignLeft:
			sb.WriteString(" :--- |")
		case AlignCenter:
			sb.WriteString(" :---: |")
		case AlignRight:
			sb.WriteString(" ---: |")
		default:
			sb.WriteString(" --- |")
		}
	}
	sb.WriteString("\n")
	for _, r := range t.Rows {
		row(r)
	}
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func renderInlines(inlines []Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		if in.Break {
			sb.WriteString("\\\n")
			continue
		}
		sb.WriteString(renderInline(in))
	}
	return sb.String()
}

func renderInline(in Inline) string {
	var text string
	switch {
	case in.Math:
		return "$" + in.Text + "$"
	case in.Code:
		fence := "`"
		for strings.Contains(in.Text, fence) {
			fence += "`"
		}
		pad := ""
		if strings.HasPrefix(in.Text, "`") || strings.HasSuffix(in.Text, "`") {
			pad = " "
		}
		text = fence + pad + in.Text + pad + fence
	default:
		text = inlineEscaper.Replace(in.Text)
	}

	// Emphasis markers cannot wrap leading or trailing spaces.
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	if in.Strike {
		core = "~~" + core + "~~"
	}
	if in.Italic {
		core = "*" + core + "*"
	}
	if in.Bold {
		core = "**" + core + "**"
	}
	if in.Href != "" {
		core = "[" + core + "](" + in.Href + ")"
	}
	return lead + core + trail
}
