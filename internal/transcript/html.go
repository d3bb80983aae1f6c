package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRun   = regexp.MustCompile(`[ \t\r\n]+`)
)

// HTMLToMarkdown converts an HTML fragment, as produced by chat front ends,
// into markdown. Unknown elements contribute their text. Input that cannot
// be parsed is returned unchanged.
func HTMLToMarkdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	c := &htmlConverter{}
	c.blocks(doc.Find("body").Contents())
	return c.String()
}

type htmlConverter struct {
	sb strings.Builder
}

func (c *htmlConverter) String() string {
	return strings.TrimSpace(blankLines.ReplaceAllString(c.sb.String(), "\n\n"))
}

func (c *htmlConverter) blocks(sel *goquery.Selection) {
	var inline strings.Builder
	flush := func() {
		text := strings.TrimSpace(inline.String())
		inline.Reset()
		if text != "" {
			c.para(text)
		}
	}

	sel.Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node.Type == html.TextNode {
			inline.WriteString(spaceRun.ReplaceAllString(node.Data, " "))
			return
		}
		if node.Type != html.ElementNode {
			return
		}

		switch name := goquery.NodeName(s); name {
		case "script", "style", "noscript", "svg":
		case "p", "div", "section", "article", "header", "footer", "main":
			flush()
			c.blocks(s.Contents())
		case "h1", "h2", "h3", "h4", "h5", "h6":
			flush()
			level := int(name[1] - '0')
			c.para(strings.Repeat("#", level)+" "+strings.TrimSpace(inlineMarkdown(s.Contents())))
		case "pre":
			flush()
			lang := ""
			code := s.Find("code").First()
			if class, ok := code.Attr("class"); ok {
				for _, cls := range strings.Fields(class) {
					if strings.HasPrefix(cls, "language-") {
						lang = strings.TrimPrefix(cls, "language-")
					}
				}
			}
			body := strings.TrimRight(s.Text(), "\n")
			fence := "```"
			for strings.Contains(body, fence) {
				fence += "`"
			}
			c.para(fence+lang+"\n"+body+"\n"+fence)
		case "ul", "ol":
			flush()
			c.list(s, name == "ol")
		case "blockquote":
			flush()
			sub := &htmlConverter{}
			sub.blocks(s.Contents())
			var quoted []string
			for _, line := range strings.Split(sub.String(), "\n") {
				quoted = append(quoted, strings.TrimRight("> "+line, " "))
			}
			c.para(strings.Join(quoted, "\n"))
		case "hr":
			flush()
			c.para("---")
		case "table":
			flush()
			c.table(s)
		default:
			inline.WriteString(inlineMarkdown(s))
		}
	})
	flush()
}

func (c *htmlConverter) para(text string) {
	c.sb.WriteString(text + "\n\n")
}

func (c *htmlConverter) list(s *goquery.Selection, ordered bool) {
	n := 1
	if start, ok := s.Attr("start"); ok {
		fmt.Sscanf(start, "%d", &n)
	}
	s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}

		sub := &htmlConverter{}
		sub.blocks(li.Contents())
		pad := strings.Repeat(" ", len(marker))
		for i, line := range strings.Split(sub.String(), "\n") {
			switch {
			case i == 0:
				c.sb.WriteString(marker + line + "\n")
			case line == "":
				c.sb.WriteString("\n")
			default:
				c.sb.WriteString(pad + line + "\n")
			}
		}
	})
	c.sb.WriteString("\n")
}

func (c *htmlConverter) table(s *goquery.Selection) {
	var rows [][]string
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(inlineMarkdown(cell.Contents()))
			cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	line := func(cells []string) string {
		out := "|"
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			out += " " + cell + " |"
		}
		return out
	}

	lines := []string{line(rows[0]), "|" + strings.Repeat(" --- |", cols)}
	for _, r := range rows[1:] {
		lines = append(lines, line(r))
	}
	c.para(strings.Join(lines, "\n"))
}

// inlineMarkdown renders phrasing content.
func inlineMarkdown(sel *goquery.Selection) string {
	var sb strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		switch node.Type {
		case html.TextNode:
			sb.WriteString(spaceRun.ReplaceAllString(node.Data, " "))
			return
		case html.ElementNode:
		default:
			return
		}

		inner := func() string { return inlineMarkdown(s.Contents()) }
		switch goquery.NodeName(s) {
		case "strong", "b":
			sb.WriteString(wrap(inner(), "**"))
		case "em", "i":
			sb.WriteString(wrap(inner(), "*"))
		case "del", "s", "strike":
			sb.WriteString(wrap(inner(), "~~"))
		case "code":
			sb.WriteString("`" + s.Text() + "`")
		case "a":
			href, _ := s.Attr("href")
			text := inner()
			if href == "" {
				sb.WriteString(text)
			} else {
				sb.WriteString("[" + text + "](" + href + ")")
			}
		case "br":
			sb.WriteString("\\\n")
		case "img":
			alt, _ := s.Attr("alt")
			sb.WriteString(alt)
		case "script", "style":
		default:
			sb.WriteString(inner())
		}
	})
	return sb.String()
}

func wrap(text, marker string) string {
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]
	return lead + marker + core + marker + trail
}
