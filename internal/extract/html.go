package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable content of a web page.
type Document struct {
	Title string
	Text  string
}

// FromHTML extracts visible text from an HTML page. Script, style, nav and
// footer subtrees are dropped; block elements start new lines and
// whitespace runs collapse to single spaces.
func FromHTML(input string) Document {
	node, err := html.Parse(strings.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}
	var b strings.Builder
	collectText(&b, node, false)
	return Document{
		Title: strings.TrimSpace(findTitle(node)),
		Text:  normalizeWhitespace(b.String()),
	}
}

func findTitle(n *html.Node) string {
	t := findFirst(n, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "nav", "footer":
			return
		case "pre":
			inPre = true
		case "br", "hr", "p", "div", "section", "li", "tr",
			"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "title":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ").Replace(data)
		}
		b.WriteString(data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "div", "section", "li", "tr", "pre",
			"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "title":
			b.WriteString("\n")
		}
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// at most one consecutive blank
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(strings.Fields(trimmed), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
