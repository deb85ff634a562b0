package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLAdapter extracts the visible text of an HTML letter
type HTMLAdapter struct {
	BaseAdapter
	skipTags  map[string]bool
	blockTags map[string]bool
}

// NewHTMLAdapter creates a new HTML adapter
func NewHTMLAdapter() *HTMLAdapter {
	return &HTMLAdapter{
		skipTags: map[string]bool{
			"head": true, "script": true, "style": true, "noscript": true,
			"iframe": true, "template": true, "svg": true,
		},
		blockTags: map[string]bool{
			"p": true, "div": true, "br": true, "li": true, "tr": true,
			"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
			"section": true, "article": true, "header": true, "footer": true,
			"table": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
		},
	}
}

// Name returns the adapter name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// CanHandle accepts format "html", or sniffs markup when no format is given
func (a *HTMLAdapter) CanHandle(format string, content string) bool {
	switch format {
	case "html", "htm", "text/html":
		return true
	case "":
		trimmed := strings.ToLower(strings.TrimSpace(content))
		return strings.HasPrefix(trimmed, "<!doctype html") ||
			strings.HasPrefix(trimmed, "<html") ||
			(strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "</"))
	}
	return false
}

// Normalize returns the visible text with one line per block element
func (a *HTMLAdapter) Normalize(content string) (string, error) {
	doc, err := a.ParseHTML(content)
	if err != nil {
		return "", err
	}

	root := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	})
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if a.skipTags[n.Data] || a.HasAttribute(n, "hidden") || a.GetAttribute(n, "aria-hidden") == "true" {
				return
			}
			if a.blockTags[n.Data] {
				newline(&buf)
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && a.blockTags[n.Data] {
			newline(&buf)
		}
	}

	walk(root)
	return strings.TrimSpace(buf.String()), nil
}

// newline ends the current line unless it is already empty
func newline(buf *strings.Builder) {
	if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteString("\n")
	}
}
