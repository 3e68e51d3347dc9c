package browser

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// PageText is the readable content of an HTML document.
type PageText struct {
	Title     string
	Text      string
	Truncated bool
}

// VisibleText parses rawHTML and returns its human-readable text, with runs of
// whitespace collapsed and block elements separated by newlines. Text beyond
// maxLength runes is dropped; maxLength <= 0 means unlimited.
func VisibleText(rawHTML string, maxLength int) (*PageText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{max: maxLength}
	collectText(doc, w)

	return &PageText{
		Title:     extractTitle(doc),
		Text:      strings.TrimSpace(w.b.String()),
		Truncated: w.full,
	}, nil
}

type textWriter struct {
	b       strings.Builder
	n       int
	max     int
	full    bool
	pending bool // a separator is owed before the next word
	newline bool
}

func (w *textWriter) word(s string) {
	if w.full {
		return
	}
	if w.n > 0 && w.pending {
		sep := " "
		if w.newline {
			sep = "\n"
		}
		w.b.WriteString(sep)
		w.n++
	}
	w.pending, w.newline = false, false

	for _, r := range s {
		if w.max > 0 && w.n >= w.max {
			w.full = true
			return
		}
		w.b.WriteRune(r)
		w.n++
	}
}

func (w *textWriter) space() { w.pending = true }

func (w *textWriter) block() {
	w.pending = true
	w.newline = true
}

func collectText(n *html.Node, w *textWriter) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		text := n.Data
		if len(text) > 0 && unicode.IsSpace(rune(text[0])) {
			w.space()
		}
		for _, f := range strings.Fields(text) {
			w.word(f)
			w.space()
		}
		if len(text) > 0 && !unicode.IsSpace(rune(text[len(text)-1])) {
			w.pending = false
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) || tag == "head" || isHidden(n) {
			return
		}
		if isBlockElement(tag) || tag == "br" {
			w.block()
		}
		defer func() {
			if isBlockElement(tag) {
				w.block()
			}
		}()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, w)
	}
}

// isHidden reports inline markers that keep an element out of the rendering.
func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(attr.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "iframe", "embed", "object", "svg":
		return true
	}
	return false
}

func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "hr", "body":
		return true
	}
	return false
}

func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}
