package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Markdown writes the tree as a nested Markdown list of links. Lazy nodes are
// written without children; materialize the tree first to include them.
func Markdown(root *navtree.Node) string {
	var sb strings.Builder
	for e := range navtree.Flatten(root) {
		sb.WriteString(strings.Repeat("  ", e.Depth))
		sb.WriteString("- ")
		if e.Node.Target == "" {
			sb.WriteString(escapeBlock(escapeText(e.Node.Title)))
		} else {
			fmt.Fprintf(&sb, "[%s](<%s>)", escapeText(e.Node.Title), escapeDest(navtree.Href(e.Node.Target)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Sidebar renders the tree as an HTML navigation panel. External links open
// in a new window; the sync toggle carries both labels so a page script can
// switch between them.
func Sidebar(root *navtree.Node, labels navtree.ToggleLabels) ([]byte, error) {
	external := make(map[string]bool)
	for e := range navtree.Flatten(root) {
		if e.Node.Link() == navtree.External {
			external[navtree.Href(e.Node.Target)] = true
		}
	}

	md := goldmark.New(goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(externalLinks(external), 100)),
	))

	var buf bytes.Buffer
	buf.WriteString(`<nav class="docnav">` + "\n")
	fmt.Fprintf(&buf, `<a class="docnav-sync" data-on="%s" data-off="%s">%s</a>`+"\n",
		html.EscapeString(labels.On), html.EscapeString(labels.Off), html.EscapeString(labels.On))
	if err := md.Convert([]byte(Markdown(root)), &buf); err != nil {
		return nil, fmt.Errorf("render sidebar: %w", err)
	}
	buf.WriteString("</nav>\n")
	return buf.Bytes(), nil
}

type externalLinks map[string]bool

func (x externalLinks) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok && x[string(link.Destination)] {
			link.SetAttributeString("target", []byte("_blank"))
			link.SetAttributeString("rel", []byte("noopener"))
		}
		return ast.WalkContinue, nil
	})
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`", `<`, `\<`, `>`, `\>`, `&`, `\&`,
)

func escapeText(s string) string { return textEscaper.Replace(s) }

// escapeBlock neutralizes a leading marker that would otherwise open a
// heading, thematic break, fence or nested list inside a list item.
func escapeBlock(s string) string {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '-', '+', '=', '~':
		return `\` + s
	}
	digits := 0
	for digits < len(s) && digits < 9 && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(s) && (s[digits] == '.' || s[digits] == ')') {
		return s[:digits] + `\` + s[digits:]
	}
	return s
}

var destEscaper = strings.NewReplacer(`<`, `%3C`, `>`, `%3E`, "\n", "")

func escapeDest(s string) string { return destEscaper.Replace(s) }
