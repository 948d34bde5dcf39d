package outline

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Importer builds a navigation tree from the heading structure of a
// document. The root node is the document itself; each heading becomes a
// node whose target is the document page plus the heading anchor.
type Importer interface {
	Import(r io.Reader, filename string) (*navtree.Node, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".txt":      true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	case ".txt":
		return &TextImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension can be imported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// PageFor returns the page a source file is published as. Markdown, DOCX and
// text sources become .html pages; HTML and PDF keep their name.
func PageFor(filename string) string {
	name := path.Base(filepath.ToSlash(filename))
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".md", ".markdown", ".docx", ".txt":
		return strings.TrimSuffix(name, ext) + ".html"
	}
	return name
}

func stem(filename string) string {
	name := path.Base(filepath.ToSlash(filename))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// outlineBuilder nests headings under the nearest shallower heading.
type outlineBuilder struct {
	page  string
	root  *draft
	stack []*draft
	ids   map[string]int
}

type draft struct {
	title  string
	target string
	level  int
	kids   []*draft
}

func newOutlineBuilder(title, page string) *outlineBuilder {
	root := &draft{title: title, target: page}
	return &outlineBuilder{
		page:  page,
		root:  root,
		stack: []*draft{root},
		ids:   make(map[string]int),
	}
}

// add appends a heading. An empty anchor is derived from the title.
func (b *outlineBuilder) add(level int, title, anchor string) {
	title = strings.TrimSpace(title)
	if title == "" || level <= 0 {
		return
	}
	if anchor == "" {
		anchor = b.uniqueID(Slug(title))
	} else {
		b.ids[anchor]++
	}
	d := &draft{title: title, level: level, target: b.page}
	if anchor != "" {
		d.target = b.page + "#" + anchor
	}

	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1]
	parent.kids = append(parent.kids, d)
	b.stack = append(b.stack, d)
}

func (b *outlineBuilder) uniqueID(id string) string {
	if id == "" {
		return ""
	}
	n := b.ids[id]
	b.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s-%d", id, n)
}

func (b *outlineBuilder) tree() *navtree.Node {
	return b.root.node()
}

func (d *draft) node() *navtree.Node {
	kids := make([]*navtree.Node, len(d.kids))
	for i, k := range d.kids {
		kids[i] = k.node()
	}
	return navtree.New(d.title, d.target, kids...)
}

// Slug lowercases title, keeps letters and digits, and joins words with
// hyphens.
func Slug(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	return sb.String()
}
