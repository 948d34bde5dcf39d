package outline

import (
	"bytes"
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docnav/internal/navtree"
)

// PDFImporter turns the bookmark outline of a PDF into nodes. Bookmark depth
// is the heading level; anchors are derived from bookmark titles.
type PDFImporter struct{}

func (p *PDFImporter) Import(r io.Reader, filename string) (*navtree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	b := newOutlineBuilder(stem(filename), PageFor(filename))
	addBookmarks(b, reader.Outline().Child, 1)
	return b.tree(), nil
}

func addBookmarks(b *outlineBuilder, items []pdflib.Outline, level int) {
	for _, item := range items {
		b.add(level, item.Title, "")
		addBookmarks(b, item.Child, level+1)
	}
}
