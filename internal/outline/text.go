package outline

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

// TextImporter handles plain text. The page has no headings, so the result
// is a single leaf titled by the first non-blank line.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*navtree.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	title := stem(filename)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			title = line
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return navtree.New(title, PageFor(filename)), nil
}
