package navjs

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navtree"
)

// Variable names used by the generator.
const (
	TreeVar    = "NAVTREE"
	IndexVar   = "NAVTREEINDEX"
	SyncOnVar  = "SYNCONMSG"
	SyncOffVar = "SYNCOFFMSG"
)

// DataFile is the conventional name of the document file.
const DataFile = "navtreedata.js"

// ErrMissingVar means a required binding is absent from the script.
var ErrMissingVar = errors.New("missing variable")

// Document is the decoded content of navtreedata.js.
type Document struct {
	Header string
	Tree   *navtree.Node
	Index  navindex.Index
	Labels navtree.ToggleLabels
}

// ParseDocument decodes navtreedata.js. A malformed tree is fatal. Lazy
// markers that cannot be resolved come back as a non-nil error next to a
// usable document; check with errors.Is(err, navtree.ErrMalformedTree).
func ParseDocument(src []byte) (*Document, error) {
	script, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", navtree.ErrMalformedTree, err)
	}

	rawTree, ok := script.Lookup(TreeVar)
	if !ok {
		return nil, fmt.Errorf("%w: %w %s", navtree.ErrMalformedTree, ErrMissingVar, TreeVar)
	}
	tree, treeErr := navtree.Load(rawTree)
	if tree == nil {
		return nil, treeErr
	}

	doc := &Document{
		Header: script.Header,
		Tree:   tree,
		Labels: navtree.DefaultToggleLabels,
	}

	if rawIndex, ok := script.Lookup(IndexVar); ok {
		idx, err := navindex.Parse(rawIndex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", IndexVar, err)
		}
		doc.Index = idx
	}
	if on, ok := script.String(SyncOnVar); ok {
		doc.Labels.On = on
	}
	if off, ok := script.String(SyncOffVar); ok {
		doc.Labels.Off = off
	}
	return doc, treeErr
}

// Marshal writes the document in the generator's layout.
func (d *Document) Marshal() ([]byte, error) {
	tree, err := navtree.Marshal(d.Tree)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if d.Header != "" {
		buf.WriteString(d.Header)
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "var %s =\n", TreeVar)
	buf.Write(tree)
	buf.WriteString(";\n\n")
	fmt.Fprintf(&buf, "var %s =\n", IndexVar)
	buf.Write(d.Index.Marshal())
	buf.WriteString(";\n\n")
	fmt.Fprintf(&buf, "var %s = %s;\n", SyncOnVar, singleQuote(d.Labels.On))
	fmt.Fprintf(&buf, "var %s = %s;\n", SyncOffVar, singleQuote(d.Labels.Off))
	return buf.Bytes(), nil
}

// FragmentFile is the file name that holds the fragment key.
func FragmentFile(key string) string {
	return key + ".js"
}

// ParseFragment decodes a fragment file and returns the children bound to
// key. path is the breadcrumb of the lazy node, used in errors.
func ParseFragment(src []byte, key string, path ...string) ([]*navtree.Node, error) {
	script, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: fragment %s: %v", navtree.ErrMalformedTree, key, err)
	}
	raw, ok := script.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: fragment %s: %w", navtree.ErrMalformedTree, key, ErrMissingVar)
	}
	return navtree.LoadChildren(raw, path...)
}

// MarshalFragment writes a fragment file for key.
func MarshalFragment(key string, nodes []*navtree.Node) ([]byte, error) {
	body, err := navtree.MarshalChildren(nodes)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "var %s =\n", key)
	buf.Write(body)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

func singleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
