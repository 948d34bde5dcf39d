package navtree

import (
	"iter"
	"strings"
)

// Entry is one step of a pre-order walk.
type Entry struct {
	Path  []string // titles from the root down to and including Node
	Depth int
	Node  *Node
}

// Breadcrumb renders the path the way the sidebar tooltip shows it.
func (e Entry) Breadcrumb() string {
	return strings.Join(e.Path, " > ")
}

// Flatten walks the tree rooted at n in pre-order, siblings in display
// order. The sequence is lazy and can be ranged over any number of times;
// every run yields the same entries. Lazy children are not fetched.
func Flatten(n *Node) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if n == nil {
			return
		}
		walk(n, nil, yield)
	}
}

func walk(n *Node, parent []string, yield func(Entry) bool) bool {
	path := make([]string, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = n.Title

	if !yield(Entry{Path: path, Depth: len(parent), Node: n}) {
		return false
	}
	for _, c := range n.Nodes() {
		if !walk(c, path, yield) {
			return false
		}
	}
	return true
}

// Find returns the first node in pre-order that satisfies match.
func Find(root *Node, match func(*Node) bool) (Entry, bool) {
	for e := range Flatten(root) {
		if match(e.Node) {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByKey returns the lazy node whose fragment key is key.
func FindByKey(root *Node, key string) (Entry, bool) {
	return Find(root, func(n *Node) bool {
		return n.IsLazy() && n.Children.Key == key
	})
}

// Pages returns the set of local pages the tree links to, anchors stripped.
func Pages(root *Node) map[string]bool {
	pages := make(map[string]bool)
	for e := range Flatten(root) {
		if e.Node.Link() == External {
			continue
		}
		if page, _ := SplitTarget(e.Node.Target); page != "" {
			pages[page] = true
		}
	}
	return pages
}
