package navtree

// ChildrenKind tells how a node's children are provided.
type ChildrenKind int

const (
	NoChildren    ChildrenKind = iota // leaf
	LazyChildren                      // fetched on demand from a fragment
	EagerChildren                     // enumerated inline
)

func (k ChildrenKind) String() string {
	switch k {
	case LazyChildren:
		return "lazy"
	case EagerChildren:
		return "eager"
	default:
		return "none"
	}
}

// Children is the tagged union held by a Node. Exactly one of the three
// shapes is valid, selected by Kind.
type Children struct {
	Kind  ChildrenKind
	Key   string  // fragment key, LazyChildren only
	Nodes []*Node // EagerChildren only
}

// None returns an empty children value.
func None() Children { return Children{Kind: NoChildren} }

// Lazy returns a children value that points at a fragment.
func Lazy(key string) Children { return Children{Kind: LazyChildren, Key: key} }

// Eager returns a children value holding nodes in display order.
// An empty list collapses to None.
func Eager(nodes ...*Node) Children {
	if len(nodes) == 0 {
		return None()
	}
	return Children{Kind: EagerChildren, Nodes: nodes}
}

// Node is one entry in the navigation tree.
type Node struct {
	Title    string
	Target   string
	Children Children
}

// New builds a node with eager children.
func New(title, target string, children ...*Node) *Node {
	return &Node{Title: title, Target: target, Children: Eager(children...)}
}

// NewLazy builds a node whose children live in the fragment named key.
func NewLazy(title, target, key string) *Node {
	return &Node{Title: title, Target: target, Children: Lazy(key)}
}

// Kind reports how the node's children are provided.
func (n *Node) Kind() ChildrenKind { return n.Children.Kind }

// IsLazy reports whether children must be fetched before they can be shown.
func (n *Node) IsLazy() bool { return n.Children.Kind == LazyChildren }

// Nodes returns the eager children, or nil for leaves and lazy nodes.
func (n *Node) Nodes() []*Node {
	if n.Children.Kind != EagerChildren {
		return nil
	}
	return n.Children.Nodes
}

// Link classifies the node's target.
func (n *Node) Link() LinkKind { return Classify(n.Target) }

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Nodes() {
		total += c.Count()
	}
	return total
}

// ToggleLabels are the two captions of the panel synchronisation toggle.
type ToggleLabels struct {
	On  string `json:"on"`
	Off string `json:"off"`
}

// DefaultToggleLabels are the captions Doxygen emits.
var DefaultToggleLabels = ToggleLabels{
	On:  "click to disable panel synchronisation",
	Off: "click to enable panel synchronisation",
}

// Equal reports whether two trees have the same titles, targets and
// children, in the same order.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Title != b.Title || a.Target != b.Target || a.Children.Kind != b.Children.Kind {
		return false
	}
	switch a.Children.Kind {
	case LazyChildren:
		return a.Children.Key == b.Children.Key
	case EagerChildren:
		if len(a.Children.Nodes) != len(b.Children.Nodes) {
			return false
		}
		for i := range a.Children.Nodes {
			if !Equal(a.Children.Nodes[i], b.Children.Nodes[i]) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Title: n.Title, Target: n.Target, Children: Children{Kind: n.Children.Kind, Key: n.Children.Key}}
	if len(n.Children.Nodes) > 0 {
		c.Children.Nodes = make([]*Node, len(n.Children.Nodes))
		for i, k := range n.Children.Nodes {
			c.Children.Nodes[i] = k.Clone()
		}
	}
	return c
}
