package navtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedTree means the serialized tree does not follow the
	// [title, target, children] grammar. Fatal for a load.
	ErrMalformedTree = errors.New("malformed tree")

	// ErrUnresolvedLazyMarker means a node asks for lazy children but has
	// nowhere to fetch them from. The node is kept as a leaf.
	ErrUnresolvedLazyMarker = errors.New("unresolved lazy marker")
)

// NodeError locates a load failure in the tree.
type NodeError struct {
	Path   []string // breadcrumb of the offending node
	Err    error    // ErrMalformedTree or ErrUnresolvedLazyMarker
	Detail string
}

func (e *NodeError) Error() string {
	where := "<top level>"
	if len(e.Path) > 0 {
		where = strings.Join(e.Path, " > ")
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, where, e.Detail)
}

func (e *NodeError) Unwrap() error { return e.Err }

func malformed(path []string, format string, args ...any) error {
	return &NodeError{Path: copyPath(path), Err: ErrMalformedTree, Detail: fmt.Sprintf(format, args...)}
}

// Load decodes a serialized tree of the form [ Node ] into its root node.
//
// Structural problems return ErrMalformedTree and no tree. Lazy markers that
// cannot be resolved do not abort the load: the tree is returned with those
// nodes demoted to leaves, together with the joined ErrUnresolvedLazyMarker
// errors.
func Load(raw []byte) (*Node, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, malformed(nil, "decode tree: %v", err)
	}
	if len(outer) != 1 {
		return nil, malformed(nil, "expected exactly one root node, got %d", len(outer))
	}

	d := &decoder{}
	root, err := d.node(outer[0], nil, 0)
	if err != nil {
		return nil, err
	}
	return root, d.result()
}

// LoadChildren decodes a fragment body, a bare list of nodes. path is the
// breadcrumb of the lazy node the fragment belongs to, used in errors.
func LoadChildren(raw []byte, path ...string) ([]*Node, error) {
	d := &decoder{}
	nodes, err := d.list(raw, path)
	if err != nil {
		return nil, err
	}
	return nodes, d.result()
}

type decoder struct {
	lazyErrs []error
}

func (d *decoder) result() error {
	if len(d.lazyErrs) == 0 {
		return nil
	}
	return errors.Join(d.lazyErrs...)
}

func (d *decoder) list(raw json.RawMessage, path []string) ([]*Node, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed(path, "children must be a list: %v", err)
	}
	nodes := make([]*Node, 0, len(items))
	for i, item := range items {
		n, err := d.node(item, path, i)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (d *decoder) node(raw json.RawMessage, parent []string, index int) (*Node, error) {
	here := append(copyPath(parent), fmt.Sprintf("#%d", index))

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, malformed(here, "node must be a [title, target, children] list")
	}
	switch len(parts) {
	case 0:
		return nil, malformed(here, "missing title")
	case 1:
		return nil, malformed(here, "missing target")
	case 2:
		return nil, malformed(here, "missing children")
	case 3:
	default:
		return nil, malformed(here, "expected 3 fields, got %d", len(parts))
	}

	title, ok := decodeString(parts[0])
	if !ok {
		return nil, malformed(here, "title must be a string")
	}
	if strings.TrimSpace(title) == "" {
		return nil, malformed(here, "empty title")
	}
	here[len(here)-1] = title

	target, ok := decodeString(parts[1])
	if !ok {
		return nil, malformed(here, "missing target")
	}

	n := &Node{Title: title, Target: target}
	body := bytes.TrimSpace(parts[2])
	switch {
	case bytes.Equal(body, []byte("null")):
		n.Children = None()
	case len(body) > 0 && body[0] == '"':
		key, _ := decodeString(body)
		if reason := lazyProblem(target, key); reason != "" {
			d.lazyErrs = append(d.lazyErrs, &NodeError{Path: here, Err: ErrUnresolvedLazyMarker, Detail: reason})
			n.Children = None()
			break
		}
		n.Children = Lazy(key)
	case len(body) > 0 && body[0] == '[':
		kids, err := d.list(body, here)
		if err != nil {
			return nil, err
		}
		n.Children = Eager(kids...)
	default:
		return nil, malformed(here, "children must be null, a fragment key or a list")
	}
	return n, nil
}

func lazyProblem(target, key string) string {
	switch {
	case strings.TrimSpace(key) == "":
		return "empty fragment key"
	case strings.TrimSpace(target) == "":
		return fmt.Sprintf("fragment %q on a node without a target", key)
	case Classify(target) == External:
		return fmt.Sprintf("fragment %q on external target %q", key, target)
	}
	return ""
}

func decodeString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func copyPath(p []string) []string {
	if len(p) == 0 {
		return nil
	}
	out := make([]string, len(p))
	copy(out, p)
	return out
}
