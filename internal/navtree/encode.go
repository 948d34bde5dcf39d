package navtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a tree built in memory:
// non-empty titles, well-formed children unions, and no node reachable
// twice (which rules out cycles and shared subtrees).
func Validate(root *Node) error {
	if root == nil {
		return malformed(nil, "nil root")
	}
	seen := make(map[*Node]bool)
	var check func(n *Node, path []string) error
	check = func(n *Node, path []string) error {
		if n == nil {
			return malformed(path, "nil node")
		}
		here := append(copyPath(path), n.Title)
		if seen[n] {
			return malformed(here, "node appears more than once")
		}
		seen[n] = true
		if strings.TrimSpace(n.Title) == "" {
			return malformed(here, "empty title")
		}
		switch n.Children.Kind {
		case NoChildren:
		case LazyChildren:
			if reason := lazyProblem(n.Target, n.Children.Key); reason != "" {
				return &NodeError{Path: here, Err: ErrUnresolvedLazyMarker, Detail: reason}
			}
		case EagerChildren:
			for _, c := range n.Children.Nodes {
				if err := check(c, here); err != nil {
					return err
				}
			}
		default:
			return malformed(here, "unknown children kind %d", n.Children.Kind)
		}
		return nil
	}
	return check(root, nil)
}

// Marshal serializes a tree to the [ Node ] form accepted by Load, laid out
// the way Doxygen writes navtreedata.js.
func Marshal(root *Node) ([]byte, error) {
	if err := Validate(root); err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	if err := writeNode(&buf, root, 1); err != nil {
		return nil, err
	}
	buf.WriteString("\n]")
	return buf.Bytes(), nil
}

// MarshalChildren serializes a fragment body, the bare node list accepted by
// LoadChildren.
func MarshalChildren(nodes []*Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, n := range nodes {
		if err := Validate(n); err != nil {
			return nil, fmt.Errorf("marshal children: %w", err)
		}
		if i > 0 {
			buf.WriteString(",\n")
		}
		if err := writeNode(&buf, n, 1); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\n]")
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteString("[ ")
	buf.WriteString(quote(n.Title))
	buf.WriteString(", ")
	buf.WriteString(quote(n.Target))
	buf.WriteString(", ")

	switch n.Children.Kind {
	case LazyChildren:
		buf.WriteString(quote(n.Children.Key))
		buf.WriteString(" ]")
	case NoChildren:
		buf.WriteString("null ]")
	case EagerChildren:
		if len(n.Children.Nodes) == 0 {
			buf.WriteString("null ]")
			return nil
		}
		buf.WriteString("[\n")
		for i, c := range n.Children.Nodes {
			if i > 0 {
				buf.WriteString(",\n")
			}
			if err := writeNode(buf, c, depth+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		buf.WriteString(indent)
		buf.WriteString("] ]")
	default:
		return errors.New("unknown children kind")
	}
	return nil
}

// quote renders s as a JSON string without HTML escaping, so titles such as
// "C++11 Standard Library" or "operator<" stay readable.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
