package fragment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
)

// Expander loads the children of lazy nodes from fragment files.
//
// At most one fetch per fragment key is in flight at a time; concurrent
// callers share its result. Decoded fragments are cached. The loaded tree is
// never modified: callers get the fragment's nodes, which they must treat as
// read-only.
type Expander struct {
	src     Source
	cache   *lru.Cache[string, []*navtree.Node]
	group   singleflight.Group
	log     *slog.Logger
	fetches atomic.Int64

	// announced maps the lazy keys found inside loaded fragments to the
	// breadcrumb of their node. It outlives cache evictions.
	announced sync.Map
}

func NewExpander(src Source, cacheSize int, log *slog.Logger) (*Expander, error) {
	if src == nil {
		return nil, fmt.Errorf("fragment source is required")
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, []*navtree.Node](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create fragment cache: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Expander{src: src, cache: cache, log: log}, nil
}

// Fetches returns how many fragment files have been read from the source.
func (e *Expander) Fetches() int64 { return e.fetches.Load() }

// Expand returns the children stored under key. path is the breadcrumb of
// the lazy node and only shows up in errors and logs.
func (e *Expander) Expand(ctx context.Context, key string, path ...string) ([]*navtree.Node, error) {
	if key == "" {
		return nil, fmt.Errorf("expand: %w", navtree.ErrUnresolvedLazyMarker)
	}
	if nodes, ok := e.cache.Get(key); ok {
		return nodes, nil
	}

	ch := e.group.DoChan(key, func() (any, error) {
		if nodes, ok := e.cache.Get(key); ok {
			return nodes, nil
		}
		// The shared fetch must outlive any single caller's cancellation.
		fetchCtx := context.WithoutCancel(ctx)
		e.fetches.Add(1)
		data, err := e.src.Fetch(fetchCtx, navjs.FragmentFile(key))
		if err != nil {
			return nil, err
		}
		nodes, err := navjs.ParseFragment(data, key, path...)
		if nodes == nil {
			return nil, err
		}
		if err != nil {
			e.log.Warn("fragment has unresolved lazy markers", "key", key, "error", err)
		}
		e.cache.Add(key, nodes)
		e.announce(nodes, path)
		e.log.Debug("fragment loaded", "key", key, "nodes", len(nodes))
		return nodes, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("expand %s: %w", key, res.Err)
		}
		return res.Val.([]*navtree.Node), nil
	}
}

func (e *Expander) announce(nodes []*navtree.Node, parent []string) {
	for _, n := range nodes {
		for entry := range navtree.Flatten(n) {
			if !entry.Node.IsLazy() || entry.Node.Children.Key == "" {
				continue
			}
			path := append(slices.Clone(parent), entry.Path...)
			e.announced.LoadOrStore(entry.Node.Children.Key, path)
		}
	}
}

// Announced reports whether a fragment loaded so far holds a lazy node for
// key, and returns that node's breadcrumb.
func (e *Expander) Announced(key string) ([]string, bool) {
	v, ok := e.announced.Load(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.([]string)), true
}

// ExpandNode returns the children of n, fetching them if n is lazy.
func (e *Expander) ExpandNode(ctx context.Context, n *navtree.Node, path ...string) ([]*navtree.Node, error) {
	if !n.IsLazy() {
		return n.Nodes(), nil
	}
	return e.Expand(ctx, n.Children.Key, path...)
}

type pending struct {
	node *navtree.Node
	path []string
}

// Materialize returns a deep copy of root with every reachable lazy node
// replaced by its fetched children, expanding up to workers fragments at a
// time. A fragment key already expanded elsewhere in the copy stays lazy.
// Missing fragments leave their node as a leaf and are reported in the
// joined error; any other failure aborts.
func (e *Expander) Materialize(ctx context.Context, root *navtree.Node, workers int) (*navtree.Node, error) {
	if workers <= 0 {
		workers = 4
	}
	out := root.Clone()
	seen := make(map[string]bool)
	frontier := collectLazy(out, nil, seen)

	var missing []error
	for len(frontier) > 0 {
		results := make([][]*navtree.Node, len(frontier))
		errs := make([]error, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, p := range frontier {
			g.Go(func() error {
				nodes, err := e.Expand(gctx, p.node.Children.Key, p.path...)
				if errors.Is(err, ErrNotFound) {
					errs[i] = err
					return nil
				}
				results[i] = nodes
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []pending
		for i, p := range frontier {
			if errs[i] != nil {
				missing = append(missing, errs[i])
				p.node.Children = navtree.None()
				continue
			}
			kids := make([]*navtree.Node, len(results[i]))
			for j, k := range results[i] {
				kids[j] = k.Clone()
			}
			p.node.Children = navtree.Eager(kids...)
			for _, k := range kids {
				next = append(next, collectLazy(k, p.path, seen)...)
			}
		}
		frontier = next
	}
	return out, errors.Join(missing...)
}

func collectLazy(root *navtree.Node, parent []string, seen map[string]bool) []pending {
	var found []pending
	for entry := range navtree.Flatten(root) {
		n := entry.Node
		if !n.IsLazy() || seen[n.Children.Key] {
			continue
		}
		seen[n.Children.Key] = true
		path := make([]string, 0, len(parent)+len(entry.Path))
		path = append(path, parent...)
		path = append(path, entry.Path...)
		found = append(found, pending{node: n, path: path})
	}
	return found
}
