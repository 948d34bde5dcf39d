package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/render"
)

// nodeView is the JSON shape of a node. Children is set only for eager
// nodes within the requested depth; Key only for lazy nodes.
type nodeView struct {
	Title    string     `json:"title"`
	Target   string     `json:"target"`
	Href     string     `json:"href"`
	Link     string     `json:"link"`
	Kind     string     `json:"kind"`
	Key      string     `json:"key,omitempty"`
	Children []nodeView `json:"children,omitempty"`
}

func viewOf(n *navtree.Node, depth int) nodeView {
	v := nodeView{
		Title:  n.Title,
		Target: n.Target,
		Href:   navtree.Href(n.Target),
		Link:   string(n.Link()),
		Kind:   n.Kind().String(),
	}
	if n.IsLazy() {
		v.Key = n.Children.Key
	}
	if depth != 0 {
		for _, c := range n.Nodes() {
			v.Children = append(v.Children, viewOf(c, depth-1))
		}
	}
	return v
}

// handleTree returns the tree. ?depth=N limits nesting; negative or absent
// means unlimited.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	depth := -1
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "depth must be an integer", http.StatusBadRequest)
			return
		}
		depth = n
	}
	writeJSON(w, http.StatusOK, viewOf(s.gen().site.Tree, depth))
}

type entryView struct {
	Path   []string `json:"path"`
	Depth  int      `json:"depth"`
	Title  string   `json:"title"`
	Target string   `json:"target"`
	Link   string   `json:"link"`
	Lazy   bool     `json:"lazy,omitempty"`
}

// handleFlat lists every node in pre-order. ?q= keeps entries whose title
// contains q, ignoring case.
func (s *Server) handleFlat(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	entries := []entryView{}
	for e := range navtree.Flatten(s.gen().site.Tree) {
		if q != "" && !strings.Contains(strings.ToLower(e.Node.Title), q) {
			continue
		}
		entries = append(entries, entryView{
			Path:   e.Path,
			Depth:  e.Depth,
			Title:  e.Node.Title,
			Target: e.Node.Target,
			Link:   string(e.Node.Link()),
			Lazy:   e.Node.IsLazy(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleFragment serves the children of a lazy node. Only keys named by the
// tree or by a fragment loaded earlier are fetched.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	g := s.gen()
	if g.expander == nil {
		jsonError(w, "fragment loading unavailable", http.StatusServiceUnavailable)
		return
	}

	var path []string
	if e, ok := navtree.FindByKey(g.site.Tree, key); ok {
		path = e.Path
	} else if p, ok := g.expander.Announced(key); ok {
		path = p
	} else {
		jsonError(w, "unknown fragment: "+key, http.StatusNotFound)
		return
	}
	nodes, err := g.expander.Expand(r.Context(), key, path...)
	switch {
	case errors.Is(err, fragment.ErrNotFound):
		jsonError(w, "fragment not found: "+key, http.StatusNotFound)
		return
	case errors.Is(err, navtree.ErrMalformedTree):
		s.log.Error("malformed fragment", "key", key, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	case err != nil:
		jsonError(w, "failed to load fragment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]nodeView, len(nodes))
	for i, n := range nodes {
		views[i] = viewOf(n, -1)
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "children": views})
}

type indexEntryView struct {
	Page string               `json:"page"`
	Key  navindex.FragmentKey `json:"key,omitempty"`
}

// handleIndex lists the index entries with the fragment each resolves to.
// An entry that cannot resolve, such as an empty one, has no key.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	resolver := s.gen().site.Resolver
	entries := []indexEntryView{}
	for _, page := range resolver.Index() {
		key, _ := resolver.Resolve(page)
		entries = append(entries, indexEntryView{Page: page, Key: key})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"root_page": resolver.RootPage(),
		"entries":   entries,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, s.gen().site.Resolver.Resolve)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, s.gen().site.Resolver.Bucket)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, fn func(string) (navindex.FragmentKey, error)) {
	page := chi.URLParam(r, "*")
	if page == "" {
		jsonError(w, "page id is required", http.StatusBadRequest)
		return
	}
	key, err := fn(page)
	if errors.Is(err, navindex.ErrUnknownPage) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page": page,
		"key":  key,
		"root": key.IsRoot(),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("target") {
		jsonError(w, "target query parameter is required", http.StatusBadRequest)
		return
	}
	target := query.Get("target")
	page, anchor := navtree.SplitTarget(target)
	writeJSON(w, http.StatusOK, map[string]any{
		"target": target,
		"kind":   navtree.Classify(target),
		"href":   navtree.Href(target),
		"page":   page,
		"anchor": anchor,
	})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gen().site.Labels)
}

// handleSidebar renders the tree as HTML. ?expand=true loads every lazy
// fragment first.
func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	g := s.gen()
	tree := g.site.Tree
	if r.URL.Query().Get("expand") == "true" && g.expander != nil {
		full, err := g.expander.Materialize(r.Context(), tree, s.cfg.CheckWorkers)
		if full == nil {
			jsonError(w, "failed to expand tree: "+err.Error(), http.StatusBadGateway)
			return
		}
		if err != nil {
			s.log.Warn("sidebar rendered with missing fragments", "error", err)
		}
		tree = full
	}

	out, err := render.Sidebar(tree, g.site.Labels)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
