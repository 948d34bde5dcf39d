package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/site"
)

// ErrReloadUnavailable means the server was built without a Loader.
var ErrReloadUnavailable = errors.New("reload not configured")

// Loader builds a fresh generation: the site and an expander over the same
// build.
type Loader func(ctx context.Context) (*site.Site, *fragment.Expander, error)

// generation is one loaded build. Requests read it once and use it
// throughout, so a reload never mixes two builds in one response.
type generation struct {
	site     *site.Site
	expander *fragment.Expander
}

// Server is the HTTP API over the current generation of the navigation data.
type Server struct {
	router  chi.Router
	current atomic.Pointer[generation]
	loader  Loader
	reload  sync.Mutex
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(s *site.Site, exp *fragment.Expander, log *slog.Logger, cfg config.Config) *Server {
	srv := &Server{
		log: log,
		cfg: cfg,
	}
	srv.Swap(s, exp)
	srv.setupRoutes()
	return srv
}

// SetLoader enables Reload.
func (s *Server) SetLoader(l Loader) { s.loader = l }

// Swap replaces the served generation. The old expander and its cache are
// dropped with it.
func (s *Server) Swap(st *site.Site, exp *fragment.Expander) {
	s.current.Store(&generation{site: st, expander: exp})
}

// Reload loads a new generation and swaps it in. On failure the current
// generation keeps serving.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return ErrReloadUnavailable
	}
	s.reload.Lock()
	defer s.reload.Unlock()

	st, exp, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.Swap(st, exp)
	s.log.Info("navigation data reloaded",
		"root", st.Tree.Title,
		"nodes", st.Tree.Count(),
		"warnings", len(st.Warnings),
	)
	return nil
}

func (s *Server) gen() *generation { return s.current.Load() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/tree", s.handleTree)
		r.Get("/api/tree/flat", s.handleFlat)
		r.Get("/api/fragments/{key}", s.handleFragment)
		r.Get("/api/index", s.handleIndex)
		r.Get("/api/resolve/*", s.handleResolve)
		r.Get("/api/locate/*", s.handleLocate)
		r.Get("/api/classify", s.handleClassify)
		r.Get("/api/labels", s.handleLabels)
		r.Get("/api/sidebar", s.handleSidebar)
		r.Post("/api/reload", s.handleReload)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	g := s.gen()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"root":          g.site.Tree.Title,
		"root_page":     g.site.Resolver.RootPage(),
		"nodes":         g.site.Tree.Count(),
		"index_entries": len(g.site.Resolver.Index()),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.Reload(r.Context())
	switch {
	case errors.Is(err, ErrReloadUnavailable):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		s.log.Error("reload failed", "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	g := s.gen()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "reloaded",
		"root":     g.site.Tree.Title,
		"nodes":    g.site.Tree.Count(),
		"warnings": len(g.site.Warnings),
	})
}
