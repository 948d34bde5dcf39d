package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
)

// Site is one loaded generation of the navigation data. It is read-only
// after construction; a new build is loaded into a new Site.
type Site struct {
	Tree     *navtree.Node
	Index    navindex.Index
	Labels   navtree.ToggleLabels
	Header   string
	Resolver *navindex.Resolver

	// Warnings holds recoverable problems found while loading: lazy markers
	// that were demoted to leaves and index entries the tree never links to.
	Warnings []error
}

// Parse builds a Site from the bytes of navtreedata.js.
func Parse(data []byte) (*Site, error) {
	doc, err := navjs.ParseDocument(data)
	if doc == nil {
		return nil, err
	}

	s := &Site{
		Tree:     doc.Tree,
		Index:    doc.Index,
		Labels:   doc.Labels,
		Header:   doc.Header,
		Resolver: navindex.ForTree(doc.Index, doc.Tree),
	}
	if err != nil {
		s.Warnings = append(s.Warnings, unwrapJoined(err)...)
	}
	if err := doc.Index.Validate(doc.Tree); err != nil {
		s.Warnings = append(s.Warnings, unwrapJoined(err)...)
	}
	return s, nil
}

// Load fetches navtreedata.js from src and parses it.
func Load(ctx context.Context, src fragment.Source, log *slog.Logger) (*Site, error) {
	data, err := src.Fetch(ctx, navjs.DataFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", navjs.DataFile, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", navjs.DataFile, err)
	}
	if log != nil {
		for _, w := range s.Warnings {
			log.Warn("navigation data warning", "error", w)
		}
		log.Info("navigation data loaded",
			"root", s.Tree.Title,
			"nodes", s.Tree.Count(),
			"index_entries", len(s.Index),
			"warnings", len(s.Warnings),
		)
	}
	return s, nil
}

// Document returns the Site as a document ready to be written back out.
func (s *Site) Document() *navjs.Document {
	return &navjs.Document{
		Header: s.Header,
		Tree:   s.Tree,
		Index:  s.Index,
		Labels: s.Labels,
	}
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// HasWarning reports whether any warning matches target.
func (s *Site) HasWarning(target error) bool {
	for _, w := range s.Warnings {
		if errors.Is(w, target) {
			return true
		}
	}
	return false
}
