package linkcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/navtree"
)

// ProblemKind names what is wrong with a link.
type ProblemKind string

const (
	MissingPage   ProblemKind = "missing-page"
	MissingAnchor ProblemKind = "missing-anchor"
	Unreadable    ProblemKind = "unreadable"
)

// Problem is one broken navigation link.
type Problem struct {
	Path   []string    `json:"path"`
	Target string      `json:"target"`
	Kind   ProblemKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s (%s)", p.Kind, p.Target, navtree.Entry{Path: p.Path}.Breadcrumb())
}

// Report summarizes a check run.
type Report struct {
	Checked  int       `json:"checked"`
	Pages    int       `json:"pages"`
	External int       `json:"external"`
	Problems []Problem `json:"problems"`
}

// OK reports whether no problems were found.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Checker verifies that every local link in a tree points at a page that
// exists in the documentation build and, for fragment links, at an anchor
// present on that page. External links are counted but not fetched.
type Checker struct {
	src     fragment.Source
	workers int
	log     *slog.Logger
}

func NewChecker(src fragment.Source, workers int, log *slog.Logger) *Checker {
	if workers <= 0 {
		workers = 8
	}
	if log == nil {
		log = slog.Default()
	}
	return &Checker{src: src, workers: workers, log: log}
}

type pageResult struct {
	anchors map[string]bool
	err     error
}

// Check walks root and fetches each distinct local page once.
func (c *Checker) Check(ctx context.Context, root *navtree.Node) (*Report, error) {
	type link struct {
		path   []string
		target string
		page   string
		anchor string
	}

	report := &Report{}
	var links []link
	pageSet := make(map[string]bool)
	for e := range navtree.Flatten(root) {
		n := e.Node
		if n.Link() == navtree.External {
			report.External++
			continue
		}
		page, anchor := navtree.SplitTarget(n.Target)
		if page == "" {
			// Fragment-only targets refer to the page that is already open.
			continue
		}
		links = append(links, link{path: e.Path, target: n.Target, page: page, anchor: anchor})
		pageSet[page] = true
	}

	pages := make([]string, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Strings(pages)

	var mu sync.Mutex
	results := make(map[string]pageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, page := range pages {
		g.Go(func() error {
			data, err := c.src.Fetch(gctx, page)
			var res pageResult
			switch {
			case err == nil:
				res.anchors, res.err = Anchors(data)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				res.err = err
			}
			mu.Lock()
			results[page] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check links: %w", err)
	}

	for _, l := range links {
		report.Checked++
		res := results[l.page]
		switch {
		case errors.Is(res.err, fragment.ErrNotFound):
			report.Problems = append(report.Problems, Problem{Path: l.path, Target: l.target, Kind: MissingPage})
		case res.err != nil:
			report.Problems = append(report.Problems, Problem{Path: l.path, Target: l.target, Kind: Unreadable, Detail: res.err.Error()})
		case l.anchor != "" && !res.anchors[l.anchor]:
			report.Problems = append(report.Problems, Problem{Path: l.path, Target: l.target, Kind: MissingAnchor})
		}
	}
	report.Pages = len(pages)

	c.log.Info("link check finished",
		"checked", report.Checked,
		"pages", report.Pages,
		"external", report.External,
		"problems", len(report.Problems),
	)
	return report, nil
}

// Anchors returns every id attribute and every <a name> in an HTML page.
func Anchors(data []byte) (map[string]bool, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	anchors := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" || (a.Key == "name" && n.Data == "a") {
					if a.Val != "" {
						anchors[a.Val] = true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return anchors, nil
}
