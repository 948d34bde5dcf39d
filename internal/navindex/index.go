package navindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

var (
	// ErrUnknownPage means a page id is neither indexed nor the root.
	ErrUnknownPage = errors.New("unknown page")

	// ErrDanglingEntry means an index entry names a page the tree never links to.
	ErrDanglingEntry = errors.New("index entry not in tree")
)

// FragmentKey names the paginated index file to fetch for a page.
type FragmentKey string

const fragmentPrefix = "navtreeindex"

// RootFragment is the fragment holding the first index entry and the root page.
const RootFragment FragmentKey = fragmentPrefix + "0"

// KeyFor returns the fragment key of the i-th index entry.
func KeyFor(i int) FragmentKey {
	return FragmentKey(fragmentPrefix + strconv.Itoa(i))
}

// IsRoot reports whether k is the root fragment.
func (k FragmentKey) IsRoot() bool { return k == RootFragment }

// Index is the ordered list of page ids that open each paginated fragment.
type Index []string

// Parse decodes an Index literal, a JSON list of strings.
func Parse(raw []byte) (Index, error) {
	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return idx, nil
}

// Marshal encodes the index the way the generator lays it out.
func (idx Index) Marshal() []byte {
	var sb strings.Builder
	sb.WriteString("[\n")
	for i, id := range idx {
		if i > 0 {
			sb.WriteString(",\n")
		}
		b, _ := json.Marshal(id)
		sb.Write(b)
	}
	sb.WriteString("\n]")
	return []byte(sb.String())
}

// Validate checks that every entry is a page the tree links to, or the
// root page. An anchor on an entry is not part of the check.
func (idx Index) Validate(root *navtree.Node) error {
	pages := navtree.Pages(root)
	rootPage := rootPageOf(root)
	var errs []error
	for i, id := range idx {
		page, _ := navtree.SplitTarget(id)
		if page != "" && (page == rootPage || pages[page]) {
			continue
		}
		errs = append(errs, fmt.Errorf("entry %d %q: %w", i, id, ErrDanglingEntry))
	}
	return errors.Join(errs...)
}

// Resolver maps page ids to fragment keys. It is immutable and safe for
// concurrent use.
type Resolver struct {
	index    Index
	pages    []string // index entries without their anchors
	rootPage string
	position map[string]int
	sorted   bool
}

// NewResolver builds a resolver over idx. rootPage is the designated root,
// normally the target page of the tree root; it always resolves to
// RootFragment.
func NewResolver(idx Index, rootPage string) *Resolver {
	r := &Resolver{
		index:    slices.Clone(idx),
		pages:    make([]string, len(idx)),
		rootPage: rootPage,
		position: make(map[string]int, len(idx)),
	}
	for i, id := range idx {
		page, _ := navtree.SplitTarget(id)
		r.pages[i] = page
		r.claim(id, i)
	}
	// Page parts go in after every raw entry so an exact entry always wins
	// over a bare page derived from a later anchored one.
	for i, page := range r.pages {
		r.claim(page, i)
	}
	r.sorted = slices.IsSorted(r.pages)
	return r
}

// claim records the first position of id.
func (r *Resolver) claim(id string, i int) {
	if id == "" {
		return
	}
	if _, dup := r.position[id]; !dup {
		r.position[id] = i
	}
}

// ForTree builds a resolver whose root page is the tree root's page.
func ForTree(idx Index, root *navtree.Node) *Resolver {
	return NewResolver(idx, rootPageOf(root))
}

// Index returns a copy of the entries.
func (r *Resolver) Index() Index { return slices.Clone(r.index) }

// RootPage returns the designated root page.
func (r *Resolver) RootPage() string { return r.rootPage }

// Resolve returns the fragment key for an indexed page. The first entry and
// the root page resolve to RootFragment. An id that matches an entry exactly,
// anchor included, resolves to that entry; otherwise the anchor is ignored.
func (r *Resolver) Resolve(pageID string) (FragmentKey, error) {
	page, _ := navtree.SplitTarget(strings.TrimSpace(pageID))
	if page != "" && page == r.rootPage {
		return RootFragment, nil
	}
	i, ok := r.lookup(pageID)
	if !ok {
		return "", fmt.Errorf("resolve %q: %w", pageID, ErrUnknownPage)
	}
	return KeyFor(i), nil
}

// lookup finds the entry position of pageID, trying the exact id before its
// page part.
func (r *Resolver) lookup(pageID string) (int, bool) {
	id := strings.TrimSpace(pageID)
	if id == "" {
		return 0, false
	}
	if i, ok := r.position[id]; ok {
		return i, true
	}
	page, _ := navtree.SplitTarget(id)
	if page == "" {
		return 0, false
	}
	i, ok := r.position[page]
	return i, ok
}

// Bucket finds the fragment that covers pageID when the index lists only the
// first page of each fragment: the last entry that sorts at or before the
// page. It falls back to Resolve when the index is not sorted.
func (r *Resolver) Bucket(pageID string) (FragmentKey, error) {
	if !r.sorted {
		return r.Resolve(pageID)
	}
	page, _ := navtree.SplitTarget(strings.TrimSpace(pageID))
	if page != "" && page == r.rootPage {
		return RootFragment, nil
	}
	if i, ok := r.lookup(pageID); ok {
		return KeyFor(i), nil
	}
	i, found := slices.BinarySearch(r.pages, page)
	if found {
		return KeyFor(i), nil
	}
	if i == 0 || page == "" {
		return "", fmt.Errorf("bucket %q: %w", pageID, ErrUnknownPage)
	}
	return KeyFor(i - 1), nil
}

func rootPageOf(root *navtree.Node) string {
	if root == nil || root.Link() == navtree.External {
		return ""
	}
	page, _ := navtree.SplitTarget(root.Target)
	return page
}
