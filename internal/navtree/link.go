package navtree

import "strings"

// ExternalMarker prefixes targets that point outside the documentation set.
const ExternalMarker = "^"

// LinkKind selects the navigation behavior for a target.
type LinkKind string

const (
	LocalPage     LinkKind = "local-page"
	LocalFragment LinkKind = "local-fragment"
	External      LinkKind = "external"
)

// Classify maps any target string to exactly one LinkKind.
func Classify(target string) LinkKind {
	switch {
	case strings.HasPrefix(target, ExternalMarker):
		return External
	case strings.Contains(target, "#"):
		return LocalFragment
	default:
		return LocalPage
	}
}

// SplitTarget separates a local target into its page and anchor.
// External targets come back with the marker stripped and no anchor split.
func SplitTarget(target string) (page, anchor string) {
	if strings.HasPrefix(target, ExternalMarker) {
		return strings.TrimPrefix(target, ExternalMarker), ""
	}
	page, anchor, _ = strings.Cut(target, "#")
	return page, anchor
}

// Href is the URL a browser should follow for target.
func Href(target string) string {
	return strings.TrimPrefix(target, ExternalMarker)
}
