package breadcrumbs

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Crumb is one step of the navigation trail.
type Crumb struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Build turns a page path into a trail starting at Home. Each non-empty segment
// adds a crumb whose href is the path up to and including it. Query strings and
// fragments are ignored.
func Build(path string) []Crumb {
	crumbs := []Crumb{{Label: "Home", Href: "/"}}

	raw := path
	if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
		raw = raw[:idx]
	}

	href := ""
	for _, segment := range strings.Split(raw, "/") {
		if segment == "" {
			continue
		}
		href += "/" + segment
		crumbs = append(crumbs, Crumb{Label: label(segment), Href: href})
	}
	return crumbs
}

// label de-slugs a path segment: "laundry-baskets" becomes "Laundry Baskets".
func label(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	// a Caser keeps state, so each call gets its own
	return cases.Title(language.English).String(strings.Join(words, " "))
}
