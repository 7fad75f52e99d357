// Package nav holds the ordered navigation registry shared by the side
// navigation and the prev/next links of every page.
package nav

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Link is one navigation entry. Href is site-relative and starts with "/".
type Link struct {
	Title string
	Href  string
}

// Section is an ordered group of links.
type Section struct {
	Title string
	Links []Link
}

// Registry is an immutable, ordered list of sections. The zero value is an
// empty registry.
type Registry struct {
	sections []Section
	flat     []Link
}

// New validates sections and returns a registry holding a private copy.
func New(sections []Section) (*Registry, error) {
	for i, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, ferrors.ValidationError("navigation section title cannot be empty").
				WithContext("section", i).
				Build()
		}
		seen := make(map[string]struct{}, len(s.Links))
		for _, l := range s.Links {
			if !strings.HasPrefix(l.Href, "/") {
				return nil, ferrors.ValidationError("navigation href must start with /").
					WithContext("section", s.Title).
					WithContext("href", l.Href).
					Build()
			}
			if _, dup := seen[l.Href]; dup {
				return nil, ferrors.ValidationError("duplicate navigation href in section").
					WithContext("section", s.Title).
					WithContext("href", l.Href).
					Build()
			}
			seen[l.Href] = struct{}{}
		}
	}

	r := &Registry{sections: copySections(sections)}
	for _, s := range r.sections {
		r.flat = append(r.flat, s.Links...)
	}
	return r, nil
}

// MustNew is New for registries known to be valid at compile time.
func MustNew(sections []Section) *Registry {
	r, err := New(sections)
	if err != nil {
		panic(fmt.Sprintf("nav: %v", err))
	}
	return r
}

// Default returns the built-in Libernet documentation registry.
func Default() *Registry {
	return MustNew([]Section{
		{
			Title: "Introduction",
			Links: []Link{{Title: "Introduction", Href: "/"}},
		},
		{
			Title: "User Guides",
			Links: []Link{
				{Title: "Getting Started", Href: "/user/getting-started"},
				{Title: "Node Turnup", Href: "/user/node-turnup"},
			},
		},
		{
			Title: "Developer Guides",
			Links: []Link{
				{Title: "Architecture", Href: "/dev/architecture"},
				{Title: "Wire Protocol", Href: "/dev/protocol"},
				{Title: "Wallet Format V1", Href: "/dev/wallet/v1"},
			},
		},
	})
}

// Sections returns a copy of the sections in declared order.
func (r *Registry) Sections() []Section {
	if r == nil {
		return nil
	}
	return copySections(r.sections)
}

// Flatten returns every link across all sections in order.
func (r *Registry) Flatten() []Link {
	if r == nil {
		return nil
	}
	out := make([]Link, len(r.flat))
	copy(out, r.flat)
	return out
}

// Neighbors returns the links before and after route in flattened order.
// A route not in the registry has no neighbors. If an href appears in more
// than one section the first occurrence is used.
func (r *Registry) Neighbors(route string) (prev, next *Link) {
	idx := r.indexOf(route)
	if idx < 0 {
		return nil, nil
	}
	if idx > 0 {
		l := r.flat[idx-1]
		prev = &l
	}
	if idx+1 < len(r.flat) {
		l := r.flat[idx+1]
		next = &l
	}
	return prev, next
}

// Contains reports whether route is linked from the registry.
func (r *Registry) Contains(route string) bool {
	return r.indexOf(route) >= 0
}

// TitleFor returns the link title registered for route.
func (r *Registry) TitleFor(route string) (string, bool) {
	idx := r.indexOf(route)
	if idx < 0 {
		return "", false
	}
	return r.flat[idx].Title, true
}

func (r *Registry) indexOf(route string) int {
	if r == nil {
		return -1
	}
	for i, l := range r.flat {
		if l.Href == route {
			return i
		}
	}
	return -1
}

func copySections(in []Section) []Section {
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = Section{Title: s.Title, Links: append([]Link(nil), s.Links...)}
	}
	return out
}
