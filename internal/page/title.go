package page

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/nav"
)

var titleCaser = cases.Title(language.English)

// ResolveTitle picks a page title. Precedence: the configured literal, the
// frontmatter title, the navigation link title, then a title derived from
// the route.
func ResolveTitle(override, frontmatterTitle string, registry *nav.Registry, route string) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	if t := strings.TrimSpace(frontmatterTitle); t != "" {
		return t
	}
	if t, ok := registry.TitleFor(route); ok && t != "" {
		return t
	}
	return TitleFromRoute(route)
}

// TitleFromRoute title-cases the last route segment.
func TitleFromRoute(route string) string {
	base := path.Base(path.Clean("/" + route))
	if base == "/" || base == "." {
		return "Home"
	}
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return titleCaser.String(strings.Join(words, " "))
}
