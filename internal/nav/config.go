package nav

import "git.home.luguber.info/inful/docsite/internal/config"

// FromConfig builds the registry declared in the configuration, falling back
// to Default when no navigation is configured.
func FromConfig(sections []config.NavSection) (*Registry, error) {
	if len(sections) == 0 {
		return Default(), nil
	}
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		sec := Section{Title: s.Title}
		for _, l := range s.Links {
			sec.Links = append(sec.Links, Link{Title: l.Title, Href: l.Href})
		}
		out = append(out, sec)
	}
	return New(out)
}
