package page

import "git.home.luguber.info/inful/docsite/internal/markdown"

// TOCEntry is one table of contents line.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// BuildTOC keeps the h2 and h3 headings that carry an id.
func BuildTOC(headings []markdown.Heading) []TOCEntry {
	var out []TOCEntry
	for _, h := range headings {
		if (h.Level != 2 && h.Level != 3) || h.ID == "" {
			continue
		}
		out = append(out, TOCEntry{Level: h.Level, ID: h.ID, Text: h.Text})
	}
	return out
}
