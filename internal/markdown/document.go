package markdown

import (
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// Heading is one section heading of a rendered document.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Document is the pipeline output for one source file.
type Document struct {
	SourcePath  string
	Frontmatter frontmatter.Frontmatter
	// Body is the Markdown source after the frontmatter header.
	Body     []byte
	HTML     []byte
	Headings []Heading
}
