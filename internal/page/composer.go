package page

import (
	"bytes"
	"html/template"
	"io"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/nav"
)

// Page is a fully resolved article ready for rendering.
type Page struct {
	Route       string
	Title       string
	Description string
	Body        template.HTML
	Prev        *nav.Link
	Next        *nav.Link
	TOC         []TOCEntry
}

// Input is everything the composer needs to know about one document.
type Input struct {
	Route         string
	TitleOverride string
	Frontmatter   frontmatter.Frontmatter
	// Body is transformed HTML and is emitted without escaping.
	Body     []byte
	Headings []markdown.Heading
}

// Options configures a Composer.
type Options struct {
	Site       Site
	Registry   *nav.Registry
	Math       bool
	LiveReload bool
}

// Composer renders pages inside the root shell. It holds no per-page state
// and is safe for concurrent use.
type Composer struct {
	opts Options
	tmpl *template.Template
}

// New parses the embedded layouts.
func New(opts Options) (*Composer, error) {
	if opts.Registry == nil {
		opts.Registry = nav.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to parse page templates").Build()
	}
	return &Composer{opts: opts, tmpl: tmpl}, nil
}

// Page resolves title, neighbors and table of contents for in.
func (c *Composer) Page(in Input) Page {
	prev, next := c.opts.Registry.Neighbors(in.Route)
	return Page{
		Route:       in.Route,
		Title:       ResolveTitle(in.TitleOverride, in.Frontmatter.Title, c.opts.Registry, in.Route),
		Description: in.Frontmatter.Description,
		Body:        template.HTML(in.Body), //nolint:gosec // pipeline output is trusted
		Prev:        prev,
		Next:        next,
		TOC:         BuildTOC(in.Headings),
	}
}

type navLink struct {
	Title  string
	Href   string
	Active bool
}

type navSection struct {
	Title string
	Links []navLink
}

type shellData struct {
	Site          Site
	Page          Page
	DocumentTitle string
	Description   string
	Canonical     string
	Sections      []navSection
	Math          bool
	LiveReload    bool
}

// Render writes the complete HTML document for p.
func (c *Composer) Render(w io.Writer, p Page) error {
	data := shellData{
		Site:          c.opts.Site,
		Page:          p,
		DocumentTitle: documentTitle(p.Title, c.opts.Site.Title),
		Description:   p.Description,
		Canonical:     c.opts.Site.Canonical(p.Route),
		Sections:      c.sections(p.Route),
		Math:          c.opts.Math,
		LiveReload:    c.opts.LiveReload,
	}
	if data.Description == "" {
		data.Description = c.opts.Site.Description
	}

	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, "shell", data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "failed to render page").
			WithContext("route", p.Route).
			Build()
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Compose is Page followed by Render.
func (c *Composer) Compose(w io.Writer, in Input) (Page, error) {
	p := c.Page(in)
	return p, c.Render(w, p)
}

func (c *Composer) sections(route string) []navSection {
	sections := c.opts.Registry.Sections()
	out := make([]navSection, 0, len(sections))
	for _, s := range sections {
		ns := navSection{Title: s.Title}
		for _, l := range s.Links {
			ns.Links = append(ns.Links, navLink{Title: l.Title, Href: l.Href, Active: l.Href == route})
		}
		out = append(out, ns)
	}
	return out
}

func documentTitle(page, site string) string {
	switch {
	case page == "" || page == site:
		return site
	case site == "":
		return page
	default:
		return page + " - " + site
	}
}
