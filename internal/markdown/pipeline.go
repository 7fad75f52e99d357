// Package markdown configures the goldmark content pipeline that turns
// Markdown and MDX sources into HTML fragments.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/anchor"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// ExtensionPattern selects the files the pipeline applies to.
var ExtensionPattern = regexp.MustCompile(`\.(md|mdx)$`)

// Options configures a Pipeline.
type Options struct {
	Profile Profile
	// HighlightStyle names the chroma style used for the stylesheet.
	HighlightStyle string
}

// Pipeline converts documents with a fixed stage set. It is safe for
// concurrent use.
type Pipeline struct {
	profile Profile
	stages  Stages
	style   string
	md      goldmark.Markdown
}

// New builds the pipeline for opts.Profile.
func New(opts Options) (*Pipeline, error) {
	stages, err := StagesFor(opts.Profile)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid pipeline profile").
			WithContext("profile", string(opts.Profile)).
			Build()
	}
	profile := opts.Profile
	if profile == "" {
		profile = ProfileFull
	}
	style := opts.HighlightStyle
	if style == "" {
		style = DefaultHighlightStyle
	}

	var exts []goldmark.Extender
	var parserOpts []parser.Option
	for _, st := range stages.Source {
		switch st {
		case StageGFM:
			exts = append(exts, extension.GFM)
		case StageCallout:
			exts = append(exts, Callouts)
		case StageHighlight:
			exts = append(exts, highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			))
		case StageMath:
			exts = append(exts, passthrough.New(passthrough.Config{
				InlineDelimiters: []passthrough.Delimiters{{Open: "$", Close: "$"}},
				BlockDelimiters:  []passthrough.Delimiters{{Open: "$$", Close: "$$"}},
			}))
		}
	}
	for _, st := range stages.Output {
		switch st {
		case StageHeadingIDs:
			parserOpts = append(parserOpts, parser.WithAutoHeadingID())
		case StageAutolinkHeadings:
			exts = append(exts, &anchor.Extender{
				Texter:   anchor.Text("#"),
				Position: anchor.Before,
				Attributer: anchor.Attributes{
					"class":       "heading-anchor",
					"aria-hidden": "true",
				},
			})
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		// MDX sources carry raw HTML; it is passed through untouched.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	return &Pipeline{profile: profile, stages: stages, style: style, md: md}, nil
}

// Profile reports the configured profile.
func (p *Pipeline) Profile() Profile { return p.profile }

// Stages reports the ordered source and output stages.
func (p *Pipeline) Stages() Stages {
	return Stages{
		Source: append([]Stage(nil), p.stages.Source...),
		Output: append([]Stage(nil), p.stages.Output...),
	}
}

// HighlightStyle reports the chroma style used by the highlight stage.
func (p *Pipeline) HighlightStyle() string { return p.style }

// Matches reports whether path is handled by the pipeline.
func (p *Pipeline) Matches(path string) bool {
	return ExtensionPattern.MatchString(path)
}

// Convert runs source through every stage. Malformed frontmatter fails with
// a content error naming the document.
func (p *Pipeline) Convert(path string, source []byte) (*Document, error) {
	fm, body, err := frontmatter.Parse(source)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "malformed document").
			WithContext("document", path).
			WithContext("stage", string(StageFrontmatter)).
			Build()
	}

	ctx := parser.NewContext()
	root := p.md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	headings := collectHeadings(root, body)

	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, body, root); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to render document").
			WithContext("document", path).
			Build()
	}

	return &Document{
		SourcePath:  path,
		Frontmatter: fm,
		Body:        body,
		HTML:        buf.Bytes(),
		Headings:    headings,
	}, nil
}

func collectHeadings(root gast.Node, source []byte) []Heading {
	var out []Heading
	_ = gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		h, ok := n.(*gast.Heading)
		if !ok {
			return gast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: strings.TrimSpace(plainText(h, source))}
		if id, ok := h.AttributeString("id"); ok {
			switch v := id.(type) {
			case []byte:
				heading.ID = string(v)
			case string:
				heading.ID = v
			}
		}
		out = append(out, heading)
		return gast.WalkSkipChildren, nil
	})
	return out
}

// plainText concatenates the literal text below n.
func plainText(n gast.Node, source []byte) string {
	var sb strings.Builder
	_ = gast.Walk(n, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if c.Kind() == anchor.Kind {
			return gast.WalkSkipChildren, nil
		}
		switch v := c.(type) {
		case *gast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gast.String:
			sb.Write(v.Value)
		}
		return gast.WalkContinue, nil
	})
	return sb.String()
}
