package page

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/nav"
)

func testSite() Site {
	return SiteFromConfig(config.Default().Site)
}

func newComposer(t *testing.T, opts Options) *Composer {
	t.Helper()
	if opts.Site.Title == "" {
		opts.Site = testSite()
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestResolveTitle(t *testing.T) {
	r := nav.Default()
	tests := []struct {
		name     string
		override string
		fm       string
		route    string
		want     string
	}{
		{"override wins", "Literal", "From FM", "/dev/protocol", "Literal"},
		{"frontmatter", "", "From FM", "/dev/protocol", "From FM"},
		{"registry", "", "", "/dev/protocol", "Wire Protocol"},
		{"route fallback", "", "", "/guides/key-rotation", "Key Rotation"},
		{"root fallback", "", "", "/", "Introduction"},
		{"blank values ignored", "  ", " ", "/user/node-turnup", "Node Turnup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTitle(tt.override, tt.fm, r, tt.route))
		})
	}
}

func TestTitleFromRoute(t *testing.T) {
	assert.Equal(t, "Home", TitleFromRoute("/"))
	assert.Equal(t, "V1", TitleFromRoute("/dev/wallet/v1"))
	assert.Equal(t, "Getting Started", TitleFromRoute("/user/getting_started"))
}

func TestBuildTOC(t *testing.T) {
	toc := BuildTOC([]markdown.Heading{
		{Level: 1, ID: "top", Text: "Top"},
		{Level: 2, ID: "a", Text: "A"},
		{Level: 3, ID: "b", Text: "B"},
		{Level: 4, ID: "c", Text: "C"},
		{Level: 2, Text: "No id"},
	})
	assert.Equal(t, []TOCEntry{{Level: 2, ID: "a", Text: "A"}, {Level: 3, ID: "b", Text: "B"}}, toc)
}

func TestPage_Neighbors(t *testing.T) {
	c := newComposer(t, Options{})

	p := c.Page(Input{Route: "/user/node-turnup"})
	require.NotNil(t, p.Prev)
	require.NotNil(t, p.Next)
	assert.Equal(t, "/user/getting-started", p.Prev.Href)
	assert.Equal(t, "/dev/architecture", p.Next.Href)

	first := c.Page(Input{Route: "/"})
	assert.Nil(t, first.Prev)
	require.NotNil(t, first.Next)

	last := c.Page(Input{Route: "/dev/wallet/v1"})
	assert.Nil(t, last.Next)

	orphan := c.Page(Input{Route: "/not/in/nav"})
	assert.Nil(t, orphan.Prev)
	assert.Nil(t, orphan.Next)
}

func render(t *testing.T, c *Composer, in Input) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := c.Compose(&buf, in)
	require.NoError(t, err)
	return buf.String()
}

func TestCompose_HeaderUsesFrontmatterTitle(t *testing.T) {
	c := newComposer(t, Options{})
	out := render(t, c, Input{
		Route:       "/dev/protocol",
		Frontmatter: frontmatter.Frontmatter{Title: "Protocol & Frames", Description: "How bytes move"},
		Body:        []byte(`<p class="x">body</p>`),
	})

	assert.Contains(t, out, "<h1>Protocol &amp; Frames</h1>")
	assert.Contains(t, out, "<title>Protocol &amp; Frames - Libernet Documentation</title>")
	assert.Contains(t, out, `<meta name="description" content="How bytes move">`)
	assert.Contains(t, out, `<p class="lead">How bytes move</p>`)
	assert.Contains(t, out, `<p class="x">body</p>`)
}

func TestCompose_Shell(t *testing.T) {
	c := newComposer(t, Options{})
	out := render(t, c, Input{Route: "/user/getting-started", Body: []byte("<p>x</p>")})

	assert.Contains(t, out, `<meta name="author" content="The Libernet team">`)
	assert.Contains(t, out, `<link rel="author" href="https://libernet.xyz">`)
	assert.Contains(t, out, `<link rel="icon" href="/favicon.svg">`)
	assert.Contains(t, out, "family=Inter")
	assert.Contains(t, out, "family=Lexend")
	assert.Contains(t, out, `<meta name="description" content="Libernet Documentation">`)

	// Sections in declared order with the current link highlighted.
	intro := strings.Index(out, ">Introduction</h2>")
	user := strings.Index(out, ">User Guides</h2>")
	dev := strings.Index(out, ">Developer Guides</h2>")
	assert.True(t, intro < user && user < dev, "sections out of order")
	assert.Contains(t, out, `<a href="/user/getting-started" class="active" aria-current="page">Getting Started</a>`)
	assert.Contains(t, out, `<a href="/user/node-turnup">Node Turnup</a>`)

	assert.Contains(t, out, `rel="prev" href="/"`)
	assert.Contains(t, out, `rel="next" href="/user/node-turnup"`)
	assert.NotContains(t, out, "katex")
	assert.NotContains(t, out, "livereload.js")
	assert.NotContains(t, out, `rel="canonical"`)
}

func TestCompose_CanonicalLink(t *testing.T) {
	cfg := config.Default().Site
	cfg.BaseURL = "https://docs.libernet.xyz/"
	c := newComposer(t, Options{Site: SiteFromConfig(cfg)})

	out := render(t, c, Input{Route: "/dev/protocol"})
	assert.Contains(t, out, `<link rel="canonical" href="https://docs.libernet.xyz/dev/protocol/">`)

	out = render(t, c, Input{Route: "/"})
	assert.Contains(t, out, `<link rel="canonical" href="https://docs.libernet.xyz/">`)
}

func TestCompose_NoPagerForOrphan(t *testing.T) {
	c := newComposer(t, Options{})
	out := render(t, c, Input{Route: "/orphan"})
	assert.NotContains(t, out, `class="pager"`)
	assert.Contains(t, out, "<h1>Orphan</h1>")
}

func TestCompose_TOCAndOptionalScripts(t *testing.T) {
	c := newComposer(t, Options{Math: true, LiveReload: true})
	out := render(t, c, Input{
		Route:    "/dev/architecture",
		Headings: []markdown.Heading{{Level: 2, ID: "layers", Text: "Layers"}},
	})

	assert.Contains(t, out, `<a href="#layers">Layers</a>`)
	assert.Contains(t, out, "katex.min.js")
	assert.Contains(t, out, `<script src="/assets/livereload.js"></script>`)
}

func TestAssets(t *testing.T) {
	for _, name := range []string{"style.css", "logo.svg", "favicon.svg", "livereload.js"} {
		_, err := fs.Stat(Assets(), name)
		assert.NoError(t, err, name)
	}
}
