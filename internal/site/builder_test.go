package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/page"
)

var libernetContent = map[string]string{
	"index.md": "---\ntitle: Welcome\n---\nLibernet docs.\n",
	"user/getting-started.md": "---\ntitle: Getting Started\ndescription: First steps\n---\n" +
		"## Install\n\n> [!warning] Back up your keys\n> Keys cannot be recovered.\n\n## Run\n\nDone.\n",
	"user/node-turnup.md":   "# Turnup\n\n> [!note]\n> Needs a public IP.\n",
	"dev/architecture.md":   "---\ntitle: Architecture\n---\nLayers.\n",
	"dev/protocol.mdx":      "---\ntitle: Wire Protocol\n---\n<div class=\"frame\">raw</div>\n",
	"dev/wallet/v1/page.md": "---\ntitle: Wallet Format V1\n---\nBytes.\n",
}

type countingRecorder struct {
	metrics.NoopRecorder
	pages    int
	callouts int
	outcome  metrics.BuildOutcomeLabel
}

func (r *countingRecorder) AddPages(n int)                              { r.pages += n }
func (r *countingRecorder) AddCallouts(n int)                           { r.callouts += n }
func (r *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) { r.outcome = o }

func newTestBuilder(t *testing.T, content map[string]string, mutate func(*Options), opts ...Option) (*Builder, Options) {
	t.Helper()
	root := t.TempDir()
	o := Options{
		ContentDir: filepath.Join(root, "content"),
		OutputDir:  filepath.Join(root, "public"),
		Workers:    3,
		Profile:    markdown.ProfileFull,
		Site:       page.Site{Title: "Libernet Documentation", Description: "Libernet Documentation", Icon: "/favicon.svg"},
	}
	require.NoError(t, os.MkdirAll(o.ContentDir, 0o755))
	writeTree(t, o.ContentDir, content)
	if mutate != nil {
		mutate(&o)
	}
	b, err := NewBuilder(o, opts...)
	require.NoError(t, err)
	return b, o
}

func readPage(t *testing.T, out, route string) string {
	t.Helper()
	data, err := os.ReadFile(PagePath(out, route))
	require.NoError(t, err)
	return string(data)
}

func TestBuild_EndToEnd(t *testing.T) {
	rec := &countingRecorder{}
	b, o := newTestBuilder(t, libernetContent, nil, WithRecorder(rec))

	report, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.BuildID, 36)
	assert.Equal(t, []string{"/", "/dev/architecture", "/dev/protocol", "/dev/wallet/v1", "/user/getting-started", "/user/node-turnup"}, report.Routes())
	assert.Equal(t, 2, report.Callouts)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, metrics.BuildOutcomeSuccess, report.Outcome)
	assert.Equal(t, 6, rec.pages)
	assert.Equal(t, 2, rec.callouts)
	assert.Equal(t, metrics.BuildOutcomeSuccess, rec.outcome)

	gs := readPage(t, o.OutputDir, "/user/getting-started")
	assert.Contains(t, gs, "<h1>Getting Started</h1>")
	assert.Contains(t, gs, `<aside class="callout callout-warning" role="note"><p class="callout-title">Back up your keys</p>`)
	assert.NotContains(t, gs, "data-callout")
	assert.Contains(t, gs, `rel="prev" href="/"`)
	assert.Contains(t, gs, `rel="next" href="/user/node-turnup"`)
	assert.Contains(t, gs, `<a href="#install">Install</a>`)

	turnup := readPage(t, o.OutputDir, "/user/node-turnup")
	assert.Contains(t, turnup, "<h1>Node Turnup</h1>", "registry title used when frontmatter has none")
	assert.Contains(t, turnup, `<p class="callout-title">Note</p>`)

	proto := readPage(t, o.OutputDir, "/dev/protocol")
	assert.Contains(t, proto, `<div class="frame">raw</div>`)

	home := readPage(t, o.OutputDir, "/")
	assert.Contains(t, home, "<h1>Welcome</h1>")
	assert.NotContains(t, home, `rel="prev"`)

	for _, asset := range []string{"favicon.svg", "assets/style.css", "assets/highlight.css", "assets/logo.svg"} {
		assert.FileExists(t, filepath.Join(o.OutputDir, filepath.FromSlash(asset)))
	}

	fp, ok := report.Fingerprint("/dev/architecture")
	assert.True(t, ok)
	assert.NotEmpty(t, fp)
}

func TestBuild_TitleOverride(t *testing.T) {
	b, o := newTestBuilder(t, libernetContent, func(o *Options) {
		o.TitleOverrides = map[string]string{"/dev/protocol": "Protocol Reference"}
	})
	_, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, readPage(t, o.OutputDir, "/dev/protocol"), "<h1>Protocol Reference</h1>")
}

func TestBuild_NavigationCoverageWarnings(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{"index.md": "Home\n", "extra.md": "Extra\n"}, nil)

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 5)
	assert.Equal(t, metrics.BuildOutcomeWarning, report.Outcome)
	assert.Contains(t, strings.Join(report.Warnings, "\n"), "/dev/wallet/v1")
}

func TestBuild_MalformedDocumentKeepsPreviousOutput(t *testing.T) {
	b, o := newTestBuilder(t, libernetContent, nil)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	writeTree(t, o.ContentDir, map[string]string{"dev/architecture.md": "---\ntitle: [broken\n---\n"})
	report, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, metrics.BuildOutcomeFailed, report.Outcome)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryContent, ce.Category())
	doc, _ := ce.Context().GetString("document")
	assert.Equal(t, "dev/architecture.md", doc)

	assert.Contains(t, readPage(t, o.OutputDir, "/dev/architecture"), "<h1>Architecture</h1>")

	entries, err := os.ReadDir(filepath.Dir(o.OutputDir))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "staging", "staging directory leaked")
	}
}

func TestBuild_CleanOutput(t *testing.T) {
	b, o := newTestBuilder(t, libernetContent, nil)
	require.NoError(t, os.MkdirAll(o.OutputDir, 0o755))
	stale := filepath.Join(o.OutputDir, "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuild_StaticDir(t *testing.T) {
	b, o := newTestBuilder(t, libernetContent, func(o *Options) {
		o.StaticDir = filepath.Join(filepath.Dir(o.ContentDir), "static")
		writeTree(t, o.StaticDir, map[string]string{"img/diagram.svg": "<svg/>", "favicon.svg": "<svg id=\"custom\"/>"})
	})
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(o.OutputDir, "img", "diagram.svg"))
	favicon, err := os.ReadFile(filepath.Join(o.OutputDir, "favicon.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(favicon), "custom")
}

func TestBuild_Canceled(t *testing.T) {
	b, o := newTestBuilder(t, libernetContent, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := b.Build(ctx)
	require.Error(t, err)
	assert.Equal(t, metrics.BuildOutcomeCanceled, report.Outcome)
	assert.NoDirExists(t, o.OutputDir)
}

func TestBuild_DuplicateRouteFails(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{"a.md": "x", "a/index.md": "y"}, nil)
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestNewBuilder_Validation(t *testing.T) {
	_, err := NewBuilder(Options{})
	require.Error(t, err)

	_, err = NewBuilder(Options{ContentDir: "c", OutputDir: "o", Profile: "fancy"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestBuild_Duration(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{"index.md": "x"}, nil)
	report, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.Duration, time.Duration(0))
}
