package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/page"
	"git.home.luguber.info/inful/docsite/internal/site"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBuilder struct {
	mu    sync.Mutex
	out   string
	calls int
	err   error
}

func (f *fakeBuilder) Build(context.Context) (*site.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return &site.Report{Outcome: metrics.BuildOutcomeFailed}, f.err
	}
	files := map[string]string{
		"index.html":                      fmt.Sprintf("<h1>home %d</h1>", f.calls),
		"user/getting-started/index.html": "<h1>Getting Started</h1>",
		"assets/style.css":                "body{}",
	}
	for rel, content := range files {
		p := filepath.Join(f.out, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			return nil, err
		}
	}
	return &site.Report{
		BuildID: fmt.Sprintf("build-%d", f.calls),
		Outcome: metrics.BuildOutcomeSuccess,
		Pages: []site.PageResult{
			{Route: "/", Fingerprint: "fp-home"},
			{Route: "/user/getting-started", Fingerprint: "fp-gs"},
		},
	}, nil
}

func (f *fakeBuilder) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBuilder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newFakeServer(t *testing.T, opts ...Option) (*Server, *fakeBuilder) {
	t.Helper()
	fb := &fakeBuilder{out: t.TempDir()}
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(fb, Options{OutputDir: fb.out, LiveReload: true}, opts...), fb
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_NoBuildYet(t *testing.T) {
	s, _ := newFakeServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/").Code)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Healthy)
}

func TestHandler_ServesPagesWithETag(t *testing.T) {
	s, _ := newFakeServer(t)
	require.NoError(t, s.Rebuild(context.Background()))
	h := s.Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "home 1")
	assert.Equal(t, `"fp-home"`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	for _, target := range []string{"/user/getting-started/", "/user/getting-started/index.html"} {
		rec := get(t, h, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, `"fp-gs"`, rec.Header().Get("ETag"), target)
	}

	assert.Equal(t, http.StatusNotModified, get(t, h, "/user/getting-started/", "If-None-Match", `"fp-gs"`).Code)

	css := get(t, h, "/assets/style.css")
	assert.Equal(t, http.StatusOK, css.Code)
	assert.Empty(t, css.Header().Get("ETag"))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/../../etc/passwd").Code)
}

func TestHandler_RedirectsDirectoryToTrailingSlash(t *testing.T) {
	s, _ := newFakeServer(t)
	require.NoError(t, s.Rebuild(context.Background()))
	h := s.Handler()

	tests := map[string]string{
		"/user/getting-started":         "/user/getting-started/",
		"/user/getting-started?x=1":     "/user/getting-started/?x=1",
		"//user/getting-started":        "/user/getting-started/",
		"/user/../user/getting-started": "/user/getting-started/",
	}
	for target, want := range tests {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, target)
		assert.Equal(t, want, rec.Header().Get("Location"), target)
	}

	assert.Equal(t, http.StatusOK, get(t, h, "/assets/style.css").Code)
}

func TestHandler_Head(t *testing.T) {
	s, _ := newFakeServer(t)
	require.NoError(t, s.Rebuild(context.Background()))

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRebuild_FailureKeepsLastGoodBuild(t *testing.T) {
	s, fb := newFakeServer(t)
	require.NoError(t, s.Rebuild(context.Background()))

	fb.fail(ferrors.ContentError("malformed document").WithContext("document", "dev/protocol.mdx").Build())
	err := s.Rebuild(context.Background())
	require.Error(t, err)

	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "home 1")

	st := s.Status()
	assert.True(t, st.Healthy)
	assert.Equal(t, "build-1", st.BuildID)
	assert.Contains(t, st.Error, "malformed document")

	health := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestHandler_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	s, _ := newFakeServer(t, WithRecorder(metrics.NewPrometheusRecorder(reg)), WithMetricsRegistry(reg))

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docsite_livereload_clients")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandler_LiveReloadDisabled(t *testing.T) {
	fb := &fakeBuilder{out: t.TempDir()}
	s := New(fb, Options{OutputDir: fb.out}, WithLogger(discardLogger()))
	require.NoError(t, s.Rebuild(context.Background()))
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/livereload").Code)
}

func TestRequestRebuild_Coalesces(t *testing.T) {
	s, _ := newFakeServer(t)
	s.RequestRebuild()
	s.RequestRebuild()
	s.RequestRebuild()
	assert.Len(t, s.requests, 1)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "127.0.0.1:1314", opts.Addr)
	assert.Equal(t, 300*time.Millisecond, opts.Debounce)
	assert.True(t, opts.LiveReload)
	assert.Len(t, opts.WatchDirs, 2)
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestServe_RebuildsOnContentChange(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(content, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "index.md"), []byte("# Home\n"), 0o600))

	builder, err := site.NewBuilder(site.Options{
		ContentDir: content,
		OutputDir:  filepath.Join(root, "public"),
		Profile:    markdown.ProfileFull,
		Site:       page.Site{Title: "Libernet Documentation"},
		LiveReload: true,
	}, site.WithLogger(discardLogger()))
	require.NoError(t, err)

	s := New(builder, Options{
		OutputDir:  filepath.Join(root, "public"),
		WatchDirs:  []string{content},
		Debounce:   50 * time.Millisecond,
		LiveReload: true,
	}, WithLogger(discardLogger()))

	ln := listen(t)
	base := "http://" + ln.Addr().String()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	home, err := http.Get(base + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(home.Body)
	_ = home.Body.Close()
	assert.Contains(t, string(body), "/assets/livereload.js")

	events, _ := subscribe(t, base+"/livereload")
	baseline := nextEvent(t, events)
	require.True(t, strings.HasPrefix(baseline, `{"build":`))

	require.NoError(t, os.MkdirAll(filepath.Join(content, "user"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "user", "getting-started.md"), []byte("# Start\n"), 0o600))

	select {
	case ev := <-events:
		assert.NotEqual(t, baseline, ev)
		assert.Contains(t, ev, `"build"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild event after content change")
	}

	resp, err := http.Get(base + "/user/getting-started")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_PeriodicRebuild(t *testing.T) {
	fb := &fakeBuilder{out: t.TempDir()}
	s := New(fb, Options{OutputDir: fb.out, RebuildInterval: 100 * time.Millisecond}, WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listen(t)) }()

	require.Eventually(t, func() bool { return fb.Calls() >= 3 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRun_ListenFailure(t *testing.T) {
	ln := listen(t)
	defer func() { _ = ln.Close() }()

	fb := &fakeBuilder{out: t.TempDir()}
	s := New(fb, Options{Addr: ln.Addr().String(), OutputDir: fb.out}, WithLogger(discardLogger()))
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}
