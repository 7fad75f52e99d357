// Package preview serves a built site locally, rebuilding it when content
// changes and pushing live-reload events to open browsers.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
)

const shutdownTimeout = 5 * time.Second

// Builder produces a site build. *site.Builder satisfies it.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Options configures a Server.
type Options struct {
	Addr      string
	OutputDir string
	// WatchDirs are watched recursively; missing entries are skipped.
	WatchDirs       []string
	Debounce        time.Duration
	RebuildInterval time.Duration
	LiveReload      bool
}

// OptionsFromConfig derives server options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:            net.JoinHostPort(cfg.Serve.Host, strconv.Itoa(cfg.Serve.Port)),
		OutputDir:       cfg.Resolve(cfg.Paths.Output),
		WatchDirs:       []string{cfg.Resolve(cfg.Paths.Content), cfg.Resolve(cfg.Paths.Static)},
		Debounce:        cfg.Serve.Debounce,
		RebuildInterval: cfg.Serve.RebuildInterval,
		LiveReload:      cfg.Serve.LiveReloadEnabled(),
	}
}

// Option customizes a Server.
type Option func(*Server)

// WithRecorder sets the metrics recorder used for live-reload gauges.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetricsRegistry exposes reg at /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is the local preview server.
type Server struct {
	opts     Options
	builder  Builder
	hub      *Hub
	status   buildStatus
	recorder metrics.Recorder
	registry *prometheus.Registry
	logger   *slog.Logger
	errs     *ferrors.HTTPErrorAdapter

	buildMu  sync.Mutex
	requests chan struct{}
}

// New returns a server that rebuilds with b and serves opts.OutputDir.
func New(b Builder, opts Options, options ...Option) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	s := &Server{
		opts:     opts,
		builder:  b,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		requests: make(chan struct{}, 1),
	}
	for _, o := range options {
		o(s)
	}
	s.hub = NewHub(s.recorder, s.logger)
	s.errs = ferrors.NewHTTPErrorAdapter(s.logger)
	return s
}

// Hub exposes the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Status reports the current build state.
func (s *Server) Status() Status { return s.status.snapshot() }

// Rebuild runs one build. A failure keeps the last good output in place and
// is announced to live-reload clients.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report, err := s.builder.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.status.setError(err)
		s.hub.BroadcastError(err.Error())
		return err
	}
	s.status.setSuccess(report)
	s.hub.BroadcastBuild(report.BuildID)
	return nil
}

// RequestRebuild queues a rebuild. At most one request waits while another
// build runs; further requests fold into it.
func (s *Server) RequestRebuild() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.requests:
			s.logger.Info("Change detected; rebuilding site")
			if err := s.Rebuild(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Rebuild failed; serving last good build", logfields.Error(err))
			}
		}
	}
}

// Handler returns the HTTP routes of the preview server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.registry))
	}
	if s.opts.LiveReload {
		r.Method(http.MethodGet, "/livereload", s.hub)
	}
	r.Get("/*", s.handleSite)
	r.Head("/*", s.handleSite)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(ww.Status()),
			logfields.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.status.snapshot()
	code := http.StatusOK
	if !st.Healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	report, ok := s.status.lastGood()
	if !ok {
		b := ferrors.RuntimeError("no successful build yet")
		if st := s.status.snapshot(); st.Error != "" {
			b = b.WithContext("last_error", st.Error)
		}
		s.errs.WriteErrorResponse(w, r, b.Build())
		return
	}

	route, file, dir, err := s.resolve(r.URL.Path)
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	if dir && !strings.HasSuffix(r.URL.Path, "/") {
		// Relative links in a page resolve against its directory.
		target := strings.TrimSuffix(route, "/") + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}
	f, err := os.Open(file)
	if err != nil {
		s.errs.WriteErrorResponse(w, r, ferrors.NotFoundError("page not found").WithContext("path", r.URL.Path).Build())
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		s.errs.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat file").Build())
		return
	}

	if route != "" {
		if fp, ok := report.Fingerprint(route); ok && fp != "" {
			w.Header().Set("ETag", `"`+fp+`"`)
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// resolve maps a request path to a file in the output directory. Directory
// paths and .../index.html name the page route they serve; dir reports a
// directory path.
func (s *Server) resolve(urlPath string) (route, file string, dir bool, err error) {
	clean := path.Clean("/" + urlPath)
	file = filepath.Join(s.opts.OutputDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	info, statErr := os.Stat(file)
	switch {
	case statErr == nil && info.IsDir():
		route, dir = clean, true
		file = filepath.Join(file, "index.html")
		info, statErr = os.Stat(file)
	case path.Base(clean) == "index.html":
		route = path.Dir(clean)
	}
	if statErr != nil || info.IsDir() {
		return "", "", false, ferrors.NotFoundError("page not found").WithContext("path", clean).Build()
	}
	return route, file, dir, nil
}

// Run performs an initial build, listens on the configured address and
// serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to listen").
			WithContext("addr", s.opts.Addr).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener, which it closes on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Rebuild(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Initial build failed; waiting for changes", logfields.Error(err))
	}

	watcher, err := NewWatcher(s.opts.WatchDirs, s.logger, s.opts.OutputDir)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()

	debouncer := NewDebouncer(s.opts.Debounce, s.RequestRebuild)
	defer debouncer.Stop()

	if s.opts.RebuildInterval > 0 {
		p, err := newPeriodic(s.opts.RebuildInterval, s.RequestRebuild, s.logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		p.start()
		defer p.stop()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		watcher.Run(runCtx, debouncer.Trigger)
	}()
	go func() {
		defer wg.Done()
		s.worker(runCtx)
	}()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.logger.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = ferrors.WrapError(err, ferrors.CategoryRuntime, "preview server failed").Build()
		}
	}

	s.logger.Info("Shutting down preview server")
	s.hub.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	cancel()
	wg.Wait()
	return runErr
}
