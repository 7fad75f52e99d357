// Package site builds the static documentation site: it discovers content,
// runs every document through the pipeline and the callout transform,
// composes pages and publishes the output directory.
package site

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/callout"
	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/page"
)

// Build stage names used for logging and metrics.
const (
	StageDiscover = "discover"
	StageAssets   = "assets"
	StageRender   = "render"
	StagePublish  = "publish"
)

// Options configures a Builder.
type Options struct {
	ContentDir     string
	OutputDir      string
	StaticDir      string
	Workers        int
	Profile        markdown.Profile
	HighlightStyle string
	Site           page.Site
	Registry       *nav.Registry
	// TitleOverrides maps routes to literal page titles.
	TitleOverrides map[string]string
	LiveReload     bool
}

// OptionsFromConfig derives builder options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config, registry *nav.Registry) Options {
	overrides := make(map[string]string, len(cfg.Pages))
	for route := range cfg.Pages {
		if t, ok := cfg.TitleOverride(route); ok {
			overrides[route] = t
		}
	}
	return Options{
		ContentDir:     cfg.Resolve(cfg.Paths.Content),
		OutputDir:      cfg.Resolve(cfg.Paths.Output),
		StaticDir:      cfg.Resolve(cfg.Paths.Static),
		Workers:        cfg.Build.Workers,
		Profile:        markdown.Profile(cfg.Build.Profile),
		HighlightStyle: cfg.Build.HighlightStyle,
		Site:           page.SiteFromConfig(cfg.Site),
		Registry:       registry,
		TitleOverrides: overrides,
	}
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Builder runs full site builds. A Builder may be reused; concurrent calls
// to Build must write to different output directories.
type Builder struct {
	opts     Options
	pipeline *markdown.Pipeline
	composer *page.Composer
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewBuilder validates opts and prepares the pipeline and layouts.
func NewBuilder(opts Options, options ...Option) (*Builder, error) {
	if opts.ContentDir == "" || opts.OutputDir == "" {
		return nil, ferrors.ValidationError("content and output directories are required").Build()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Registry == nil {
		opts.Registry = nav.Default()
	}

	pipeline, err := markdown.New(markdown.Options{Profile: opts.Profile, HighlightStyle: opts.HighlightStyle})
	if err != nil {
		return nil, err
	}
	composer, err := page.New(page.Options{
		Site:       opts.Site,
		Registry:   opts.Registry,
		Math:       pipeline.Stages().Has(markdown.StageMath),
		LiveReload: opts.LiveReload,
	})
	if err != nil {
		return nil, err
	}

	b := &Builder{
		opts:     opts,
		pipeline: pipeline,
		composer: composer,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(b)
	}
	return b, nil
}

// Pipeline exposes the configured content pipeline.
func (b *Builder) Pipeline() *markdown.Pipeline { return b.pipeline }

// Discover lists the content sources without building.
func (b *Builder) Discover() ([]Source, error) {
	return Discover(b.opts.ContentDir, b.pipeline.Matches)
}

// Build renders the whole site into a staging directory and publishes it.
// Any document failure aborts the build and leaves the previous output intact.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{BuildID: uuid.NewString(), Start: time.Now()}
	log := b.logger.With(logfields.BuildID(report.BuildID), logfields.Profile(string(b.pipeline.Profile())))
	log.Info("Build started", logfields.Path(b.opts.ContentDir))

	err := b.build(ctx, log, report)
	report.Duration = time.Since(report.Start)
	b.recorder.ObserveBuildDuration(report.Duration)

	switch {
	case err != nil && ctx.Err() != nil:
		report.Outcome = metrics.BuildOutcomeCanceled
	case err != nil:
		report.Outcome = metrics.BuildOutcomeFailed
	case len(report.Warnings) > 0:
		report.Outcome = metrics.BuildOutcomeWarning
	default:
		report.Outcome = metrics.BuildOutcomeSuccess
	}
	b.recorder.IncBuildOutcome(report.Outcome)

	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.Since(report.Start))
		return report, err
	}
	b.recorder.AddPages(len(report.Pages))
	b.recorder.AddCallouts(report.Callouts)
	log.Info("Build completed",
		logfields.Pages(len(report.Pages)),
		logfields.Callouts(report.Callouts),
		slog.Int("warnings", len(report.Warnings)),
		logfields.Since(report.Start))
	return report, nil
}

func (b *Builder) build(ctx context.Context, log *slog.Logger, report *Report) error {
	var sources []Source
	if err := b.stage(ctx, log, StageDiscover, func() error {
		var err error
		sources, err = b.Discover()
		return err
	}); err != nil {
		return err
	}
	report.Warnings = append(report.Warnings, b.coverageWarnings(log, sources)...)

	st, err := newStaging(b.opts.OutputDir, report.BuildID)
	if err != nil {
		return err
	}
	published := false
	defer func() {
		if !published {
			st.discard()
		}
	}()

	if err := b.stage(ctx, log, StageAssets, func() error {
		n, err := b.writeAssets(st)
		report.Assets = n
		return err
	}); err != nil {
		return err
	}

	if err := b.stage(ctx, log, StageRender, func() error {
		pages, err := b.renderAll(ctx, log, st, sources)
		if err != nil {
			return err
		}
		report.Pages = pages
		for _, p := range pages {
			report.Callouts += p.Callouts
		}
		return nil
	}); err != nil {
		return err
	}

	if err := b.stage(ctx, log, StagePublish, st.commit); err != nil {
		return err
	}
	published = true
	return nil
}

func (b *Builder) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		b.recorder.IncStageResult(name, metrics.ResultCanceled)
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").WithContext("stage", name).Build()
	}
	start := time.Now()
	err := fn()
	b.recorder.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		b.recorder.IncStageResult(name, metrics.ResultFatal)
		return err
	}
	b.recorder.IncStageResult(name, metrics.ResultSuccess)
	log.Debug("Stage completed", logfields.Stage(name), logfields.Since(start))
	return nil
}

// coverageWarnings reports navigation links with no document behind them.
// Documents outside the navigation are built but only logged.
func (b *Builder) coverageWarnings(log *slog.Logger, sources []Source) []string {
	have := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		have[s.Route] = struct{}{}
		if !b.opts.Registry.Contains(s.Route) {
			log.Debug("Document not in navigation", logfields.Route(s.Route), logfields.Path(s.Path))
		}
	}
	var warnings []string
	for _, l := range b.opts.Registry.Flatten() {
		if _, ok := have[l.Href]; !ok {
			log.Warn("Navigation link has no document", logfields.Route(l.Href))
			warnings = append(warnings, "navigation link "+l.Href+" has no document")
		}
	}
	return warnings
}

func (b *Builder) writeAssets(st *staging) (int, error) {
	n, err := st.copyFS(page.Assets(), "assets")
	if err != nil {
		return n, err
	}
	favicon, err := fsReadFile(page.Assets(), "favicon.svg")
	if err != nil {
		return n, err
	}
	if err := st.writeFile("favicon.svg", favicon); err != nil {
		return n, err
	}
	css, err := markdown.HighlightCSS(b.pipeline.HighlightStyle())
	if err != nil {
		return n, ferrors.WrapError(err, ferrors.CategoryRender, "failed to render highlight stylesheet").Build()
	}
	if err := st.writeFile("assets/highlight.css", css); err != nil {
		return n, err
	}
	n += 2

	if b.opts.StaticDir != "" {
		if info, err := os.Stat(b.opts.StaticDir); err == nil && info.IsDir() {
			copied, err := st.copyFS(os.DirFS(b.opts.StaticDir), "")
			n += copied
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (b *Builder) renderAll(ctx context.Context, log *slog.Logger, st *staging, sources []Source) ([]PageResult, error) {
	results := make([]PageResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.renderOne(st, src)
			if err != nil {
				return err
			}
			results[i] = res
			log.Debug("Page written", logfields.Route(src.Route), logfields.Document(src.Path), logfields.Callouts(res.Callouts))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "render canceled").Build()
	}
	return results, nil
}

func (b *Builder) renderOne(st *staging, src Source) (PageResult, error) {
	start := time.Now()
	defer func() { b.recorder.ObservePageRender(time.Since(start)) }()

	raw, err := os.ReadFile(filepath.Join(b.opts.ContentDir, filepath.FromSlash(src.Path)))
	if err != nil {
		return PageResult{}, fsError(err, "failed to read document", src.Path)
	}

	doc, err := b.pipeline.Convert(src.Path, raw)
	if err != nil {
		return PageResult{}, err
	}

	transformed, err := callout.Transform(doc.HTML)
	if err != nil {
		return PageResult{}, ferrors.WrapError(err, ferrors.CategoryRender, "callout transform failed").
			WithContext("document", src.Path).
			Build()
	}

	var buf bytes.Buffer
	p, err := b.composer.Compose(&buf, page.Input{
		Route:         src.Route,
		TitleOverride: b.opts.TitleOverrides[src.Route],
		Frontmatter:   doc.Frontmatter,
		Body:          transformed.HTML,
		Headings:      doc.Headings,
	})
	if err != nil {
		return PageResult{}, err
	}
	if err := st.writePage(src.Route, buf.Bytes()); err != nil {
		return PageResult{}, err
	}

	fp, err := frontmatter.Fingerprint(doc.Frontmatter, doc.Body)
	if err != nil {
		return PageResult{}, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to fingerprint document").
			WithContext("document", src.Path).
			Build()
	}

	return PageResult{
		Route:       src.Route,
		Source:      src.Path,
		Title:       p.Title,
		Fingerprint: fp,
		Callouts:    transformed.Callouts,
	}, nil
}
