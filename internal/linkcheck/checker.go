// Package linkcheck verifies that internal links in a built site resolve to
// files or routes that exist in the output directory.
package linkcheck

import (
	"context"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Finding is one broken internal link.
type Finding struct {
	// File is slash-separated and relative to the checked root.
	File string
	URL  string
	Tag  string
}

// Result summarizes a check run.
type Result struct {
	Files    int
	Links    int
	Findings []Finding
}

// Broken reports whether any link failed to resolve.
func (r *Result) Broken() bool { return len(r.Findings) > 0 }

// Checker walks an output directory and checks its HTML files.
type Checker struct {
	root    string
	workers int
	logger  *slog.Logger
}

// Option customizes a Checker.
type Option func(*Checker)

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// New returns a Checker rooted at the built site directory.
func New(root string, opts ...Option) *Checker {
	c := &Checker{root: root, workers: 4, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check parses every .html file below the root. External links are never
// fetched and fragments are ignored.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	files, err := c.htmlFiles()
	if err != nil {
		return nil, err
	}

	res := &Result{Files: len(files)}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			links, findings, err := c.checkFile(rel)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Links += links
			res.Findings = append(res.Findings, findings...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "link check canceled").Build()
	}

	sort.Slice(res.Findings, func(i, j int) bool {
		a, b := res.Findings[i], res.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.URL < b.URL
	})
	for _, f := range res.Findings {
		c.logger.Warn("Broken link", logfields.Path(f.File), logfields.URL(f.URL), slog.String("tag", f.Tag))
	}
	c.logger.Info("Link check completed",
		slog.Int("files", res.Files),
		slog.Int("links", res.Links),
		slog.Int("broken", len(res.Findings)))
	return res, nil
}

func (c *Checker) htmlFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to scan output directory").
			WithContext("path", c.root).
			Build()
	}
	sort.Strings(files)
	return files, nil
}

func (c *Checker) checkFile(rel string) (int, []Finding, error) {
	f, err := os.Open(filepath.Join(c.root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open HTML file").
			WithContext("path", rel).
			Build()
	}
	defer func() { _ = f.Close() }()

	links, err := ExtractLinks(f)
	if err != nil {
		return 0, nil, err
	}

	var findings []Finding
	checked := 0
	for _, l := range links {
		if !l.Internal {
			continue
		}
		checked++
		if !c.resolves(rel, l.URL) {
			findings = append(findings, Finding{File: rel, URL: l.URL, Tag: l.Tag})
		}
	}
	return checked, findings, nil
}

// resolves reports whether raw, found in the page at rel, names a built file
// or a directory with an index.html.
func (c *Checker) resolves(rel, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join("/", path.Dir(rel), target)
	}
	target = path.Clean(target)

	p := filepath.Join(c.root, filepath.FromSlash(strings.TrimPrefix(target, "/")))
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	index, err := os.Stat(filepath.Join(p, "index.html"))
	return err == nil && !index.IsDir()
}
