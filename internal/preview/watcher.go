package preview

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Watcher reports changes below a set of directory trees.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger
	skip   []string
}

// NewWatcher watches every directory below each root. Missing roots are
// skipped so an optional static directory does not have to exist. Trees
// under skip, such as the output directory, are neither watched nor reported.
func NewWatcher(roots []string, logger *slog.Logger, skip ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w := &Watcher{fs: fw, logger: logger}
	for _, p := range skip {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			w.skip = append(w.skip, abs)
		}
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			logger.Debug("Watch root skipped", logfields.Path(root))
			continue
		}
		w.addRecursive(root)
	}
	return w, nil
}

// Run calls onChange for each relevant event until ctx is done or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ignoreEvent(ev.Name) || w.skipped(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addRecursive(ev.Name)
				}
			}
			w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
			onChange()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if (p != root && strings.HasPrefix(d.Name(), ".")) || w.skipped(p) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			w.logger.Warn("Failed to watch directory", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// skipped reports whether p is a skipped directory or lies below one.
func (w *Watcher) skipped(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range w.skip {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ignoreEvent filters hidden files and editor scratch files.
func ignoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}
