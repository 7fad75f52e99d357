package site

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Source is one content file and the route it is published under.
type Source struct {
	// Path is slash-separated and relative to the content directory.
	Path  string
	Route string
}

// RouteFor maps a content-relative path to its route: index.md is "/",
// a/b.md and a/b/index.md (or a/b/page.md) are "/a/b".
func RouteFor(rel string) string {
	rel = filepath.ToSlash(rel)
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	switch path.Base(stem) {
	case "index", "page":
		stem = path.Dir(stem)
	}
	if stem == "." || stem == "" {
		return "/"
	}
	return "/" + strings.Trim(stem, "/")
}

// Discover walks contentDir and returns the files accepted by match, sorted
// by route. Hidden files and directories are skipped. Two files mapping to
// the same route are a validation error.
func Discover(contentDir string, match func(string) bool) ([]Source, error) {
	var sources []Source
	owner := map[string]string{}

	err := filepath.WalkDir(contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != contentDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !match(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(contentDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		route := RouteFor(rel)
		if first, dup := owner[route]; dup {
			return ferrors.ValidationError("duplicate route").
				WithContext("route", route).
				WithContext("first", first).
				WithContext("second", rel).
				Build()
		}
		owner[route] = rel
		sources = append(sources, Source{Path: rel, Route: route})
		return nil
	})
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to scan content directory").
			WithContext("path", contentDir).
			Build()
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Route < sources[j].Route })
	return sources, nil
}
