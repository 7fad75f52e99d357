package site

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// staging is a build directory next to the output directory that replaces
// it atomically once every file is written.
type staging struct {
	dir    string
	output string
}

func newStaging(output, buildID string) (*staging, error) {
	output = filepath.Clean(output)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fsError(err, "failed to create output parent", output)
	}
	dir, err := os.MkdirTemp(filepath.Dir(output), "."+filepath.Base(output)+".staging-"+buildID[:8]+"-")
	if err != nil {
		return nil, fsError(err, "failed to create staging directory", output)
	}
	if err := os.Chmod(dir, 0o755); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fsError(err, "failed to create staging directory", output)
	}
	return &staging{dir: dir, output: output}, nil
}

// PagePath returns the file a route is written to.
func PagePath(root, route string) string {
	rel := strings.Trim(route, "/")
	if rel == "" {
		return filepath.Join(root, "index.html")
	}
	return filepath.Join(root, filepath.FromSlash(rel), "index.html")
}

func (s *staging) writeFile(rel string, data []byte) error {
	p := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fsError(err, "failed to create directory", p)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fsError(err, "failed to write file", p)
	}
	return nil
}

func (s *staging) writePage(route string, data []byte) error {
	rel, err := filepath.Rel(s.dir, PagePath(s.dir, route))
	if err != nil {
		return fsError(err, "invalid page path", route)
	}
	return s.writeFile(rel, data)
}

// copyFS copies every regular file of src below prefix, overwriting existing
// files. It returns the number of files copied.
func (s *staging) copyFS(src fs.FS, prefix string) (int, error) {
	n := 0
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		in, err := src.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()

		dst := filepath.Join(s.dir, filepath.FromSlash(path.Join(prefix, p)))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			_ = out.Close()
			return err
		}
		n++
		return out.Close()
	})
	if err != nil {
		return n, fsError(err, "failed to copy static files", prefix)
	}
	return n, nil
}

// commit swaps the staging directory into place.
func (s *staging) commit() error {
	old := ""
	if _, err := os.Stat(s.output); err == nil {
		old = s.dir + ".old"
		if err := os.Rename(s.output, old); err != nil {
			return fsError(err, "failed to move previous output aside", s.output)
		}
	}
	if err := os.Rename(s.dir, s.output); err != nil {
		if old != "" {
			_ = os.Rename(old, s.output)
		}
		return fsError(err, "failed to publish output", s.output)
	}
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}

func (s *staging) discard() {
	_ = os.RemoveAll(s.dir)
}

func fsError(err error, msg, p string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).WithContext("path", p).Build()
}

func fsReadFile(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fsError(err, "failed to read embedded asset", name)
	}
	return data, nil
}
