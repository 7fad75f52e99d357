package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/page"
)

// NewCmd scaffolds a content page for a route.
type NewCmd struct {
	Route       string `arg:"" help:"Route of the new page, e.g. /dev/protocol"`
	Title       string `short:"t" help:"Page title (derived from the route when empty)"`
	Description string `short:"d" help:"Page description"`
	Force       bool   `help:"Overwrite an existing page"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	route := path.Clean("/" + strings.Trim(n.Route, "/"))

	contentDir := cfg.Resolve(cfg.Paths.Content)
	rel := "index.md"
	if route != "/" {
		rel = strings.TrimPrefix(route, "/") + ".md"
	}

	// Any document already serving the route wins, whatever its file name.
	if info, err := os.Stat(contentDir); err == nil && info.IsDir() {
		builder, err := newBuilder(g, cfg, nil)
		if err != nil {
			return err
		}
		sources, err := builder.Discover()
		if err != nil {
			return err
		}
		for _, src := range sources {
			if src.Route != route {
				continue
			}
			if !n.Force {
				return ferrors.ValidationError("page already exists (use --force to overwrite)").
					WithContext("route", route).
					WithContext("path", src.Path).
					Build()
			}
			rel = src.Path
		}
	}
	target := filepath.Join(contentDir, filepath.FromSlash(rel))

	title := n.Title
	if title == "" {
		title = page.TitleFromRoute(route)
	}
	content, err := frontmatter.Render(frontmatter.Frontmatter{Title: title, Description: n.Description}, []byte("\n"))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create content directory").
			WithContext("path", filepath.Dir(target)).
			Build()
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write page").
			WithContext("path", target).
			Build()
	}
	_, _ = fmt.Fprintf(g.Out, "Created %s for route %s\n", target, route)
	return nil
}
