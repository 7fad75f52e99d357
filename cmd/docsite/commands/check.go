package commands

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
)

// CheckCmd verifies internal links in the built site.
type CheckCmd struct {
	Build  bool   `help:"Build the site before checking" default:"true" negatable:""`
	Output string `short:"o" help:"Check this directory instead of the configured output"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	out := cfg.Resolve(cfg.Paths.Output)
	if c.Output != "" {
		out = c.Output
	}

	ctx, cancel := signalContext()
	defer cancel()

	if c.Build {
		builder, err := newBuilder(g, cfg, nil)
		if err != nil {
			return err
		}
		if _, err := builder.Build(ctx); err != nil {
			return err
		}
	}

	res, err := linkcheck.New(out, linkcheck.WithWorkers(cfg.Build.Workers), linkcheck.WithLogger(g.Logger)).Check(ctx)
	if err != nil {
		return err
	}
	for _, f := range res.Findings {
		_, _ = fmt.Fprintf(g.Out, "%s: broken %s link %s\n", f.File, f.Tag, f.URL)
	}
	if res.Broken() {
		return ferrors.ValidationError("broken internal links").
			WithContext("count", len(res.Findings)).
			Build()
	}
	_, _ = fmt.Fprintf(g.Out, "Checked %d links in %d files: no broken links\n", res.Links, res.Files)
	return nil
}
