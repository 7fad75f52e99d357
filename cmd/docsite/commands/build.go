package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string `short:"o" help:"Override the output directory"`
	Profile string `short:"p" help:"Override the pipeline profile (minimal|full)"`
	Workers int    `short:"w" help:"Override the number of render workers"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	var profile config.Profile
	if b.Profile != "" {
		if profile, err = config.NormalizeProfile(b.Profile); err != nil {
			return err
		}
	}

	builder, err := newBuilder(g, cfg, func(o *site.Options) {
		if b.Output != "" {
			o.OutputDir = b.Output
		}
		if profile != "" {
			o.Profile = markdown.Profile(profile)
		}
		if b.Workers > 0 {
			o.Workers = b.Workers
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	for _, w := range report.Warnings {
		_, _ = fmt.Fprintf(g.Out, "warning: %s\n", w)
	}
	_, _ = fmt.Fprintf(g.Out, "Built %d pages (%d callouts, %d assets) in %s\n",
		len(report.Pages), report.Callouts, report.Assets, report.Duration.Round(time.Millisecond))
	return nil
}
