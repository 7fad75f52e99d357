package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/docsite/internal/nav"
)

// RoutesCmd lists discovered documents and navigation coverage.
type RoutesCmd struct{}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	registry, err := nav.FromConfig(cfg.Navigation)
	if err != nil {
		return err
	}
	builder, err := newBuilder(g, cfg, nil)
	if err != nil {
		return err
	}
	sources, err := builder.Discover()
	if err != nil {
		return err
	}

	have := make(map[string]struct{}, len(sources))
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ROUTE\tSOURCE\tNAVIGATION")
	for _, s := range sources {
		have[s.Route] = struct{}{}
		title, ok := registry.TitleFor(s.Route)
		if !ok {
			title = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Route, s.Path, title)
	}
	for _, l := range registry.Flatten() {
		if _, ok := have[l.Href]; !ok {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Href, "(missing)", l.Title)
		}
	}
	return tw.Flush()
}
