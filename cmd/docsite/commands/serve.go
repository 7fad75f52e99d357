package commands

import (
	"net"
	"strconv"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/preview"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// ServeCmd starts the preview server.
type ServeCmd struct {
	Host         string `help:"Override the listen host"`
	Port         int    `short:"p" help:"Override the listen port"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable live reload and script injection"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	opts := preview.OptionsFromConfig(cfg)
	if s.NoLiveReload {
		opts.LiveReload = false
	}
	if s.Host != "" || s.Port != 0 {
		host, port := cfg.Serve.Host, cfg.Serve.Port
		if s.Host != "" {
			host = s.Host
		}
		if s.Port != 0 {
			port = s.Port
		}
		opts.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}

	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	builder, err := newBuilder(g, cfg, func(o *site.Options) {
		o.LiveReload = opts.LiveReload
	}, site.WithRecorder(recorder))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	server := preview.New(builder, opts,
		preview.WithRecorder(recorder),
		preview.WithMetricsRegistry(reg),
		preview.WithLogger(g.Logger))
	return server.Run(ctx)
}
