package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/nav"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// Global is shared state bound into every command.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing command output.
	Out io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Build the documentation site"`
	Serve  ServeCmd  `cmd:"" help:"Serve the site locally and rebuild on changes"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
	New    NewCmd    `cmd:"" help:"Create a new content page"`
	Routes RoutesCmd `cmd:"" help:"List discovered routes and navigation coverage"`
	Check  CheckCmd  `cmd:"" help:"Check the built site for broken internal links"`
}

// AfterApply runs after flag parsing and installs the bootstrap logger.
// Commands that load configuration reconfigure it from the logging section.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, config.LogFormatText)
	slog.SetDefault(g.Logger)
	if g.Out == nil {
		g.Out = os.Stdout
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads the configuration and applies its logging section.
// -v always wins over the configured level.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := slogLevel(cfg.Logging.Level)
	if root.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Configuration loaded", logfields.Path(cfg.Source()))
	return cfg, nil
}

// newBuilder wires the site builder for cfg.
func newBuilder(g *Global, cfg *config.Config, mutate func(*site.Options), opts ...site.Option) (*site.Builder, error) {
	registry, err := nav.FromConfig(cfg.Navigation)
	if err != nil {
		return nil, err
	}
	o := site.OptionsFromConfig(cfg, registry)
	if mutate != nil {
		mutate(&o)
	}
	return site.NewBuilder(o, append([]site.Option{site.WithLogger(g.Logger)}, opts...)...)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
