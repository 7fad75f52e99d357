package config

import (
	"runtime"
	"time"
)

const (
	defaultSiteTitle      = "Libernet Documentation"
	defaultAuthorName     = "The Libernet team"
	defaultAuthorURL      = "https://libernet.xyz"
	defaultIcon           = "/favicon.svg"
	defaultContentDir     = "content"
	defaultOutputDir      = "public"
	defaultHighlightStyle = "github"
	defaultHost           = "127.0.0.1"
	defaultPort           = 1314
	defaultDebounce       = 300 * time.Millisecond
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = defaultSiteTitle
	}
	if cfg.Site.Description == "" {
		cfg.Site.Description = cfg.Site.Title
	}
	if cfg.Site.Author.Name == "" {
		cfg.Site.Author.Name = defaultAuthorName
		if cfg.Site.Author.URL == "" {
			cfg.Site.Author.URL = defaultAuthorURL
		}
	}
	if cfg.Site.Icon == "" {
		cfg.Site.Icon = defaultIcon
	}
}

type pathDefaults struct{}

func (pathDefaults) Domain() string { return "paths" }

func (pathDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Paths.Content == "" {
		cfg.Paths.Content = defaultContentDir
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = defaultOutputDir
	}
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Build.HighlightStyle == "" {
		cfg.Build.HighlightStyle = defaultHighlightStyle
	}
}

type serveDefaults struct{}

func (serveDefaults) Domain() string { return "serve" }

func (serveDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Serve.Host == "" {
		cfg.Serve.Host = defaultHost
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = defaultPort
	}
	if cfg.Serve.Debounce <= 0 {
		cfg.Serve.Debounce = defaultDebounce
	}
}

var defaultAppliers = []DefaultApplier{
	siteDefaults{},
	pathDefaults{},
	buildDefaults{},
	serveDefaults{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}
