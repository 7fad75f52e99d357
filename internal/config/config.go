// Package config loads and validates the docsite configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "docsite.yaml"

// Config is the root configuration document.
type Config struct {
	Site       SiteConfig            `yaml:"site" toml:"site"`
	Paths      PathsConfig           `yaml:"paths" toml:"paths"`
	Build      BuildConfig           `yaml:"build" toml:"build"`
	Navigation []NavSection          `yaml:"navigation,omitempty" toml:"navigation,omitempty"`
	Pages      map[string]PageConfig `yaml:"pages,omitempty" toml:"pages,omitempty"`
	Serve      ServeConfig           `yaml:"serve" toml:"serve"`
	Logging    LoggingConfig         `yaml:"logging" toml:"logging"`

	// path of the file the configuration was read from; empty for defaults.
	source string
	// directory relative paths resolve against when there is no source.
	baseDir string
}

// SiteConfig holds the metadata rendered into every page shell.
type SiteConfig struct {
	Title       string       `yaml:"title" toml:"title"`
	Description string       `yaml:"description" toml:"description"`
	Author      AuthorConfig `yaml:"author" toml:"author"`
	Icon        string       `yaml:"icon" toml:"icon"`
	BaseURL     string       `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
}

// AuthorConfig names the site author.
type AuthorConfig struct {
	Name string `yaml:"name" toml:"name"`
	URL  string `yaml:"url" toml:"url"`
}

// PathsConfig locates content, output and user static assets.
// Relative paths resolve against the configuration file's directory.
type PathsConfig struct {
	Content string `yaml:"content" toml:"content"`
	Output  string `yaml:"output" toml:"output"`
	Static  string `yaml:"static,omitempty" toml:"static,omitempty"`
}

// BuildConfig tunes the content pipeline and the builder.
type BuildConfig struct {
	Profile        Profile `yaml:"profile" toml:"profile"`
	Workers        int     `yaml:"workers" toml:"workers"`
	HighlightStyle string  `yaml:"highlight_style" toml:"highlight_style"`
}

// NavSection is one configured navigation group.
type NavSection struct {
	Title string    `yaml:"title" toml:"title"`
	Links []NavLink `yaml:"links" toml:"links"`
}

// NavLink is one configured navigation entry.
type NavLink struct {
	Title string `yaml:"title" toml:"title"`
	Href  string `yaml:"href" toml:"href"`
}

// PageConfig overrides per-route page settings.
type PageConfig struct {
	Title string `yaml:"title" toml:"title"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	LiveReload      *bool         `yaml:"livereload,omitempty" toml:"livereload,omitempty"`
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty" toml:"rebuild_interval,omitempty"`
	Debounce        time.Duration `yaml:"debounce,omitempty" toml:"debounce,omitempty"`
}

// LiveReloadEnabled reports whether live reload is on. It defaults to true.
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// Load reads, expands, defaults and validates the configuration at path.
// A missing file at the default location yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && filepath.Base(path) == DefaultFile {
			cfg := &Config{baseDir: filepath.Dir(path)}
			if err := cfg.finish(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.source = path
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration bytes. The format is chosen by the
// extension of name: .toml selects TOML, anything else YAML.
// Environment references (${VAR}) are expanded before decoding.
func Parse(name string, data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to decode toml config").
				WithContext("path", name).
				Build()
		}
		return &cfg, nil
	}

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to decode yaml config").
			WithContext("path", name).
			Build()
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.finish()
	return cfg
}

// Source reports the file the configuration was read from.
func (c *Config) Source() string { return c.source }

// BaseDir is the directory relative paths resolve against.
func (c *Config) BaseDir() string {
	switch {
	case c.source != "":
		return filepath.Dir(c.source)
	case c.baseDir != "":
		return c.baseDir
	default:
		return "."
	}
}

// Resolve makes p absolute relative to BaseDir. Empty stays empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// TitleOverride returns the literal page title configured for route.
func (c *Config) TitleOverride(route string) (string, bool) {
	pc, ok := c.Pages[route]
	if !ok || strings.TrimSpace(pc.Title) == "" {
		return "", false
	}
	return pc.Title, true
}

func (c *Config) finish() error {
	if err := normalize(c); err != nil {
		return err
	}
	applyDefaults(c)
	return Validate(c)
}
