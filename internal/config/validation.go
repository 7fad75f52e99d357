package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateSite,
		v.validatePaths,
		v.validateBuild,
		v.validateServe,
		v.validateNavigation,
		v.validatePages,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (v *configurationValidator) validateSite() error {
	raw := strings.TrimSpace(v.config.Site.BaseURL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("site.base_url", fmt.Sprintf("base url %q must be an absolute http(s) url", raw))
	}
	return nil
}

func (v *configurationValidator) validatePaths() error {
	p := v.config.Paths
	if strings.TrimSpace(p.Content) == "" {
		return invalid("paths.content", "content directory must be set")
	}
	if strings.TrimSpace(p.Output) == "" {
		return invalid("paths.output", "output directory must be set")
	}
	content, output := v.config.Resolve(p.Content), v.config.Resolve(p.Output)
	switch {
	case within(output, content):
		return invalid("paths.output", "output directory must be outside the content directory")
	case within(content, output):
		return invalid("paths.content", "content directory must be outside the output directory")
	}
	if strings.TrimSpace(p.Static) != "" {
		static := v.config.Resolve(p.Static)
		switch {
		case within(output, static):
			return invalid("paths.output", "output directory must be outside the static directory")
		case within(static, output):
			return invalid("paths.static", "static directory must be outside the output directory")
		}
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	ap, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	ad, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(ad, ap)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (v *configurationValidator) validateBuild() error {
	if v.config.Build.Workers < 1 {
		return invalid("build.workers", "workers must be at least 1")
	}
	return nil
}

func (v *configurationValidator) validateServe() error {
	s := v.config.Serve
	if s.Port < 1 || s.Port > 65535 {
		return invalid("serve.port", fmt.Sprintf("port %d out of range", s.Port))
	}
	if s.RebuildInterval < 0 {
		return invalid("serve.rebuild_interval", "rebuild interval cannot be negative")
	}
	return nil
}

func (v *configurationValidator) validateNavigation() error {
	for i, section := range v.config.Navigation {
		if strings.TrimSpace(section.Title) == "" {
			return invalid(fmt.Sprintf("navigation[%d].title", i), "section title cannot be empty")
		}
		for j, link := range section.Links {
			if !strings.HasPrefix(link.Href, "/") {
				return invalid(fmt.Sprintf("navigation[%d].links[%d].href", i, j), "href must be site-relative and start with /")
			}
		}
	}
	return nil
}

func (v *configurationValidator) validatePages() error {
	for route := range v.config.Pages {
		if !strings.HasPrefix(route, "/") {
			return invalid("pages", fmt.Sprintf("route %q must start with /", route))
		}
	}
	return nil
}

func invalid(field, message string) error {
	return ferrors.ValidationError(message).WithContext("field", field).Build()
}
