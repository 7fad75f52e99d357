// Package page composes rendered documents into complete HTML pages: the
// root shell with site metadata and side navigation around an article.
package page

import (
	"strings"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// Author names the site author.
type Author struct {
	Name string
	URL  string
}

// Site is the metadata shared by every page.
type Site struct {
	Title       string
	Description string
	Author      Author
	Icon        string
	// BaseURL is the public origin; when set pages carry a canonical link.
	BaseURL string
}

// Canonical returns the absolute URL of route, or "" without a base URL.
// Routes are served as directories, so the URL ends in a slash.
func (s Site) Canonical(route string) string {
	if s.BaseURL == "" {
		return ""
	}
	route = strings.Trim(route, "/")
	if route == "" {
		return s.BaseURL + "/"
	}
	return s.BaseURL + "/" + route + "/"
}

// SiteFromConfig copies the site section of the configuration.
func SiteFromConfig(c config.SiteConfig) Site {
	return Site{
		Title:       c.Title,
		Description: c.Description,
		Author:      Author{Name: c.Author.Name, URL: c.Author.URL},
		Icon:        c.Icon,
		BaseURL:     strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"),
	}
}
