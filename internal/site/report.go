package site

import (
	"time"

	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// PageResult describes one written page.
type PageResult struct {
	Route       string
	Source      string
	Title       string
	Fingerprint string
	Callouts    int
}

// Report summarizes a build.
type Report struct {
	BuildID  string
	Start    time.Time
	Duration time.Duration
	Pages    []PageResult
	Callouts int
	Assets   int
	Warnings []string
	Outcome  metrics.BuildOutcomeLabel
}

// Fingerprint returns the content fingerprint of the page at route.
func (r *Report) Fingerprint(route string) (string, bool) {
	for _, p := range r.Pages {
		if p.Route == route {
			return p.Fingerprint, true
		}
	}
	return "", false
}

// Routes lists the written routes in build order.
func (r *Report) Routes() []string {
	out := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		out[i] = p.Route
	}
	return out
}
