package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/site"
)

// Status is the build state reported by /healthz.
type Status struct {
	Healthy     bool       `json:"healthy"`
	BuildID     string     `json:"build_id,omitempty"`
	Outcome     string     `json:"outcome,omitempty"`
	Pages       int        `json:"pages"`
	Warnings    int        `json:"warnings"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// buildStatus keeps the last good report next to the most recent failure.
type buildStatus struct {
	mu          sync.RWMutex
	report      *site.Report
	lastSuccess time.Time
	lastErr     error
}

func (bs *buildStatus) setSuccess(r *site.Report) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.report = r
	bs.lastSuccess = time.Now()
	bs.lastErr = nil
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastErr = err
}

func (bs *buildStatus) lastGood() (*site.Report, bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.report, bs.report != nil
}

func (bs *buildStatus) snapshot() Status {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	var s Status
	if bs.report != nil {
		s.Healthy = true
		s.BuildID = bs.report.BuildID
		s.Outcome = string(bs.report.Outcome)
		s.Pages = len(bs.report.Pages)
		s.Warnings = len(bs.report.Warnings)
		t := bs.lastSuccess
		s.LastSuccess = &t
	}
	if bs.lastErr != nil {
		s.Error = bs.lastErr.Error()
	}
	return s
}
