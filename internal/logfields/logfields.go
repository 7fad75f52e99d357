// Package logfields holds the canonical slog attribute keys used across docsite.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyRoute      = "route"
	KeyDocument   = "document"
	KeyStage      = "stage"
	KeyProfile    = "profile"
	KeyDurationMS = "duration_ms"
	KeyPages      = "pages"
	KeyCallouts   = "callouts"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyEvent      = "event"
	KeyWorker     = "worker"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyClients    = "clients"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Document(p string) slog.Attr     { return slog.String(KeyDocument, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Profile(p string) slog.Attr      { return slog.String(KeyProfile, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Callouts(n int) slog.Attr        { return slog.Int(KeyCallouts, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }

// Since reports the elapsed time from start in milliseconds.
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
