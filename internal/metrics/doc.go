// Package metrics records docsite build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	b := site.NewBuilder(opts) // records nothing
//	b = site.NewBuilder(opts, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The preview server exposes the Prometheus registry at /metrics.
package metrics
