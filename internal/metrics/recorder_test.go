package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("convert", time.Millisecond)
		r.IncStageResult("convert", ResultSuccess)
		r.ObserveBuildDuration(time.Second)
		r.IncBuildOutcome(BuildOutcomeSuccess)
		r.ObservePageRender(time.Millisecond)
		r.AddPages(3)
		r.AddCallouts(2)
		r.SetLiveReloadClients(1)
	})
}

func TestPrometheusRecorder(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.AddPages(6)
	pr.AddCallouts(2)
	pr.AddCallouts(1)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.IncStageResult("discover", ResultSuccess)
	pr.ObserveStageDuration("discover", 10*time.Millisecond)
	pr.ObserveBuildDuration(time.Second)
	pr.ObservePageRender(time.Millisecond)
	pr.SetLiveReloadClients(4)

	assert.InDelta(t, 6, testutil.ToFloat64(pr.pages), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.callouts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("discover", "success")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(pr.liveReloadClient), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(pr.stageDuration))
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).AddPages(1)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "docsite_pages_written_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
