package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobStartedRecordsOutcome(t *testing.T) {
	m := New()

	done := m.JobStarted()
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	done(OutcomeSuccess, "ignored")

	m.JobStarted()(OutcomeFailure, "media")
	m.JobStarted()(OutcomeFailure, "media")

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.jobs.WithLabelValues(OutcomeSuccess, "")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.jobs.WithLabelValues(OutcomeFailure, "media")); got != 2 {
		t.Errorf("media failure count = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestSegmentsWritten(t *testing.T) {
	m := New()
	m.SegmentsWritten(3)
	m.SegmentsWritten(0)
	m.SegmentsWritten(2)

	if got := testutil.ToFloat64(m.segments); got != 5 {
		t.Errorf("segments = %v, want 5", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.JobStarted()(OutcomeFailure, "engine")
	m.SegmentsWritten(4)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SegmentsWritten(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "vidscribe_segments_written_total 1") {
		t.Errorf("metrics output missing segment counter:\n%s", body)
	}
}
