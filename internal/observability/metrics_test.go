package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.AlertRecorded("high")
	m.AlertRecorded("high")
	m.AlertRecorded("low")
	m.ObserveAPI("GET", "/healthcheck", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.alertsRecorded.WithLabelValues("high")); got != 2 {
		t.Fatalf("high alerts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/healthcheck", "200")); got != 1 {
		t.Fatalf("api requests = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AlertRecorded("high")
	m.ChatStream("done")
	m.ApiInflightInc()
	m.ApiInflightDec()
	if m.Handler() == nil {
		t.Fatalf("nil metrics should still return a handler")
	}
}
