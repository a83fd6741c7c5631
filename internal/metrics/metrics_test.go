package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/navid-fn/momentum/configs"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(configs.MetricsConfig{})

	r.Instruments(OutcomeUpdated, 3)
	r.Instruments(OutcomeUpdated, 2)
	r.Instruments(OutcomeFailed, 1)
	r.Instruments(OutcomeSkipped, 0)
	r.Catalog(6, 1200, time.Unix(1700000000, 0))
	r.ObserveRun(42 * time.Second)

	if got := testutil.ToFloat64(r.instruments.WithLabelValues(OutcomeUpdated)); got != 5 {
		t.Errorf("Expected 5 updated, got %v", got)
	}
	if got := testutil.ToFloat64(r.instruments.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("Expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(r.catalogRecords); got != 1200 {
		t.Errorf("Expected 1200 records, got %v", got)
	}
	if got := testutil.ToFloat64(r.catalogTickers); got != 6 {
		t.Errorf("Expected 6 tickers, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != 1700000000 {
		t.Errorf("Expected last success timestamp, got %v", got)
	}
	if got := testutil.CollectAndCount(r.runDuration); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}
}

func TestPushDisabled(t *testing.T) {
	r := NewRecorder(configs.MetricsConfig{})
	if r.Enabled() {
		t.Error("Expected pushing to be disabled without a gateway")
	}
	if err := r.Push(context.Background(), "upbit"); err != nil {
		t.Errorf("Expected no-op push, got %v", err)
	}
}

func TestPush(t *testing.T) {
	var method, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method, path = req.Method, req.URL.Path
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder(configs.MetricsConfig{PushgatewayURL: srv.URL, Job: "momentum_updater"})
	r.Instruments(OutcomeAdded, 5)
	r.Catalog(5, 900, time.Unix(1700000000, 0))
	r.ObserveRun(3 * time.Second)

	if err := r.Push(context.Background(), "yahoo-us"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", method)
	}
	if path != "/metrics/job/momentum_updater/source/yahoo-us" {
		t.Errorf("Unexpected push path %s", path)
	}
	for _, name := range []string{
		"momentum_instruments_total",
		"momentum_catalog_records",
		"momentum_catalog_tickers",
		"momentum_run_duration_seconds",
		"momentum_last_success_timestamp_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %s in the pushed body", name)
		}
	}
}

// The source travels in the grouping key only. The push client rejects
// metrics that carry a grouping label themselves.
func TestMetricsCarryNoSourceLabel(t *testing.T) {
	r := NewRecorder(configs.MetricsConfig{})
	r.Instruments(OutcomeUpdated, 1)
	r.Catalog(1, 10, time.Unix(1700000000, 0))
	r.ObserveRun(time.Second)

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 5 {
		t.Errorf("Expected 5 metric families, got %d", len(families))
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "source" {
					t.Errorf("%s carries a source label", mf.GetName())
				}
			}
		}
	}
}

func TestPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRecorder(configs.MetricsConfig{PushgatewayURL: srv.URL, Job: "job"})
	if err := r.Push(context.Background(), "upbit"); err == nil {
		t.Error("Expected an error from a failing gateway")
	}
}
