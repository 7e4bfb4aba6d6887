package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("GET", "/api/v1/cart", 200, 250*time.Millisecond)
	metrics.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/cart"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "unknown"); err != nil {
		t.Fatalf("fetch unknown route: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown route=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/cart"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilHTTPMetricsIsNoop(t *testing.T) {
	var metrics *HTTPMetrics
	metrics.Observe("GET", "/", 200, time.Second)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
