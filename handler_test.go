package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protodelim"

	dto "github.com/prometheus/client_model/go"
)

func contains(body, substr string) bool {
	return strings.Contains(body, substr)
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	gauge, err := reg.NewGauge(MetricOpts{Name: "test_gauge", Help: "Test gauge"})
	if err != nil {
		t.Fatalf("NewGauge: %v", err)
	}
	gauge.Set(42)

	handler := Handler(reg, HandlerOpts{Timeout: 5 * time.Second})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !contains(body, "test_gauge 42") {
		t.Errorf("expected to find test_gauge in response, got: %s", body)
	}
}

func TestHandlerWithHistogram(t *testing.T) {
	reg := NewRegistry()
	histogram, err := reg.NewHistogram(HistogramOpts{
		MetricOpts: MetricOpts{Name: "test_histogram", Help: "Test histogram"},
	})
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	histogram.Observe(0.5)

	handler := Handler(reg, HandlerOpts{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !contains(w.Body.String(), "test_histogram_bucket") {
		t.Error("expected to find test_histogram_bucket in response")
	}
}

func TestHandlerPredicateForbidden(t *testing.T) {
	reg := NewRegistry()
	handler := Handler(reg, HandlerOpts{
		Predicate: func(r *http.Request) bool { return false },
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestHandlerMaxRequestsInFlight(t *testing.T) {
	reg := NewRegistry()
	handler := Handler(reg, HandlerOpts{MaxRequestsInFlight: 0})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandlerProtoNegotiation(t *testing.T) {
	reg := NewRegistry()
	counter, err := reg.NewCounter(MetricOpts{Name: "test_counter", Help: "Test counter"})
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	_ = counter.Inc(7)

	handler := Handler(reg, HandlerOpts{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", ProtoContentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != ProtoContentType {
		t.Errorf("expected Content-Type %q, got %q", ProtoContentType, ct)
	}

	var mf dto.MetricFamily
	if err := protodelim.UnmarshalFrom(w.Body, &mf); err != nil {
		t.Fatalf("decoding delimited protobuf body: %v", err)
	}
	if mf.GetName() != "test_counter" {
		t.Errorf("expected family name test_counter, got %q", mf.GetName())
	}
	if len(mf.GetMetric()) != 1 || mf.GetMetric()[0].GetCounter().GetValue() != 7 {
		t.Errorf("expected a single counter sample with value 7, got %+v", mf.GetMetric())
	}
}

func TestHandlerScrapeTimeoutHeader(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.NewCounter(MetricOpts{Name: "test_counter", Help: "Test counter"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}

	handler := Handler(reg, HandlerOpts{Timeout: time.Minute})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Prometheus-Scrape-Timeout-Seconds", "5")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}
