package metric

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryGetOrAddSameFamily(t *testing.T) {
	reg := NewRegistry()
	c1, err := reg.NewCounterVec(MetricOpts{Name: "http_requests_total", Help: "count", Labels: []string{"method"}})
	if err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	c2, err := reg.NewCounterVec(MetricOpts{Name: "http_requests_total", Help: "count", Labels: []string{"method"}})
	if err != nil {
		t.Fatalf("second NewCounterVec: %v", err)
	}
	if c1.f != c2.f {
		t.Error("expected the same underlying family for repeat registration")
	}
}

func TestRegistrySchemaConflictType(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h"}); err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	_, err := reg.NewGaugeVec(MetricOpts{Name: "m", Help: "h"})
	if err == nil {
		t.Fatal("expected schema conflict error")
	}
	if !errors.Is(err, ErrSchemaConflict) {
		t.Errorf("expected ErrSchemaConflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "different type") {
		t.Errorf("expected 'different type' wording, got %q", err.Error())
	}
}

func TestRegistrySchemaConflictLabels(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h", Labels: []string{"a"}}); err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	_, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h", Labels: []string{"b"}})
	if err == nil {
		t.Fatal("expected schema conflict error")
	}
	if !strings.Contains(err.Error(), "different set of label names") {
		t.Errorf("expected 'different set of label names' wording, got %q", err.Error())
	}
}

func TestRegistryWithLabelValuesSameReference(t *testing.T) {
	reg := NewRegistry()
	vec, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h", Labels: []string{"a"}})
	if err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	c1, err := vec.WithLabelValues("x")
	if err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}
	c2, err := vec.WithLabelValues("x")
	if err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}
	if c1 != c2 {
		t.Error("expected same child reference for the same label tuple")
	}
}

func TestRegistryGatherInsertionOrder(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.NewCounter(MetricOpts{Name: "zzz_metric", Help: "h"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	if _, err := reg.NewCounter(MetricOpts{Name: "aaa_metric", Help: "h"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 2 || families[0].Name != "zzz_metric" || families[1].Name != "aaa_metric" {
		t.Errorf("expected families in registration order, got %+v", families)
	}
}

func TestRegistrySuppressesUnpublishedChildren(t *testing.T) {
	reg := NewRegistry()
	vec, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h", Labels: []string{"a"}, Suppress: true})
	if err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	if _, err := vec.WithLabelValues("x"); err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families[0].Metrics) != 0 {
		t.Error("expected suppressed child to be absent before first observation")
	}
}

func TestRegistryBeforeCollectHook(t *testing.T) {
	reg := NewRegistry()
	gauge, err := reg.NewGauge(MetricOpts{Name: "m", Help: "h"})
	if err != nil {
		t.Fatalf("NewGauge: %v", err)
	}
	calls := 0
	reg.AddBeforeCollect(func() {
		calls++
		gauge.Set(float64(calls))
	})

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected before-collect hook to run on every Gather, got %d calls", calls)
	}
}

func TestRegistryBeforeFirstCollectRunsOnce(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.AddBeforeFirstCollect(func() { calls++ })

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected before-first-collect hook to run exactly once, got %d calls", calls)
	}
}

func TestRegistryRemoveChild(t *testing.T) {
	reg := NewRegistry()
	vec, err := reg.NewCounterVec(MetricOpts{Name: "m", Help: "h", Labels: []string{"a"}})
	if err != nil {
		t.Fatalf("NewCounterVec: %v", err)
	}
	if _, err := vec.WithLabelValues("x"); err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}
	if err := vec.Remove("x"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(vec.AllLabelValues()) != 0 {
		t.Error("expected no label values after remove")
	}
}
