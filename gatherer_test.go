package metric

import (
	"testing"
)

func TestMultiGatherer(t *testing.T) {
	mg := NewMultiGatherer()

	reg1 := NewRegistry()
	counter1, err := reg1.NewCounter(MetricOpts{Name: "test_counter", Help: "Test counter"})
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	_ = counter1.Inc()

	if err := mg.Register("namespace1", reg1); err != nil {
		t.Fatalf("failed to register gatherer: %v", err)
	}

	if err := mg.Register("namespace1", reg1); err == nil {
		t.Error("expected error when registering duplicate namespace")
	}

	reg2 := NewRegistry()
	gauge2, err := reg2.NewGauge(MetricOpts{Name: "test_gauge", Help: "Test gauge"})
	if err != nil {
		t.Fatalf("NewGauge: %v", err)
	}
	gauge2.Set(1)

	if err := mg.Register("namespace2", reg2); err != nil {
		t.Fatalf("failed to register second gatherer: %v", err)
	}

	metrics, err := mg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metrics) < 2 {
		t.Errorf("expected at least 2 metrics, got %d", len(metrics))
	}

	if !mg.Deregister("namespace1") {
		t.Error("expected successful deregistration")
	}
	if mg.Deregister("non-existent") {
		t.Error("expected false when deregistering non-existent namespace")
	}
}

func TestMakeAndRegister(t *testing.T) {
	mg := NewMultiGatherer()

	reg, err := MakeAndRegister(mg, "test_namespace")
	if err != nil {
		t.Fatalf("failed to MakeAndRegister: %v", err)
	}
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	if _, err := reg.NewCounter(MetricOpts{Name: "test_counter", Help: "Test counter"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}

	metrics, err := mg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Error("expected at least one metric")
	}
}

func TestPrefixGatherer(t *testing.T) {
	pg := NewPrefixGatherer()

	reg := NewRegistry()
	if _, err := reg.NewCounter(MetricOpts{Name: "test_counter", Help: "Test counter"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}

	if err := pg.Register("myprefix", reg); err != nil {
		t.Fatalf("failed to register with prefix: %v", err)
	}

	metrics, err := pg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(metrics))
	}
	if metrics[0].Name != "myprefix_test_counter" {
		t.Errorf("expected prefixed name, got %s", metrics[0].Name)
	}
}
