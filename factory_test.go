package metric

import (
	"math"
	"testing"
)

func TestHistogramObserveBucketing(t *testing.T) {
	reg := NewRegistry()
	h, err := reg.NewHistogram(HistogramOpts{
		MetricOpts: MetricOpts{Name: "req_latency", Help: "h"},
		Buckets:    []float64{0.1, 0.5, 1},
	})
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	h.Observe(0.05)
	h.Observe(0.3)
	h.Observe(0.3)
	h.Observe(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	m := families[0].Metrics[0]
	if m.Value.SampleCount != 4 {
		t.Errorf("sample count: got %d, want 4", m.Value.SampleCount)
	}
	want := []uint64{1, 3, 3, 4} // cumulative at 0.1, 0.5, 1, +Inf
	for i, b := range m.Value.Buckets {
		if b.CumulativeCount != want[i] {
			t.Errorf("bucket %d (le=%v): got %d, want %d", i, b.UpperBound, b.CumulativeCount, want[i])
		}
	}
}

func TestHistogramObserveDiscardsNaN(t *testing.T) {
	reg := NewRegistry()
	h, err := reg.NewHistogram(HistogramOpts{MetricOpts: MetricOpts{Name: "m", Help: "h"}})
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	h.Observe(math.NaN())
	if h.totalCount() != 0 {
		t.Error("expected NaN observation to be discarded")
	}
}

func TestCounterRejectsNegativeIncrement(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.NewCounter(MetricOpts{Name: "m", Help: "h"})
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	if err := c.Inc(-1); err == nil {
		t.Error("expected error incrementing counter by a negative amount")
	}
}

func TestCounterIncTo(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.NewCounter(MetricOpts{Name: "m", Help: "h"})
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	_ = c.Inc(10)
	c.IncTo(5) // should not decrease
	if c.Value() != 10 {
		t.Errorf("IncTo(5) after 10: got %v, want 10", c.Value())
	}
	c.IncTo(20)
	if c.Value() != 20 {
		t.Errorf("IncTo(20): got %v, want 20", c.Value())
	}
}

func TestGaugeIncDec(t *testing.T) {
	reg := NewRegistry()
	g, err := reg.NewGauge(MetricOpts{Name: "m", Help: "h"})
	if err != nil {
		t.Fatalf("NewGauge: %v", err)
	}
	g.Set(10)
	g.Inc()
	g.Inc(5)
	g.Dec(3)
	if g.Value() != 13 {
		t.Errorf("got %v, want 13", g.Value())
	}
}

func TestSummaryObserveAndQuery(t *testing.T) {
	reg := NewRegistry()
	s, err := reg.NewSummary(SummaryOpts{
		MetricOpts: MetricOpts{Name: "latency", Help: "h"},
		BufferCap:  16,
	})
	if err != nil {
		t.Fatalf("NewSummary: %v", err)
	}
	for i := 1; i <= 200; i++ {
		s.Observe(float64(i))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	m := families[0].Metrics[0]
	if m.Value.SampleCount != 200 {
		t.Errorf("sample count: got %d, want 200", m.Value.SampleCount)
	}
	if m.Value.SampleSum != 20100 {
		t.Errorf("sample sum: got %v, want 20100", m.Value.SampleSum)
	}
	for _, q := range m.Value.Quantiles {
		want := q.Quantile * 200
		if math.Abs(q.Value-want) > 20 {
			t.Errorf("quantile %v: got %v, want ~%v", q.Quantile, q.Value, want)
		}
	}
}

func TestHistogramVecLabelValues(t *testing.T) {
	reg := NewRegistry()
	vec, err := reg.NewHistogramVec(HistogramOpts{
		MetricOpts: MetricOpts{Name: "m", Help: "h", Labels: []string{"route"}},
	})
	if err != nil {
		t.Fatalf("NewHistogramVec: %v", err)
	}
	h1, err := vec.WithLabelValues("/a")
	if err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}
	h2, err := vec.WithLabelValues("/b")
	if err != nil {
		t.Fatalf("WithLabelValues: %v", err)
	}
	h1.Observe(1)
	h2.Observe(2)

	if len(vec.AllLabelValues()) != 2 {
		t.Errorf("expected 2 label tuples, got %d", len(vec.AllLabelValues()))
	}
}
