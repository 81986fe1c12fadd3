package metric

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protodelim"

	dto "github.com/prometheus/client_model/go"
)

func TestNativeToDTORoundTrip(t *testing.T) {
	reg := NewRegistry()
	hist, err := reg.NewHistogram(HistogramOpts{
		MetricOpts: MetricOpts{Name: "req_latency_seconds", Help: "h"},
		Buckets:    []float64{0.1, 0.5, 1},
	})
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	hist.Observe(0.2)
	hist.Observe(0.6)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	dtoFamilies := NativeToDTO(families)
	if len(dtoFamilies) != 1 {
		t.Fatalf("expected 1 family, got %d", len(dtoFamilies))
	}
	if dtoFamilies[0].GetType() != dto.MetricType_HISTOGRAM {
		t.Errorf("expected HISTOGRAM type, got %v", dtoFamilies[0].GetType())
	}
	h := dtoFamilies[0].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("expected sample count 2, got %d", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(hist.upperBounds) {
		t.Errorf("expected %d buckets, got %d", len(hist.upperBounds), len(h.GetBucket()))
	}

	roundTripped := DTOToNative(dtoFamilies)
	if len(roundTripped) != 1 || roundTripped[0].Name != "req_latency_seconds" {
		t.Errorf("round trip lost the family, got %+v", roundTripped)
	}
	if roundTripped[0].Metrics[0].Value.SampleCount != 2 {
		t.Errorf("round trip lost the sample count, got %+v", roundTripped[0].Metrics[0].Value)
	}
}

func TestEncodeDelimitedProducesReadableFrames(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.NewCounter(MetricOpts{Name: "events_total", Help: "h"}); err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	if _, err := reg.NewGauge(MetricOpts{Name: "queue_depth", Help: "h"}); err != nil {
		t.Fatalf("NewGauge: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeDelimited(&buf, families); err != nil {
		t.Fatalf("EncodeDelimited: %v", err)
	}

	var names []string
	for buf.Len() > 0 {
		var mf dto.MetricFamily
		if err := protodelim.UnmarshalFrom(&buf, &mf); err != nil {
			t.Fatalf("UnmarshalFrom: %v", err)
		}
		names = append(names, mf.GetName())
	}
	if len(names) != 2 || names[0] != "events_total" || names[1] != "queue_depth" {
		t.Errorf("expected families in registration order, got %v", names)
	}
}
