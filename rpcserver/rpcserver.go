// Package rpcserver exposes a registry's current metrics over JSON-RPC,
// as an alternative query surface to the text-format HTTP handler (A6).
package rpcserver

import (
	"net/http"

	gorillarpc "github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	dto "github.com/prometheus/client_model/go"

	metric "github.com/flowmetrics/metric"
)

// SnapshotArgs takes no parameters today; it exists so the RPC method
// signature can grow filters (name prefix, label matchers) without
// breaking callers.
type SnapshotArgs struct{}

// SnapshotReply carries one protobuf-shaped MetricFamily per registered
// family, converted via metric.NativeToDTO (A5) and flattened into a
// JSON-friendly projection.
type SnapshotReply struct {
	Families []*DTOMetricFamily `json:"families"`
}

// DTOMetricFamily is the JSON-friendly projection of a client_model
// MetricFamily; gorilla/rpc's JSON codec round-trips plain structs more
// predictably than protobuf-generated types with their custom marshalers.
type DTOMetricFamily struct {
	Name    string      `json:"name"`
	Help    string      `json:"help"`
	Type    string      `json:"type"`
	Metrics []DTOMetric `json:"metrics"`
}

// DTOBucket is one cumulative histogram bucket.
type DTOBucket struct {
	UpperBound      float64 `json:"upper_bound"`
	CumulativeCount uint64  `json:"cumulative_count"`
}

// DTOQuantile is one summary quantile estimate.
type DTOQuantile struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

// DTOMetric is one child's exported value, flattened from a
// *dto.Metric for JSON transport.
type DTOMetric struct {
	Labels      map[string]string `json:"labels,omitempty"`
	Value       float64           `json:"value,omitempty"`
	SampleCount uint64            `json:"sample_count,omitempty"`
	SampleSum   float64           `json:"sample_sum,omitempty"`
	Buckets     []DTOBucket       `json:"buckets,omitempty"`
	Quantiles   []DTOQuantile     `json:"quantiles,omitempty"`
}

// MetricsService implements the RPC-callable "Snapshot" method gorilla/rpc
// dispatches to.
type MetricsService struct {
	Registry *metric.Registry
}

// Snapshot gathers the registry, converts it through metric.NativeToDTO,
// and returns every family's current value.
func (s *MetricsService) Snapshot(r *http.Request, args *SnapshotArgs, reply *SnapshotReply) error {
	families, err := s.Registry.Gather()
	if err != nil {
		return err
	}
	dtoFamilies := metric.NativeToDTO(families)
	reply.Families = make([]*DTOMetricFamily, len(dtoFamilies))
	for i, mf := range dtoFamilies {
		reply.Families[i] = dtoFamilyToJSON(mf)
	}
	return nil
}

func dtoFamilyToJSON(mf *dto.MetricFamily) *DTOMetricFamily {
	out := &DTOMetricFamily{Name: mf.GetName(), Help: mf.GetHelp(), Type: mf.GetType().String()}
	for _, m := range mf.GetMetric() {
		out.Metrics = append(out.Metrics, dtoMetricToJSON(m))
	}
	return out
}

func dtoMetricToJSON(m *dto.Metric) DTOMetric {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	out := DTOMetric{Labels: labels}
	switch {
	case m.Counter != nil:
		out.Value = m.GetCounter().GetValue()
	case m.Gauge != nil:
		out.Value = m.GetGauge().GetValue()
	case m.Histogram != nil:
		h := m.GetHistogram()
		out.SampleCount = h.GetSampleCount()
		out.SampleSum = h.GetSampleSum()
		for _, b := range h.GetBucket() {
			out.Buckets = append(out.Buckets, DTOBucket{UpperBound: b.GetUpperBound(), CumulativeCount: b.GetCumulativeCount()})
		}
	case m.Summary != nil:
		sm := m.GetSummary()
		out.SampleCount = sm.GetSampleCount()
		out.SampleSum = sm.GetSampleSum()
		for _, q := range sm.GetQuantile() {
			out.Quantiles = append(out.Quantiles, DTOQuantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
		}
	}
	return out
}

// NewHandler builds an http.Handler that serves reg's metrics as a
// JSON-RPC 1.0 endpoint at the path it is mounted on, with a single
// registered method: MetricsService.Snapshot.
func NewHandler(reg *metric.Registry) (http.Handler, error) {
	server := gorillarpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	if err := server.RegisterService(&MetricsService{Registry: reg}, ""); err != nil {
		return nil, err
	}
	return server, nil
}
