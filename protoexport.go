package metric

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
)

// ProtoContentType is the Accept/Content-Type value a scraper sends to ask
// for delimited binary protobuf instead of text v0.0.4 (A5, §4.9).
const ProtoContentType = `application/vnd.google.protobuf; proto=io.prometheus.client.MetricFamily; encoding=delimited`

// EncodeDelimited renders families as length-delimited client_model
// MetricFamily protobuf messages, the binary sibling of EncodeText: each
// message is preceded by its encoded size as a protobuf varint, so a
// reader can stream multiple families off one connection without a
// framing layer of its own.
func EncodeDelimited(w io.Writer, families []*MetricFamily) error {
	for _, mf := range NativeToDTO(families) {
		if _, err := protodelim.MarshalTo(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// NativeToDTO converts native MetricFamily slice to the protobuf client_model
// wire format (A5), used by the RPC snapshot service and by any consumer
// that wants delimited binary export instead of text (§4.9).
func NativeToDTO(families []*MetricFamily) []*dto.MetricFamily {
	if families == nil {
		return nil
	}
	result := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if mf == nil {
			continue
		}
		dtoMF := &dto.MetricFamily{
			Name: proto.String(mf.Name),
			Help: proto.String(mf.Help),
			Type: nativeTypeToDTO(mf.Type).Enum(),
		}
		for _, m := range mf.Metrics {
			dtoMF.Metric = append(dtoMF.Metric, nativeMetricToDTO(m, mf.Type))
		}
		result = append(result, dtoMF)
	}
	return result
}

// DTOToNative converts a protobuf client_model MetricFamily slice back into
// native MetricFamily slice, used when ingesting metrics scraped or pushed
// in the delimited binary format.
func DTOToNative(dtoFamilies []*dto.MetricFamily) []*MetricFamily {
	if dtoFamilies == nil {
		return nil
	}
	result := make([]*MetricFamily, 0, len(dtoFamilies))
	for _, dtoMF := range dtoFamilies {
		if dtoMF == nil {
			continue
		}
		mf := &MetricFamily{
			Name: dtoMF.GetName(),
			Help: dtoMF.GetHelp(),
			Type: dtoTypeToNative(dtoMF.GetType()),
		}
		for _, dtoM := range dtoMF.GetMetric() {
			if dtoM == nil {
				continue
			}
			mf.Metrics = append(mf.Metrics, Metric{
				Labels: dtoLabelsToNative(dtoM.GetLabel()),
				Value:  dtoValueToNative(dtoM, mf.Type),
			})
		}
		result = append(result, mf)
	}
	return result
}

func dtoTypeToNative(t dto.MetricType) MetricType {
	switch t {
	case dto.MetricType_COUNTER:
		return MetricTypeCounter
	case dto.MetricType_GAUGE:
		return MetricTypeGauge
	case dto.MetricType_HISTOGRAM:
		return MetricTypeHistogram
	case dto.MetricType_SUMMARY:
		return MetricTypeSummary
	default:
		return MetricTypeGauge
	}
}

func nativeTypeToDTO(t MetricType) dto.MetricType {
	switch t {
	case MetricTypeCounter:
		return dto.MetricType_COUNTER
	case MetricTypeGauge:
		return dto.MetricType_GAUGE
	case MetricTypeHistogram:
		return dto.MetricType_HISTOGRAM
	case MetricTypeSummary:
		return dto.MetricType_SUMMARY
	default:
		return dto.MetricType_GAUGE
	}
}

func dtoLabelsToNative(labels []*dto.LabelPair) []LabelPair {
	if labels == nil {
		return nil
	}
	result := make([]LabelPair, 0, len(labels))
	for _, lp := range labels {
		if lp == nil {
			continue
		}
		result = append(result, LabelPair{Name: lp.GetName(), Value: lp.GetValue()})
	}
	return result
}

func nativeLabelsToDTO(labels []LabelPair) []*dto.LabelPair {
	if labels == nil {
		return nil
	}
	result := make([]*dto.LabelPair, 0, len(labels))
	for _, lp := range labels {
		result = append(result, &dto.LabelPair{Name: proto.String(lp.Name), Value: proto.String(lp.Value)})
	}
	return result
}

func dtoValueToNative(m *dto.Metric, t MetricType) MetricValue {
	var v MetricValue
	switch t {
	case MetricTypeCounter:
		if c := m.GetCounter(); c != nil {
			v.Value = c.GetValue()
		}
	case MetricTypeGauge:
		if g := m.GetGauge(); g != nil {
			v.Value = g.GetValue()
		}
	case MetricTypeHistogram:
		if h := m.GetHistogram(); h != nil {
			v.SampleCount = h.GetSampleCount()
			v.SampleSum = h.GetSampleSum()
			for _, b := range h.GetBucket() {
				if b != nil {
					v.Buckets = append(v.Buckets, Bucket{UpperBound: b.GetUpperBound(), CumulativeCount: b.GetCumulativeCount()})
				}
			}
		}
	case MetricTypeSummary:
		if s := m.GetSummary(); s != nil {
			v.SampleCount = s.GetSampleCount()
			v.SampleSum = s.GetSampleSum()
			for _, q := range s.GetQuantile() {
				if q != nil {
					v.Quantiles = append(v.Quantiles, Quantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
				}
			}
		}
	}
	return v
}

func nativeMetricToDTO(m Metric, t MetricType) *dto.Metric {
	dtoM := &dto.Metric{Label: nativeLabelsToDTO(m.Labels)}
	switch t {
	case MetricTypeCounter:
		dtoM.Counter = &dto.Counter{Value: proto.Float64(m.Value.Value)}
	case MetricTypeGauge:
		dtoM.Gauge = &dto.Gauge{Value: proto.Float64(m.Value.Value)}
	case MetricTypeHistogram:
		h := &dto.Histogram{
			SampleCount: proto.Uint64(m.Value.SampleCount),
			SampleSum:   proto.Float64(m.Value.SampleSum),
		}
		for _, b := range m.Value.Buckets {
			h.Bucket = append(h.Bucket, &dto.Bucket{UpperBound: proto.Float64(b.UpperBound), CumulativeCount: proto.Uint64(b.CumulativeCount)})
		}
		dtoM.Histogram = h
	case MetricTypeSummary:
		s := &dto.Summary{
			SampleCount: proto.Uint64(m.Value.SampleCount),
			SampleSum:   proto.Float64(m.Value.SampleSum),
		}
		for _, q := range m.Value.Quantiles {
			s.Quantile = append(s.Quantile, &dto.Quantile{Quantile: proto.Float64(q.Quantile), Value: proto.Float64(q.Value)})
		}
		dtoM.Summary = s
	}
	return dtoM
}
