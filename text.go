package metric

import (
	"bufio"
	"fmt"
	"io"
)

// EncodeText renders families in the Prometheus text exposition format
// (version 0.0.4, C11, §4.7): one HELP line, one TYPE line, then one line
// per child — cumulative bucket lines for histograms, one line per
// quantile for summaries. Families are written in the order given; callers
// that want a stable scrape (S8) should sort by name first.
func EncodeText(w io.Writer, families []*MetricFamily) error {
	bw := bufio.NewWriter(w)
	for _, mf := range families {
		if err := encodeFamily(bw, mf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeFamily(w *bufio.Writer, mf *MetricFamily) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", mf.Name, escapeHelp(mf.Help)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s %s\n", mf.Name, mf.Type.String()); err != nil {
		return err
	}
	for _, m := range mf.Metrics {
		if err := encodeMetric(w, mf, m); err != nil {
			return err
		}
	}
	return nil
}

func encodeMetric(w *bufio.Writer, mf *MetricFamily, m Metric) error {
	switch mf.Type {
	case MetricTypeCounter, MetricTypeGauge:
		// Counters and gauges serialize to exactly their precomputed
		// identifier (C3): no suffix, no labels beyond the tuple/static
		// set it was built from, so there's nothing left to rebuild. A
		// Metric that carries no identifier has it built from the family
		// name and its Labels.
		if len(m.Identifier) == 0 {
			return writeSample(w, mf.Name, "", m.Labels, m.Value.Value)
		}
		return writeIdentifierValue(w, m.Identifier, m.Value.Value)
	case MetricTypeHistogram:
		for _, b := range m.Value.Buckets {
			bucketLabels := append(append([]LabelPair(nil), m.Labels...), LabelPair{Name: "le", Value: formatLabelValue(b.UpperBound)})
			if err := writeSample(w, mf.Name, "_bucket", bucketLabels, float64(b.CumulativeCount)); err != nil {
				return err
			}
		}
		if err := writeSample(w, mf.Name, "_sum", m.Labels, m.Value.SampleSum); err != nil {
			return err
		}
		return writeSample(w, mf.Name, "_count", m.Labels, float64(m.Value.SampleCount))
	case MetricTypeSummary:
		for _, q := range m.Value.Quantiles {
			qLabels := append(append([]LabelPair(nil), m.Labels...), LabelPair{Name: "quantile", Value: formatLabelValue(q.Quantile)})
			if err := writeSample(w, mf.Name, "", qLabels, q.Value); err != nil {
				return err
			}
		}
		if err := writeSample(w, mf.Name, "_sum", m.Labels, m.Value.SampleSum); err != nil {
			return err
		}
		return writeSample(w, mf.Name, "_count", m.Labels, float64(m.Value.SampleCount))
	default:
		return fmt.Errorf("metric: unencodable family type %v", mf.Type)
	}
}

// writeSample renders one sample line for a suffixed or extra-labeled form
// a child's precomputed identifier doesn't cover (histogram buckets,
// summary quantiles, and the _sum/_count companions of both). Labels are
// written in the order given — the tuple's own labels first, then static
// labels (§4.7) — never sorted.
func writeSample(w *bufio.Writer, name, suffix string, labels []LabelPair, value float64) error {
	return writeIdentifierValue(w, buildIdentifier(name, suffix, labels), value)
}

func writeIdentifierValue(w *bufio.Writer, id []byte, value float64) error {
	w.Write(id)
	w.WriteByte(' ')
	w.WriteString(formatLabelValue(value))
	_, err := w.WriteString("\n")
	return err
}

// escapeHelp escapes a HELP line's text: backslash and newline only (§4.7;
// HELP text is not quoted, so quotes need no escaping).
func escapeHelp(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
