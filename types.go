package metric

// MetricType identifies which of the four metric kinds a family holds.
type MetricType int32

const (
	MetricTypeCounter MetricType = iota
	MetricTypeGauge
	MetricTypeHistogram
	MetricTypeSummary
)

func (t MetricType) String() string {
	switch t {
	case MetricTypeCounter:
		return "counter"
	case MetricTypeGauge:
		return "gauge"
	case MetricTypeHistogram:
		return "histogram"
	case MetricTypeSummary:
		return "summary"
	default:
		return "untyped"
	}
}

// LabelPair is a single flattened name/value pair as it appears on the wire.
type LabelPair struct {
	Name  string
	Value string
}

// MetricValue holds the reported numeric payload of one child, shaped by Type.
type MetricValue struct {
	// Counter, Gauge
	Value float64

	// Histogram, Summary
	SampleCount uint64
	SampleSum   float64

	// Histogram only
	Buckets []Bucket

	// Summary only
	Quantiles []Quantile
}

// Bucket is one cumulative histogram bucket as reported to a gatherer.
type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// Quantile is one summary quantile estimate as reported to a gatherer.
type Quantile struct {
	Quantile float64
	Value    float64
}

// Metric is one child's labels and value, as reported to a gatherer.
type Metric struct {
	Labels []LabelPair
	Value  MetricValue

	// Identifier is the child's precomputed wire identifier (C3): the
	// exact "name{labels}" bytes this child would serialize to with no
	// suffix and no additional labels. Counters and gauges serialize
	// directly to this form, so the text encoder writes it as-is rather
	// than rebuilding it; histograms and summaries need per-line suffixes
	// and extra labels (le, quantile) that this precomputed form doesn't
	// carry, so they rebuild per line instead. It is empty when the Metric
	// was not gathered from a child (for example DTOToNative output) or
	// its family was renamed after gathering; the text encoder then builds
	// it from the family name and Labels.
	Identifier []byte
}

// MetricFamily is a gathered snapshot of one registered family.
type MetricFamily struct {
	Name    string
	Help    string
	Type    MetricType
	Metrics []Metric
}

// Labels is a label-name to label-value map. The vector types take label
// values positionally through WithLabelValues; none of them accepts a
// Labels map.
type Labels map[string]string
