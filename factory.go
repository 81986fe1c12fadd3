package metric

import "time"

// MetricOpts are the common construction parameters shared by every
// metric kind (C8): name, help text, label schema and any static labels
// baked into every child this metric creates.
type MetricOpts struct {
	Name         string
	Help         string
	Labels       []string     // label schema (names only, order matters)
	StaticLabels []LabelPair  // fixed labels merged into every child
	Suppress     bool         // suppress a child's initial (pre-observation) value
}

// HistogramOpts extends MetricOpts with the bucket boundaries (I5). An
// empty Buckets falls back to DefaultBuckets.
type HistogramOpts struct {
	MetricOpts
	Buckets []float64
}

// SummaryOpts extends MetricOpts with the quantile objectives and the
// sliding-window parameters the CKMS streams use (§4.5).
type SummaryOpts struct {
	MetricOpts
	Objectives []Objective
	MaxAge     time.Duration // default 10 minutes
	AgeBuckets int           // default 5
	BufferCap  int           // default 500
}

const (
	defaultMaxAge     = 10 * time.Minute
	defaultAgeBuckets = 5
	defaultBufferCap  = 500
)

// DefaultObjectives mirrors the common {0.5: 0.05, 0.9: 0.01, 0.99: 0.001}
// target set used when a Summary is built without explicit objectives.
var DefaultObjectives = []Objective{
	{Quantile: 0.5, Epsilon: 0.05},
	{Quantile: 0.9, Epsilon: 0.01},
	{Quantile: 0.99, Epsilon: 0.001},
}

// CounterVec is a counter family with one or more label dimensions (C8).
type CounterVec struct{ f *Family }

// GaugeVec is a gauge family with one or more label dimensions.
type GaugeVec struct{ f *Family }

// HistogramVec is a histogram family with one or more label dimensions.
type HistogramVec struct{ f *Family }

// SummaryVec is a summary family with one or more label dimensions.
type SummaryVec struct{ f *Family }

// NewCounterVec registers (or looks up) a counter family.
func (r *Registry) NewCounterVec(opts MetricOpts) (*CounterVec, error) {
	f, err := r.getOrAdd(opts.Name, opts.Help, MetricTypeCounter, opts.Labels, opts.Suppress, opts.StaticLabels)
	if err != nil {
		return nil, err
	}
	return &CounterVec{f: f}, nil
}

// NewGaugeVec registers (or looks up) a gauge family.
func (r *Registry) NewGaugeVec(opts MetricOpts) (*GaugeVec, error) {
	f, err := r.getOrAdd(opts.Name, opts.Help, MetricTypeGauge, opts.Labels, opts.Suppress, opts.StaticLabels)
	if err != nil {
		return nil, err
	}
	return &GaugeVec{f: f}, nil
}

// NewHistogramVec registers (or looks up) a histogram family.
func (r *Registry) NewHistogramVec(opts HistogramOpts) (*HistogramVec, error) {
	buckets, err := finalizeBuckets(opts.Buckets)
	if err != nil {
		return nil, err
	}
	f, err := r.getOrAdd(opts.Name, opts.Help, MetricTypeHistogram, opts.Labels, opts.Suppress, opts.StaticLabels)
	if err != nil {
		return nil, err
	}
	if f.buckets == nil {
		f.buckets = buckets
	}
	return &HistogramVec{f: f}, nil
}

// NewSummaryVec registers (or looks up) a summary family.
func (r *Registry) NewSummaryVec(opts SummaryOpts) (*SummaryVec, error) {
	objectives := opts.Objectives
	if len(objectives) == 0 {
		objectives = DefaultObjectives
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	ageBuckets := opts.AgeBuckets
	if ageBuckets <= 0 {
		ageBuckets = defaultAgeBuckets
	}
	bufferCap := opts.BufferCap
	if bufferCap <= 0 {
		bufferCap = defaultBufferCap
	}

	f, err := r.getOrAdd(opts.Name, opts.Help, MetricTypeSummary, opts.Labels, opts.Suppress, opts.StaticLabels)
	if err != nil {
		return nil, err
	}
	if f.invariant == nil {
		f.objectives = objectives
		f.invariant = targetedInvariant(objectives)
		f.maxAge = maxAge
		f.ageBuckets = ageBuckets
		f.bufferCap = bufferCap
	}
	return &SummaryVec{f: f}, nil
}

// NewCounter registers a zero-label counter and returns its single child.
func (r *Registry) NewCounter(opts MetricOpts) (*Counter, error) {
	vec, err := r.NewCounterVec(opts)
	if err != nil {
		return nil, err
	}
	return vec.WithLabelValues()
}

// NewGauge registers a zero-label gauge and returns its single child.
func (r *Registry) NewGauge(opts MetricOpts) (*Gauge, error) {
	vec, err := r.NewGaugeVec(opts)
	if err != nil {
		return nil, err
	}
	return vec.WithLabelValues()
}

// NewHistogram registers a zero-label histogram and returns its single child.
func (r *Registry) NewHistogram(opts HistogramOpts) (*Histogram, error) {
	vec, err := r.NewHistogramVec(opts)
	if err != nil {
		return nil, err
	}
	return vec.WithLabelValues()
}

// NewSummary registers a zero-label summary and returns its single child.
func (r *Registry) NewSummary(opts SummaryOpts) (*Summary, error) {
	vec, err := r.NewSummaryVec(opts)
	if err != nil {
		return nil, err
	}
	return vec.WithLabelValues()
}

// WithLabelValues returns (creating if necessary) the counter for these
// label values, in the order the family's schema declares (I3).
func (v *CounterVec) WithLabelValues(values ...string) (*Counter, error) {
	c, err := v.f.withLabelValues(values)
	if err != nil {
		return nil, err
	}
	return c.(*Counter), nil
}

// Remove discards the child for these label values.
func (v *CounterVec) Remove(values ...string) error { return v.f.remove(values) }

// AllLabelValues returns every label-value tuple registered so far.
func (v *CounterVec) AllLabelValues() [][]string { return v.f.allLabelValues() }

// WithLabelValues returns (creating if necessary) the gauge for these
// label values.
func (v *GaugeVec) WithLabelValues(values ...string) (*Gauge, error) {
	c, err := v.f.withLabelValues(values)
	if err != nil {
		return nil, err
	}
	return c.(*Gauge), nil
}

// Remove discards the child for these label values.
func (v *GaugeVec) Remove(values ...string) error { return v.f.remove(values) }

// AllLabelValues returns every label-value tuple registered so far.
func (v *GaugeVec) AllLabelValues() [][]string { return v.f.allLabelValues() }

// WithLabelValues returns (creating if necessary) the histogram for these
// label values.
func (v *HistogramVec) WithLabelValues(values ...string) (*Histogram, error) {
	c, err := v.f.withLabelValues(values)
	if err != nil {
		return nil, err
	}
	return c.(*Histogram), nil
}

// Remove discards the child for these label values.
func (v *HistogramVec) Remove(values ...string) error { return v.f.remove(values) }

// AllLabelValues returns every label-value tuple registered so far.
func (v *HistogramVec) AllLabelValues() [][]string { return v.f.allLabelValues() }

// WithLabelValues returns (creating if necessary) the summary for these
// label values.
func (v *SummaryVec) WithLabelValues(values ...string) (*Summary, error) {
	c, err := v.f.withLabelValues(values)
	if err != nil {
		return nil, err
	}
	return c.(*Summary), nil
}

// Remove discards the child for these label values.
func (v *SummaryVec) Remove(values ...string) error { return v.f.remove(values) }

// AllLabelValues returns every label-value tuple registered so far.
func (v *SummaryVec) AllLabelValues() [][]string { return v.f.allLabelValues() }
