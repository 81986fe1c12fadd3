package metric

import (
	"fmt"
	"sync"
	"time"
)

// Family is the registered (name, help, kind, label schema) unit; it holds
// every child ever created for a distinct label-value tuple (C6). Families
// are never removed from their registry (append-only, I2); individual
// children may be added or removed.
type Family struct {
	name        string
	help        string
	kind        MetricType
	labelSchema []string

	staticLabels []LabelPair // registry + metric-config static labels, fixed at creation
	suppressInit bool

	headerHelp []byte
	headerType []byte

	// kind-specific construction parameters, captured once at family
	// creation and applied to every child the family creates.
	buckets    []float64
	objectives []Objective
	invariant  invariantFunc
	bufferCap  int
	maxAge     time.Duration
	ageBuckets int
	nowFunc    func() time.Time

	mu       sync.Mutex
	children map[string]any // label-tuple key -> *Counter/*Gauge/*Histogram/*Summary
	tuples   map[string]labelTuple
	order    []string // insertion order of keys, for stable serialization
}

func newFamily(name, help string, kind MetricType, labelSchema []string, staticLabels []LabelPair, suppressInit bool) *Family {
	f := &Family{
		name:         name,
		help:         help,
		kind:         kind,
		labelSchema:  append([]string(nil), labelSchema...),
		staticLabels: staticLabels,
		suppressInit: suppressInit,
		children:     make(map[string]any),
		tuples:       make(map[string]labelTuple),
	}
	f.headerHelp = []byte(fmt.Sprintf("# HELP %s %s\n", name, help))
	f.headerType = []byte(fmt.Sprintf("# TYPE %s %s\n", name, kind.String()))
	return f
}

// sameSchema reports whether this family was declared with the same kind
// and label schema as another registration attempt (I2).
func (f *Family) sameSchema(kind MetricType, labelSchema []string) bool {
	if f.kind != kind || len(f.labelSchema) != len(labelSchema) {
		return false
	}
	for i := range labelSchema {
		if f.labelSchema[i] != labelSchema[i] {
			return false
		}
	}
	return true
}

// withLabelValues returns the child for this label-value tuple, creating
// it on first use. Every later call for the same tuple returns the exact
// same child reference (I3, S·P6).
func (f *Family) withLabelValues(values []string) (any, error) {
	tuple, err := newLabelTuple(f.labelSchema, values)
	if err != nil {
		return nil, err
	}
	return f.childFor(tuple), nil
}

func (f *Family) childFor(tuple labelTuple) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.children[tuple.key]; ok {
		return c
	}
	c := f.newChildLocked(tuple)
	f.children[tuple.key] = c
	f.tuples[tuple.key] = tuple
	f.order = append(f.order, tuple.key)
	return c
}

func (f *Family) newChildLocked(tuple labelTuple) any {
	base := newChildBase(f, tuple, "", f.staticLabels)
	base.published.Store(!f.suppressInit)

	switch f.kind {
	case MetricTypeCounter:
		return &Counter{childBase: base}
	case MetricTypeGauge:
		return &Gauge{childBase: base}
	case MetricTypeHistogram:
		h := &Histogram{childBase: base, upperBounds: f.buckets, counts: make([]intCell, len(f.buckets))}
		return h
	case MetricTypeSummary:
		return f.newSummaryLocked(base)
	default:
		panic("metric: unknown family kind")
	}
}

func (f *Family) newSummaryLocked(base childBase) *Summary {
	now := f.nowFunc
	if now == nil {
		now = time.Now
	}
	streamDuration := f.maxAge / time.Duration(f.ageBuckets)
	streams := make([]*ckmsStream, f.ageBuckets)
	for i := range streams {
		streams[i] = newCKMSStream(f.invariant, f.bufferCap)
	}
	start := now()
	return &Summary{
		childBase:        base,
		objectives:       f.objectives,
		bufferCap:        f.bufferCap,
		invariant:        f.invariant,
		now:              now,
		hot:              make([]float64, 0, f.bufferCap),
		hotExpiry:        start.Add(streamDuration),
		streams:          streams,
		headIndex:        0,
		headStreamExpiry: start.Add(streamDuration),
		streamDuration:   streamDuration,
	}
}

// remove discards the child for this tuple; a later withLabelValues call
// for the same tuple creates a fresh child with cleared state.
func (f *Family) remove(values []string) error {
	tuple, err := newLabelTuple(f.labelSchema, values)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.children, tuple.key)
	delete(f.tuples, tuple.key)
	for i, k := range f.order {
		if k == tuple.key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// allLabelValues returns every per-instance label-value tuple registered
// against this family, excluding the empty unlabelled tuple.
func (f *Family) allLabelValues() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, key := range f.order {
		t := f.tuples[key]
		if len(t.values) == 0 {
			continue
		}
		out = append(out, append([]string(nil), t.values...))
	}
	return out
}

// gather snapshots this family into a MetricFamily, iterating children in
// insertion order and skipping any that are not yet published.
func (f *Family) gather() *MetricFamily {
	f.mu.Lock()
	keys := append([]string(nil), f.order...)
	children := make([]any, len(keys))
	for i, k := range keys {
		children[i] = f.children[k]
	}
	f.mu.Unlock()

	mf := &MetricFamily{Name: f.name, Help: f.help, Type: f.kind}
	for _, c := range children {
		if m, ok := gatherChild(c); ok {
			mf.Metrics = append(mf.Metrics, m)
		}
	}
	return mf
}

func gatherChild(c any) (Metric, bool) {
	switch v := c.(type) {
	case *Counter:
		if !v.isPublished() {
			return Metric{}, false
		}
		return Metric{Labels: flattenedLabels(v.labels, v.family.staticLabels), Value: MetricValue{Value: v.Value()}, Identifier: v.id}, true
	case *Gauge:
		if !v.isPublished() {
			return Metric{}, false
		}
		return Metric{Labels: flattenedLabels(v.labels, v.family.staticLabels), Value: MetricValue{Value: v.Value()}, Identifier: v.id}, true
	case *Histogram:
		if !v.isPublished() {
			return Metric{}, false
		}
		var cumulative uint64
		buckets := make([]Bucket, len(v.upperBounds))
		for i, ub := range v.upperBounds {
			cumulative += v.counts[i].load()
			buckets[i] = Bucket{UpperBound: ub, CumulativeCount: cumulative}
		}
		return Metric{
			Labels: flattenedLabels(v.labels, v.family.staticLabels),
			Value: MetricValue{
				SampleCount: v.totalCount(),
				SampleSum:   v.sum.load(),
				Buckets:     buckets,
			},
		}, true
	case *Summary:
		if !v.isPublished() {
			return Metric{}, false
		}
		v.flush(v.now())
		sum, count := v.snapshotSumCount()
		quantiles := make([]Quantile, len(v.objectives))
		for i, o := range v.objectives {
			quantiles[i] = Quantile{Quantile: o.Quantile, Value: v.Query(o.Quantile)}
		}
		return Metric{
			Labels: flattenedLabels(v.labels, v.family.staticLabels),
			Value: MetricValue{
				SampleCount: count,
				SampleSum:   sum,
				Quantiles:   quantiles,
			},
		}, true
	default:
		return Metric{}, false
	}
}

func flattenedLabels(t labelTuple, static []LabelPair) []LabelPair {
	return append(t.pairs(), static...)
}
