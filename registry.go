package metric

import (
	"bytes"
	"fmt"
	"sync"
)

// BeforeCollectFunc is invoked once per Gather/CollectAndSerialize call,
// before any family is snapshotted, so it can refresh gauges or counters
// from an external source (§4.6, process/runtime collectors use this).
type BeforeCollectFunc func()

// Registry is the append-only collection of families a process exposes
// (C7). Families are never removed; once named and typed, a name is bound
// to that type and label schema for the registry's lifetime (I2).
type Registry struct {
	mu           sync.Mutex
	families     map[string]*Family
	order        []string
	staticLabels []LabelPair

	beforeCollect    []BeforeCollectFunc
	collectedOnce    bool
	beforeFirstOnce  []BeforeCollectFunc
	ranBeforeFirst   bool
}

// NewRegistry returns an empty registry with no static labels.
func NewRegistry() *Registry {
	return &Registry{families: make(map[string]*Family)}
}

// SetStaticLabels attaches a fixed label set to every metric this registry
// serializes, applied in addition to each metric's own static labels. It
// must be called before any family is registered and before the first
// Gather/CollectAndSerialize call.
func (r *Registry) SetStaticLabels(labels ...LabelPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.families) > 0 || r.ranBeforeFirst {
		return fmt.Errorf("%w: static labels must be set before any metric is registered or collected", ErrStateViolation)
	}
	r.staticLabels = append([]LabelPair(nil), labels...)
	return nil
}

// AddBeforeCollect registers a callback run synchronously at the start of
// every Gather/CollectAndSerialize call, in registration order.
func (r *Registry) AddBeforeCollect(fn BeforeCollectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCollect = append(r.beforeCollect, fn)
}

// AddBeforeFirstCollect registers a callback run exactly once, immediately
// before the registry's first Gather/CollectAndSerialize call. It is used
// to install default collectors (process/runtime stats, A4) lazily so a
// registry that is never scraped never pays for them.
func (r *Registry) AddBeforeFirstCollect(fn BeforeCollectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeFirstOnce = append(r.beforeFirstOnce, fn)
}

// getOrAdd returns the family named name, creating it with the given kind
// and label schema if it does not yet exist. A second call with a
// different kind or label schema fails with ErrSchemaConflict (I2, exact
// wording per the registration-conflict scenarios). metricStaticLabels are
// only consulted on first registration (§4.6 step 2: metric_config's
// static labels concatenated with the registry's, metric labels first,
// rejecting duplicate names between the two sets); a later repeat
// registration keeps whatever the family was first created with.
func (r *Registry) getOrAdd(name, help string, kind MetricType, labelSchema []string, suppressInit bool, metricStaticLabels []LabelPair) (*Family, error) {
	if err := validateMetricName(name); err != nil {
		return nil, err
	}
	if err := validateLabelSchema(labelSchema, kind); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[name]; ok {
		if f.kind != kind {
			return nil, fmt.Errorf("%w: collector of a different type with the same name is already registered", ErrSchemaConflict)
		}
		if !f.sameSchema(kind, labelSchema) {
			return nil, fmt.Errorf("%w: collector matches a previous registration but has a different set of label names", ErrSchemaConflict)
		}
		return f, nil
	}

	staticLabels, err := mergeStaticLabels(metricStaticLabels, r.staticLabels)
	if err != nil {
		return nil, err
	}
	f := newFamily(name, help, kind, labelSchema, staticLabels, suppressInit)
	r.families[name] = f
	r.order = append(r.order, name)
	return f, nil
}

// mergeStaticLabels concatenates metric-level static labels with
// registry-level static labels, metric labels first, rejecting a name
// that appears in both sets.
func mergeStaticLabels(metric, registry []LabelPair) ([]LabelPair, error) {
	seen := make(map[string]struct{}, len(metric))
	for _, lp := range metric {
		seen[lp.Name] = struct{}{}
	}
	for _, lp := range registry {
		if _, dup := seen[lp.Name]; dup {
			return nil, fmt.Errorf("%w: static label %q is set by both the metric and the registry", ErrInvalidArgument, lp.Name)
		}
	}
	out := make([]LabelPair, 0, len(metric)+len(registry))
	out = append(out, metric...)
	out = append(out, registry...)
	return out, nil
}

// runBeforeCollect runs the once-only hooks, then every every-collect hook,
// including any a once-only hook has just added. Hooks run with the
// registry lock released, since they may call back into the registry
// (the default collectors register their metrics and refresh hook from a
// once-only hook).
func (r *Registry) runBeforeCollect() {
	r.mu.Lock()
	var once []BeforeCollectFunc
	if !r.ranBeforeFirst {
		once = r.beforeFirstOnce
		r.ranBeforeFirst = true
	}
	r.mu.Unlock()

	for _, fn := range once {
		fn()
	}

	r.mu.Lock()
	every := append([]BeforeCollectFunc(nil), r.beforeCollect...)
	r.mu.Unlock()
	for _, fn := range every {
		fn()
	}
}

// Gather snapshots every registered family and returns them in
// registration order, satisfying the Gatherer interface (§4.6 step 4:
// "for each family in insertion order, stream into the serializer").
func (r *Registry) Gather() ([]*MetricFamily, error) {
	r.runBeforeCollect()

	r.mu.Lock()
	families := make([]*Family, len(r.order))
	for i, name := range r.order {
		families[i] = r.families[name]
	}
	r.mu.Unlock()

	out := make([]*MetricFamily, len(families))
	for i, f := range families {
		out[i] = f.gather()
	}
	return out, nil
}

// CollectAndSerialize gathers every family and renders them in the text
// exposition format in one step (§4.7). The HTTP handler does not call it;
// it gathers and encodes on its own so it can pick text or protobuf.
func (r *Registry) CollectAndSerialize() ([]byte, error) {
	families, err := r.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailure, err)
	}
	var buf bytes.Buffer
	if err := EncodeText(&buf, families); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailure, err)
	}
	return buf.Bytes(), nil
}
