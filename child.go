package metric

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// childBase is the state every per-label-tuple child shares: a back-index
// to its owning family (not ownership — the family owns the child, not
// the reverse), the label tuple it was created for, the precomputed wire
// identifier, and the publish flag (§3 Child, §9 Cyclic references).
type childBase struct {
	family    *Family
	labels    labelTuple
	id        []byte
	published atomic.Bool
}

func newChildBase(f *Family, labels labelTuple, suffix string, extra []LabelPair) childBase {
	all := append(labels.pairs(), extra...)
	return childBase{
		family: f,
		labels: labels,
		id:     buildIdentifier(f.name, suffix, all),
	}
}

func (c *childBase) markPublished() { c.published.Store(true) }
func (c *childBase) isPublished() bool {
	return c.published.Load()
}

// Counter is a monotonic double-valued cumulative total (C5).
type Counter struct {
	childBase
	value doubleCell
}

// Inc adds delta to the counter. delta must be >= 0 (I6); the default
// delta when called with no arguments is 1.
func (c *Counter) Inc(delta ...float64) error {
	d := 1.0
	if len(delta) > 0 {
		d = delta[0]
	}
	if d < 0 || math.IsNaN(d) {
		return fmt.Errorf("%w: counter increment must be >= 0, got %v", ErrInvalidArgument, d)
	}
	c.value.add(d)
	c.markPublished()
	return nil
}

// IncTo sets the counter to target iff target is greater than the current
// value (monotone clamp upward, S2).
func (c *Counter) IncTo(target float64) {
	c.value.maxTo(target)
	c.markPublished()
}

// Value returns the counter's current value.
func (c *Counter) Value() float64 {
	return c.value.load()
}

// Gauge is a freely mutable double-valued instantaneous measurement (C5).
type Gauge struct {
	childBase
	value doubleCell
}

// Set sets the gauge to v.
func (g *Gauge) Set(v float64) {
	g.value.store(v)
	g.markPublished()
}

// Inc adds d (default 1) to the gauge.
func (g *Gauge) Inc(d ...float64) {
	delta := 1.0
	if len(d) > 0 {
		delta = d[0]
	}
	g.value.add(delta)
	g.markPublished()
}

// Dec subtracts d (default 1) from the gauge: Dec(x) == Inc(-x).
func (g *Gauge) Dec(d ...float64) {
	delta := 1.0
	if len(d) > 0 {
		delta = d[0]
	}
	g.Inc(-delta)
}

// IncTo sets the gauge to v iff v is greater than the current value; it
// never decreases the value.
func (g *Gauge) IncTo(v float64) {
	g.value.maxTo(v)
	g.markPublished()
}

// DecTo sets the gauge to v iff v is less than the current value; it
// never increases the value.
func (g *Gauge) DecTo(v float64) {
	g.value.minTo(v)
	g.markPublished()
}

// Value returns the gauge's current value.
func (g *Gauge) Value() float64 {
	return g.value.load()
}

// Histogram samples observations into a fixed set of cumulative buckets
// plus a running sum and count (C5).
type Histogram struct {
	childBase
	upperBounds []float64 // strictly increasing, last is +Inf (I5)
	counts      []intCell
	sum         doubleCell
}

// Observe records one value (or `count` occurrences of it) in the
// histogram. NaN observations are silently discarded (§4.4).
func (h *Histogram) Observe(value float64, count ...uint64) {
	if math.IsNaN(value) {
		return
	}
	n := uint64(1)
	if len(count) > 0 {
		n = count[0]
	}
	idx := sort.SearchFloat64s(h.upperBounds, value)
	h.counts[idx].add(n)
	h.sum.add(value * float64(n))
	h.markPublished()
}

// totalCount returns the sum of all bucket counts.
func (h *Histogram) totalCount() uint64 {
	var total uint64
	for i := range h.counts {
		total += h.counts[i].load()
	}
	return total
}

// Summary estimates selected quantiles over a sliding age window using a
// biased-sample CKMS stream per age bucket (C5, §4.5).
type Summary struct {
	childBase

	objectives []Objective
	bufferCap  int
	invariant  invariantFunc
	now        func() time.Time

	bufMu     sync.Mutex // covers hot + hotExpiry
	hot       []float64
	hotExpiry time.Time

	stateMu          sync.Mutex // covers streams, headIndex, headStreamExpiry, count, sum
	streams          []*ckmsStream
	headIndex        int
	headStreamExpiry time.Time
	streamDuration   time.Duration

	count atomic.Uint64
	sum   doubleCell
}

// Observe records one value in the summary.
func (s *Summary) Observe(v float64) {
	if math.IsNaN(v) {
		return
	}
	now := s.now()

	s.bufMu.Lock()
	expired := now.After(s.hotExpiry)
	s.bufMu.Unlock()
	if expired {
		s.flush(now)
	}

	s.bufMu.Lock()
	s.hot = append(s.hot, v)
	full := len(s.hot) >= s.bufferCap
	s.bufMu.Unlock()

	if full {
		s.flush(s.now())
	}
	s.markPublished()
}

// flush swaps the hot and cold buffers, advances the expiry clock, merges
// the cold buffer into every age-bucket stream, and rotates any streams
// whose age has elapsed. Locking order is buffer-then-state throughout
// (§5, §9 Summary concurrency), never the reverse.
func (s *Summary) flush(now time.Time) {
	s.bufMu.Lock()
	cold := s.hot
	s.hot = make([]float64, 0, s.bufferCap)
	for now.After(s.hotExpiry) {
		s.hotExpiry = s.hotExpiry.Add(s.streamDuration)
	}
	s.bufMu.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	for _, v := range cold {
		for _, stream := range s.streams {
			stream.insert(v)
		}
		s.count.Add(1)
		s.sum.add(v)
	}
	for _, stream := range s.streams {
		stream.mergeAndCompress()
	}

	for !s.hotExpiry.Equal(s.headStreamExpiry) {
		s.streams[s.headIndex].reset()
		s.headIndex = (s.headIndex + 1) % len(s.streams)
		s.headStreamExpiry = s.headStreamExpiry.Add(s.streamDuration)
	}
}

// Query returns the estimated value at quantile q, read from the stream
// that has been accumulating the longest without exceeding max_age (the
// stream at headIndex, the next one due for rotation).
func (s *Summary) Query(q float64) float64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.streams[s.headIndex].query(q)
}

func (s *Summary) snapshotSumCount() (sum float64, count uint64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.sum.load(), s.count.Load()
}
