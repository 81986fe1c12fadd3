package metric

import (
	"fmt"
	"math"
)

// DefaultBuckets are the histogram buckets used when a Histogram is
// constructed without an explicit bucket list.
var DefaultBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// LinearBuckets returns count buckets, the first with an upper bound of
// start and each following one width wider than the last:
// [start, start+width, ..., start+(count-1)*width].
func LinearBuckets(start, width float64, count int) ([]float64, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: linear bucket count must be positive, got %d", ErrInvalidArgument, count)
	}
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start + float64(i)*width
	}
	return buckets, nil
}

// ExponentialBuckets returns count buckets, the first with an upper bound
// of start and each following one factor times the last:
// [start, start*factor, start*factor^2, ...].
func ExponentialBuckets(start, factor float64, count int) ([]float64, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: exponential bucket count must be positive, got %d", ErrInvalidArgument, count)
	}
	if start <= 0 {
		return nil, fmt.Errorf("%w: exponential bucket start must be positive, got %v", ErrInvalidArgument, start)
	}
	if factor <= 1 {
		return nil, fmt.Errorf("%w: exponential bucket factor must be greater than 1, got %v", ErrInvalidArgument, factor)
	}
	buckets := make([]float64, count)
	bound := start
	for i := range buckets {
		buckets[i] = bound
		bound *= factor
	}
	return buckets, nil
}

// finalizeBuckets validates a caller-supplied bucket list and appends +Inf
// if it is not already the final bound. An empty list falls back to
// DefaultBuckets (I5).
func finalizeBuckets(buckets []float64) ([]float64, error) {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	out := make([]float64, len(buckets))
	copy(out, buckets)
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			return nil, fmt.Errorf("%w: histogram buckets must be strictly increasing", ErrInvalidArgument)
		}
	}
	if len(out) == 0 || out[len(out)-1] != math.Inf(1) {
		out = append(out, math.Inf(1))
	}
	return out, nil
}
