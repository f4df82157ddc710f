// Package bins implements fixed-width bucketing of values into equally
// sized intervals over a closed range.
package bins

import (
	"fmt"
	"math"
)

// Fixed is a set of equal-width buckets spanning [Lo, Hi]. Every bucket is
// half-open except the last, which also holds Hi.
type Fixed struct {
	n      int
	lo, hi float64
	edges  []float64
}

// New returns n buckets over [lo, hi]. A degenerate range is widened by
// half a unit on each side.
func New(n int, lo, hi float64) (Fixed, error) {
	if n <= 0 {
		return Fixed{}, fmt.Errorf("bucket count must be positive, got %d", n)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Fixed{}, fmt.Errorf("range [%v, %v] is not finite", lo, hi)
	}
	if lo > hi {
		return Fixed{}, fmt.Errorf("range minimum %v exceeds maximum %v", lo, hi)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return Fixed{n: n, lo: lo, hi: hi, edges: edges}, nil
}

// Len returns the number of buckets.
func (f Fixed) Len() int { return f.n }

// Edges returns the Len()+1 bucket boundaries in ascending order.
func (f Fixed) Edges() []float64 {
	edges := make([]float64, len(f.edges))
	copy(edges, f.edges)
	return edges
}

// Index returns the bucket holding v, or -1 when v is NaN or outside the
// range. Bucket i holds edges[i] <= v < edges[i+1]; the estimate from the
// bucket width is corrected against the edges so rounding never places a
// value outside the bucket its edges describe.
func (f Fixed) Index(v float64) int {
	if math.IsNaN(v) || v < f.lo || v > f.hi {
		return -1
	}
	i := int((v - f.lo) * (float64(f.n) / (f.hi - f.lo)))
	if i >= f.n {
		i = f.n - 1
	}
	if v < f.edges[i] {
		i--
	} else if i != f.n-1 && v >= f.edges[i+1] {
		i++
	}
	return i
}

// Same reports whether f and other describe the same buckets.
func (f Fixed) Same(other Fixed) bool {
	return f.n == other.n && f.lo == other.lo && f.hi == other.hi
}

// Counter accumulates bucket membership counts.
type Counter struct {
	Fixed
	counts []int64
}

// NewCounter returns an empty counter over f.
func (f Fixed) NewCounter() *Counter {
	return &Counter{Fixed: f, counts: make([]int64, f.n)}
}

// Add records v with weight w. Values outside the range are dropped.
func (c *Counter) Add(v float64, w int64) {
	if i := c.Index(v); i >= 0 {
		c.counts[i] += w
	}
}

// Merge adds the counts of other into c. Both must share the same buckets.
func (c *Counter) Merge(other *Counter) error {
	if !c.Same(other.Fixed) {
		return fmt.Errorf("cannot merge counters over different buckets")
	}
	for i, n := range other.counts {
		c.counts[i] += n
	}
	return nil
}

// Counts returns a copy of the per-bucket counts.
func (c *Counter) Counts() []int64 {
	out := make([]int64, len(c.counts))
	copy(out, c.counts)
	return out
}

// Total returns the number of values recorded.
func (c *Counter) Total() int64 {
	var n int64
	for _, v := range c.counts {
		n += v
	}
	return n
}
