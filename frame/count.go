package frame

import (
	"context"
	"strconv"

	"github.com/influxdata/colstats/table"
	"github.com/retailnext/hllpp"
)

func add(a, b int64) int64 { return a + b }

func identity[T any](v T) T { return v }

// CountNull returns the number of null entries of each column.
func (f *Frame) CountNull(ctx context.Context, columns []string) (map[string]int64, error) {
	counts, err := perColumn(ctx, f, "frame.CountNull", columns, false, func(c *table.Column) int64 {
		var n int64
		for i, l := 0, c.Len(); i < l; i++ {
			if c.IsNull(i) {
				n++
			}
		}
		return n
	}, add)
	if err != nil {
		return nil, err
	}
	return finish(columns, counts, identity[int64]), nil
}

// CountZeros returns the number of entries equal to zero in each column.
// Columns that are not numeric never hold a zero.
func (f *Frame) CountZeros(ctx context.Context, columns []string) (map[string]int64, error) {
	counts, err := perColumn(ctx, f, "frame.CountZeros", columns, false, func(c *table.Column) int64 {
		if c.Kind != table.Numeric {
			return 0
		}
		var n int64
		for i, v := range c.Floats {
			if v == 0 && !c.IsNull(i) {
				n++
			}
		}
		return n
	}, add)
	if err != nil {
		return nil, err
	}
	return finish(columns, counts, identity[int64]), nil
}

// key returns the identity of row i used for distinct counting.
func key(c *table.Column, i int) string {
	if c.Kind == table.Numeric {
		v := c.Floats[i]
		if v == 0 {
			// -0 and 0 are the same value.
			v = 0
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c.Strings[i]
}

type set map[string]struct{}

func (a set) merge(b set) set {
	if len(a) < len(b) {
		a, b = b, a
	}
	for k := range b {
		a[k] = struct{}{}
	}
	return a
}

// NUnique returns the exact number of distinct non-null values of each
// column.
func (f *Frame) NUnique(ctx context.Context, columns []string) (map[string]int64, error) {
	sets, err := perColumn(ctx, f, "frame.NUnique", columns, false, func(c *table.Column) set {
		s := make(set)
		for i, l := 0, c.Len(); i < l; i++ {
			if !c.IsNull(i) {
				s[key(c, i)] = struct{}{}
			}
		}
		return s
	}, set.merge)
	if err != nil {
		return nil, err
	}
	return finish(columns, sets, func(s set) int64 { return int64(len(s)) }), nil
}

// NUniqueApprox estimates the number of distinct non-null values of each
// column with a HyperLogLog++ sketch per partition. Memory is bounded by the
// sketch size regardless of cardinality.
func (f *Frame) NUniqueApprox(ctx context.Context, columns []string) (map[string]int64, error) {
	var mergeErr error
	sketches, err := perColumn(ctx, f, "frame.NUniqueApprox", columns, false, func(c *table.Column) *hllpp.HLLPP {
		h := hllpp.New()
		for i, l := 0, c.Len(); i < l; i++ {
			if !c.IsNull(i) {
				h.Add([]byte(key(c, i)))
			}
		}
		return h
	}, func(a, b *hllpp.HLLPP) *hllpp.HLLPP {
		if err := a.Merge(b); err != nil && mergeErr == nil {
			mergeErr = err
		}
		return a
	})
	if err != nil {
		return nil, err
	}
	if mergeErr != nil {
		return nil, mergeErr
	}
	return finish(columns, sketches, func(h *hllpp.HLLPP) int64 {
		if h == nil {
			return 0
		}
		return int64(h.Count())
	}), nil
}
