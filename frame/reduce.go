package frame

import (
	"context"
	"math"

	"github.com/influxdata/colstats/table"
)

type extent struct {
	n        int64
	min, max float64
}

func extentOf(c *table.Column) extent {
	var e extent
	for i, v := range c.Floats {
		if c.IsNull(i) {
			continue
		}
		if e.n == 0 || v < e.min {
			e.min = v
		}
		if e.n == 0 || v > e.max {
			e.max = v
		}
		e.n++
	}
	return e
}

func (a extent) merge(b extent) extent {
	switch {
	case a.n == 0:
		return b
	case b.n == 0:
		return a
	}
	return extent{n: a.n + b.n, min: math.Min(a.min, b.min), max: math.Max(a.max, b.max)}
}

// Min returns the smallest non-null value of each column, NaN when a column
// has none.
func (f *Frame) Min(ctx context.Context, columns []string) (map[string]float64, error) {
	ext, err := perColumn(ctx, f, "frame.Min", columns, true, extentOf, extent.merge)
	if err != nil {
		return nil, err
	}
	return finish(columns, ext, func(e extent) float64 {
		if e.n == 0 {
			return math.NaN()
		}
		return e.min
	}), nil
}

// Max returns the largest non-null value of each column, NaN when a column
// has none.
func (f *Frame) Max(ctx context.Context, columns []string) (map[string]float64, error) {
	ext, err := perColumn(ctx, f, "frame.Max", columns, true, extentOf, extent.merge)
	if err != nil {
		return nil, err
	}
	return finish(columns, ext, func(e extent) float64 {
		if e.n == 0 {
			return math.NaN()
		}
		return e.max
	}), nil
}

// Sum adds the non-null values of each column.
func (f *Frame) Sum(ctx context.Context, columns []string) (map[string]float64, error) {
	sums, err := perColumn(ctx, f, "frame.Sum", columns, true, func(c *table.Column) float64 {
		var sum float64
		for i, v := range c.Floats {
			if !c.IsNull(i) {
				sum += v
			}
		}
		return sum
	}, func(a, b float64) float64 { return a + b })
	if err != nil {
		return nil, err
	}
	return finish(columns, sums, func(v float64) float64 { return v }), nil
}

// moments holds the count, mean and central moment sums up to the fourth
// order. Partials are combined with the pairwise update of Chan et al.
type moments struct {
	n, mean, m2, m3, m4 float64
}

func momentsOf(c *table.Column) moments {
	var m moments
	for i, v := range c.Floats {
		if c.IsNull(i) {
			continue
		}
		m = m.merge(moments{n: 1, mean: v})
	}
	return m
}

func (a moments) merge(b moments) moments {
	switch {
	case a.n == 0:
		return b
	case b.n == 0:
		return a
	}
	n := a.n + b.n
	d := b.mean - a.mean
	d2 := d * d
	return moments{
		n:    n,
		mean: a.mean + d*b.n/n,
		m2:   a.m2 + b.m2 + d2*a.n*b.n/n,
		m3: a.m3 + b.m3 +
			d2*d*a.n*b.n*(a.n-b.n)/(n*n) +
			3*d*(a.n*b.m2-b.n*a.m2)/n,
		m4: a.m4 + b.m4 +
			d2*d2*a.n*b.n*(a.n*a.n-a.n*b.n+b.n*b.n)/(n*n*n) +
			6*d2*(a.n*a.n*b.m2+b.n*b.n*a.m2)/(n*n) +
			4*d*(a.n*b.m3-b.n*a.m3)/n,
	}
}

func (f *Frame) moments(ctx context.Context, op string, columns []string, fn func(moments) float64) (map[string]float64, error) {
	m, err := perColumn(ctx, f, op, columns, true, momentsOf, moments.merge)
	if err != nil {
		return nil, err
	}
	return finish(columns, m, fn), nil
}

// Mean returns the arithmetic mean of each column.
func (f *Frame) Mean(ctx context.Context, columns []string) (map[string]float64, error) {
	return f.moments(ctx, "frame.Mean", columns, func(m moments) float64 {
		if m.n == 0 {
			return math.NaN()
		}
		return m.mean
	})
}

// Var returns the sample variance (one delta degree of freedom).
func (f *Frame) Var(ctx context.Context, columns []string) (map[string]float64, error) {
	return f.moments(ctx, "frame.Var", columns, variance)
}

// Std returns the sample standard deviation.
func (f *Frame) Std(ctx context.Context, columns []string) (map[string]float64, error) {
	return f.moments(ctx, "frame.Std", columns, func(m moments) float64 {
		return math.Sqrt(variance(m))
	})
}

func variance(m moments) float64 {
	if m.n < 2 {
		return math.NaN()
	}
	return m.m2 / (m.n - 1)
}

// Skew returns the biased sample skewness.
func (f *Frame) Skew(ctx context.Context, columns []string) (map[string]float64, error) {
	return f.moments(ctx, "frame.Skew", columns, func(m moments) float64 {
		if m.n == 0 {
			return math.NaN()
		}
		return math.Sqrt(m.n) * m.m3 / math.Pow(m.m2, 1.5)
	})
}

// Kurtosis returns the biased Fisher kurtosis, which is zero for a normal
// distribution.
func (f *Frame) Kurtosis(ctx context.Context, columns []string) (map[string]float64, error) {
	return f.moments(ctx, "frame.Kurtosis", columns, func(m moments) float64 {
		if m.n == 0 {
			return math.NaN()
		}
		return m.n*m.m4/(m.m2*m.m2) - 3
	})
}
