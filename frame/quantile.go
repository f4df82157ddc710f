package frame

import (
	"context"
	"math"
	"sort"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
	"github.com/influxdata/tdigest"
)

// Quantile returns, per column, the value at each quantile in qs, in the
// order given. Exact quantiles interpolate linearly between the closest
// ranks; with WithApproxQuantiles a t-digest is used instead.
func (f *Frame) Quantile(ctx context.Context, columns []string, qs []float64) (map[string][]float64, error) {
	const op = "frame.Quantile"
	for _, q := range qs {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return nil, errors.Invalidf(op, "quantile must be between 0 and 1, got %v", q)
		}
	}

	values, err := perColumn(ctx, f, op, columns, true, nonNull, func(a, b []float64) []float64 {
		return append(a, b...)
	})
	if err != nil {
		return nil, err
	}

	if f.approxQuantiles {
		return finish(columns, values, func(vs []float64) []float64 {
			return f.digestQuantiles(vs, qs)
		}), nil
	}
	return finish(columns, values, func(vs []float64) []float64 {
		return exactQuantiles(vs, qs)
	}), nil
}

func nonNull(c *table.Column) []float64 {
	out := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.IsNull(i) {
			out = append(out, v)
		}
	}
	return out
}

func exactQuantiles(vs []float64, qs []float64) []float64 {
	out := make([]float64, len(qs))
	if len(vs) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	for i, q := range qs {
		pos := q * float64(len(sorted)-1)
		lo := math.Floor(pos)
		frac := pos - lo
		v := sorted[int(lo)]
		if frac > 0 {
			v += frac * (sorted[int(lo)+1] - v)
		}
		out[i] = v
	}
	return out
}

func (f *Frame) digestQuantiles(vs []float64, qs []float64) []float64 {
	out := make([]float64, len(qs))
	if len(vs) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	digest := tdigest.NewWithCompression(f.compression)
	for _, v := range vs {
		digest.Add(v, 1)
	}
	for i, q := range qs {
		out[i] = digest.Quantile(q)
	}
	return out
}
