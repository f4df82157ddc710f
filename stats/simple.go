package stats

import (
	"context"
	"math"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
)

// delegate returns a factory wrapping a single table reduction under key.
func delegate[T any](key string, reduce func(t table.Table, ctx context.Context, columns []string) (map[string]T, error)) Factory {
	return func(columns []string, _ Args) Func {
		return func(ctx context.Context, t table.Table) (Result, error) {
			vs, err := reduce(t, ctx, columns)
			if err != nil {
				return nil, err
			}
			return Result{key: valuesOf(vs)}, nil
		}
	}
}

var (
	Min      = delegate(MinKey, table.Table.Min)
	Max      = delegate(MaxKey, table.Table.Max)
	Mean     = delegate(MeanKey, table.Table.Mean)
	Variance = delegate(VarianceKey, table.Table.Var)
	Sum      = delegate(SumKey, table.Table.Sum)
	Stddev   = delegate(StddevKey, table.Table.Std)
	Kurtosis = delegate(KurtosisKey, table.Table.Kurtosis)
	Skewness = delegate(SkewnessKey, table.Table.Skew)
	CountNA  = delegate(CountNAKey, table.Table.CountNull)

	// Zeros counts, per column, the entries equal to zero. The result is
	// always keyed by column, even for a single column.
	Zeros = delegate(ZerosKey, table.Table.CountZeros)
)

// Percentile reports, per column, the value at each of args.Quantiles in the
// order requested.
func Percentile(columns []string, args Args) Func {
	qs := append([]float64(nil), args.Quantiles...)
	return func(ctx context.Context, t table.Table) (Result, error) {
		if len(qs) == 0 {
			return nil, errors.Invalidf("stats.percentile", "at least one quantile is required")
		}
		vs, err := t.Quantile(ctx, columns, qs)
		if err != nil {
			return nil, err
		}
		return Result{PercentileKey: valuesOf(vs)}, nil
	}
}

// MinMax is the range operator. It reports the smallest and largest value
// of every column under MinKey and MaxKey, with no wrapping key.
func MinMax(columns []string, _ Args) Func {
	return func(ctx context.Context, t table.Table) (Result, error) {
		min, err := t.Min(ctx, columns)
		if err != nil {
			return nil, err
		}
		max, err := t.Max(ctx, columns)
		if err != nil {
			return nil, err
		}
		return Result{MinKey: valuesOf(min), MaxKey: valuesOf(max)}, nil
	}
}

// MAD reports the median absolute deviation of every column. The median is
// the 0.5 quantile as computed by the table, so approximate quantile
// backends are accepted. With args.More the median is reported as well.
func MAD(columns []string, args Args) Func {
	more := args.More
	return func(ctx context.Context, t table.Table) (Result, error) {
		half := []float64{0.5}
		medians, err := t.Quantile(ctx, columns, half)
		if err != nil {
			return nil, err
		}

		deviations := t
		for _, col := range columns {
			deviations = deviations.MapColumn(col, table.Numeric, absDeviation(medians[col][0]))
		}
		mads, err := deviations.Quantile(ctx, columns, half)
		if err != nil {
			return nil, err
		}

		res := Result{MADKey: make(Values, len(columns))}
		if more {
			res[MedianKey] = make(Values, len(columns))
		}
		for _, col := range columns {
			res[MADKey][col] = mads[col][0]
			if more {
				res[MedianKey][col] = medians[col][0]
			}
		}
		return res, nil
	}
}

func absDeviation(median float64) table.ColumnFunc {
	return func(c *table.Column) (*table.Column, error) {
		out := &table.Column{Floats: make([]float64, len(c.Floats)), Nulls: c.Nulls}
		for i, v := range c.Floats {
			out.Floats[i] = math.Abs(v - median)
		}
		return out, nil
	}
}
