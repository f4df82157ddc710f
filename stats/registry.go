// Package stats provides the column statistic operators. Each operator is a
// Factory: given the target columns and its arguments it returns a Func
// that computes the statistic against a partitioned table.
//
// Every Func returns a Result keyed by the statistic name whose value maps
// column names to the computed value:
//
//	{"zeros": {"x": 2, "y": 0}}
//
// The range operator is the one exception; it returns both "min" and "max".
package stats

import (
	"context"
	"sort"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
)

// Result keys, which are also the registered operator names unless noted.
const (
	MinKey          = "min"
	MaxKey          = "max"
	MeanKey         = "mean"
	VarianceKey     = "variance"
	SumKey          = "sum"
	PercentileKey   = "percentile"
	StddevKey       = "stddev"
	ZerosKey        = "zeros"
	CountNAKey      = "count_na"
	HistKey         = "hist"
	KurtosisKey     = "kurtosis"
	SkewnessKey     = "skewness"
	CountUniquesKey = "count_uniques"
	MADKey          = "mad"
	MedianKey       = "median" // emitted by mad only

	// RangeName is registered for the operator returning MinKey and MaxKey.
	RangeName = "range"
)

// Range is a closed [Min, Max] interval for one column.
type Range struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// Args holds the operator specific parameters. Operators ignore the fields
// they do not use.
type Args struct {
	// Quantiles requested by percentile, each in [0, 1].
	Quantiles []float64
	// Buckets is the number of histogram buckets.
	Buckets int
	// Range, when set, bounds every histogram column. When nil each column's
	// range is discovered.
	Range *Range
	// Estimate selects the approximate distinct count.
	Estimate bool
	// More makes mad also report the median.
	More bool
}

// Values maps a column name to its statistic.
type Values map[string]interface{}

// Result maps a statistic name to its per-column values.
type Result map[string]Values

// Merge copies every statistic and column of other into r, overwriting
// columns already present.
func (r Result) Merge(other Result) {
	for key, vs := range other {
		dst, ok := r[key]
		if !ok {
			dst = make(Values, len(vs))
			r[key] = dst
		}
		for col, v := range vs {
			dst[col] = v
		}
	}
}

// Func computes a statistic against a table.
type Func func(ctx context.Context, t table.Table) (Result, error)

// Factory binds an operator to its columns and arguments.
type Factory func(columns []string, args Args) Func

var registry = map[string]Factory{
	MinKey:          Min,
	MaxKey:          Max,
	MeanKey:         Mean,
	VarianceKey:     Variance,
	SumKey:          Sum,
	PercentileKey:   Percentile,
	StddevKey:       Stddev,
	ZerosKey:        Zeros,
	CountNAKey:      CountNA,
	HistKey:         Hist,
	KurtosisKey:     Kurtosis,
	SkewnessKey:     Skewness,
	CountUniquesKey: CountUniques,
	RangeName:       MinMax,
	MADKey:          MAD,
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}

// MustLookup is like Lookup but panics for an unknown name.
func MustLookup(name string) Factory {
	f, ok := Lookup(name)
	if !ok {
		panic(errors.Invalidf("stats.MustLookup", "unknown operator %q", name))
	}
	return f
}

// Names returns the registered operator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func valuesOf[T any](m map[string]T) Values {
	vs := make(Values, len(m))
	for k, v := range m {
		vs[k] = v
	}
	return vs
}
