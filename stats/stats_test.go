package stats_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/influxdata/colstats/frame"
	kerrors "github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/stats"
	"github.com/influxdata/colstats/table"
	"github.com/influxdata/colstats/table/inmem"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func newTable(t *testing.T, size int, columns ...*table.Column) *frame.Frame {
	t.Helper()
	schema, parts, err := inmem.Split(size, columns...)
	require.NoError(t, err)
	return frame.New(schema, parts)
}

func sampleTable(t *testing.T) *frame.Frame {
	return newTable(t, 2,
		inmem.Floats("x", 0, 0, 1, 2),
		inmem.NullableFloats("y", nil, ptr(1), nil, ptr(2)),
		inmem.Strings("s", "a", "bb", "bb", "ccc"),
		inmem.Values("flag", true, false, true, nil),
	)
}

func keys(r stats.Result) []string {
	var ks []string
	for k := range r {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func TestOperators_Envelope(t *testing.T) {
	ctx := context.Background()
	tbl := sampleTable(t)
	numeric := []string{"x", "y"}

	for _, tt := range []struct {
		name    string
		columns []string
		args    stats.Args
		want    []string
	}{
		{name: "min", columns: numeric, want: []string{"min"}},
		{name: "max", columns: numeric, want: []string{"max"}},
		{name: "mean", columns: numeric, want: []string{"mean"}},
		{name: "variance", columns: numeric, want: []string{"variance"}},
		{name: "sum", columns: numeric, want: []string{"sum"}},
		{name: "percentile", columns: numeric, args: stats.Args{Quantiles: []float64{0.25, 0.75}}, want: []string{"percentile"}},
		{name: "stddev", columns: numeric, want: []string{"stddev"}},
		{name: "zeros", columns: numeric, want: []string{"zeros"}},
		{name: "count_na", columns: numeric, want: []string{"count_na"}},
		{name: "hist", columns: []string{"x", "s"}, args: stats.Args{Buckets: 4}, want: []string{"hist"}},
		{name: "kurtosis", columns: numeric, want: []string{"kurtosis"}},
		{name: "skewness", columns: numeric, want: []string{"skewness"}},
		{name: "count_uniques", columns: numeric, args: stats.Args{Estimate: true}, want: []string{"count_uniques"}},
		{name: "range", columns: numeric, want: []string{"max", "min"}},
		{name: "mad", columns: numeric, want: []string{"mad"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			factory, ok := stats.Lookup(tt.name)
			require.True(t, ok)
			res, err := factory(tt.columns, tt.args)(ctx, tbl)
			require.NoError(t, err)
			require.Equal(t, tt.want, keys(res))
			for _, k := range tt.want {
				for _, col := range tt.columns {
					require.Contains(t, res[k], col)
				}
			}
		})
	}
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{
		"count_na", "count_uniques", "hist", "kurtosis", "mad", "max", "mean",
		"min", "percentile", "range", "skewness", "stddev", "sum", "variance", "zeros",
	}, stats.Names())

	_, ok := stats.Lookup("median")
	require.False(t, ok)
	require.Panics(t, func() { stats.MustLookup("median") })
}

func TestZeros(t *testing.T) {
	tbl := newTable(t, 3, inmem.Floats("x", 0, 0, 1, 2))
	res, err := stats.Zeros([]string{"x"}, stats.Args{})(context.Background(), tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"zeros": {"x": int64(2)}}, res)
}

func TestCountNA(t *testing.T) {
	tbl := newTable(t, 1, inmem.NullableFloats("x", nil, ptr(1), nil, ptr(2)))
	res, err := stats.CountNA([]string{"x"}, stats.Args{})(context.Background(), tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"count_na": {"x": int64(2)}}, res)
}

func TestPercentile(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t, 2, inmem.Floats("x", 1, 2, 3, 4, 5))

	res, err := stats.Percentile([]string{"x"}, stats.Args{Quantiles: []float64{0.5, 0.25}})(ctx, tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"percentile": {"x": []float64{3, 2}}}, res)

	_, err = stats.Percentile([]string{"x"}, stats.Args{})(ctx, tbl)
	require.Equal(t, kerrors.EInvalid, kerrors.ErrorCode(err))
}

func TestRange(t *testing.T) {
	tbl := newTable(t, 2, inmem.Floats("x", 3, -1, 7), inmem.Floats("y", 5, 5, 5))
	res, err := stats.MinMax([]string{"x", "y"}, stats.Args{})(context.Background(), tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{
		"min": {"x": -1.0, "y": 5.0},
		"max": {"x": 7.0, "y": 5.0},
	}, res)
}

func TestMAD(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t, 2, inmem.Floats("x", 1, 2, 3, 4, 100))

	res, err := stats.MAD([]string{"x"}, stats.Args{More: false})(ctx, tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"mad": {"x": 1.0}}, res)

	res, err = stats.MAD([]string{"x"}, stats.Args{More: true})(ctx, tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{
		"mad":    {"x": 1.0},
		"median": {"x": 3.0},
	}, res)
}

func TestMAD_ApproximateQuantiles(t *testing.T) {
	schema, parts, err := inmem.Split(2, inmem.Floats("x", 1, 2, 3, 4, 100))
	require.NoError(t, err)
	tbl := frame.New(schema, parts, frame.WithApproxQuantiles(0))

	res, err := stats.MAD([]string{"x"}, stats.Args{More: true})(context.Background(), tbl)
	require.NoError(t, err)
	require.InDelta(t, 3, res["median"]["x"], 0.5)
	require.InDelta(t, 1, res["mad"]["x"], 0.5)
}

func TestCountUniques(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t, 3, inmem.Floats("x", 1, 2, 3, 4, 5, 5, 4, 1))

	res, err := stats.CountUniques([]string{"x"}, stats.Args{Estimate: false})(ctx, tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"count_uniques": {"x": int64(5)}}, res)

	res, err = stats.CountUniques([]string{"x"}, stats.Args{Estimate: true})(ctx, tbl)
	require.NoError(t, err)
	require.InDelta(t, 5, res["count_uniques"]["x"], 1)
}

func TestCountUniques_ExactSpansAllColumns(t *testing.T) {
	tbl := sampleTable(t)
	res, err := stats.CountUniques([]string{"x"}, stats.Args{})(context.Background(), tbl)
	require.NoError(t, err)
	require.Equal(t, stats.Result{"count_uniques": {
		"x":    int64(3),
		"y":    int64(2),
		"s":    int64(3),
		"flag": int64(2),
	}}, res)
}

func TestOperators_PropagateTableErrors(t *testing.T) {
	ctx := context.Background()
	tbl := sampleTable(t)

	_, err := stats.Mean([]string{"missing"}, stats.Args{})(ctx, tbl)
	require.Equal(t, kerrors.ENotFound, kerrors.ErrorCode(err))

	_, err = stats.MinMax([]string{"s"}, stats.Args{})(ctx, tbl)
	require.Equal(t, kerrors.EUnprocessableEntity, kerrors.ErrorCode(err))
}

func TestOperators_Idempotent(t *testing.T) {
	ctx := context.Background()
	tbl := sampleTable(t)
	for _, name := range stats.Names() {
		columns := []string{"x", "y"}
		args := stats.Args{Quantiles: []float64{0.5}, Buckets: 3, More: true}
		fn := stats.MustLookup(name)(columns, args)

		first, err := fn(ctx, tbl)
		require.NoError(t, err, name)
		second, err := fn(ctx, tbl)
		require.NoError(t, err, name)
		if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("%s: results differ -first/+second\n%s", name, diff)
		}
	}
}

func TestResult_Merge(t *testing.T) {
	r := stats.Result{"min": {"x": 1.0}}
	r.Merge(stats.Result{"min": {"y": 2.0}, "max": {"x": 3.0}})
	r.Merge(stats.Result{"min": {"x": 0.0}})
	require.Equal(t, stats.Result{
		"min": {"x": 0.0, "y": 2.0},
		"max": {"x": 3.0},
	}, r)
}

func TestOperators_NaNForEmptyColumn(t *testing.T) {
	tbl := newTable(t, 2, inmem.NullableFloats("x", nil, nil))
	res, err := stats.Mean([]string{"x"}, stats.Args{})(context.Background(), tbl)
	require.NoError(t, err)
	require.True(t, math.IsNaN(res["mean"]["x"].(float64)))
}

func TestTypeError(t *testing.T) {
	err := error(&stats.TypeError{Column: "flag", Kind: table.Other, Accepted: []string{"numeric", "string"}})
	require.EqualError(t, err, `column "flag" is other, expected one of [numeric, string]`)

	var te *stats.TypeError
	require.True(t, errors.As(err, &te))
}
