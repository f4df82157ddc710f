package stats

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/logger"
	"github.com/influxdata/colstats/pkg/bins"
	"github.com/influxdata/colstats/table"
	"go.uber.org/zap"
)

// Histogram holds fixed-width bucket counts and their len(Count)+1 edges.
type Histogram struct {
	Count []int64   `json:"count"`
	Bins  []float64 `json:"bins"`
}

// Total returns the number of values bucketed.
func (h *Histogram) Total() int64 {
	var n int64
	for _, c := range h.Count {
		n += c
	}
	return n
}

// TypeError is returned when a column's kind cannot be handled by an
// operator.
type TypeError struct {
	Column   string
	Kind     table.Kind
	Accepted []string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("column %q is %s, expected one of [%s]", e.Column, e.Kind, strings.Join(e.Accepted, ", "))
}

// Hist buckets every column into args.Buckets fixed-width buckets.
//
// Numeric columns bucket their values. String columns bucket the length of
// their values, so the histogram describes the length distribution. When
// args.Range is nil the range is discovered per column: the registry's range
// operator for numeric columns, the shortest and longest value for string
// columns. Any other kind fails the whole request with a *TypeError.
func Hist(columns []string, args Args) Func {
	buckets, given := args.Buckets, args.Range
	return func(ctx context.Context, t table.Table) (Result, error) {
		const op = "stats.hist"
		if buckets <= 0 {
			return nil, errors.Invalidf(op, "bucket count must be positive, got %d", buckets)
		}
		if given != nil && given.Min > given.Max {
			return nil, errors.Invalidf(op, "range minimum %v exceeds maximum %v", given.Min, given.Max)
		}

		kinds, numeric, err := classify(t.Schema(), columns)
		if err != nil {
			return nil, err
		}

		log := loggerFrom(ctx)
		var ranges Result
		out := make(Values, len(columns))
		for _, col := range columns {
			var h *Histogram
			switch kinds[col] {
			case table.String:
				h, err = stringHist(ctx, t, col, buckets, given)
			case table.Numeric:
				r := given
				if r == nil {
					// Discover every numeric range in one pass the first
					// time one is needed.
					if ranges == nil {
						if ranges, err = MinMax(numeric, Args{})(ctx, t); err != nil {
							return nil, err
						}
					}
					r = &Range{Min: ranges[MinKey][col].(float64), Max: ranges[MaxKey][col].(float64)}
				}
				h, err = numericHist(ctx, t, col, buckets, *r)
			}
			if err != nil {
				return nil, err
			}
			log.Debug("Bucketed column",
				zap.String("column", col),
				zap.Stringer("kind", kinds[col]),
				zap.Int("buckets", buckets),
				zap.Int64("total", h.Total()))
			out[col] = h
		}
		return Result{HistKey: out}, nil
	}
}

// classify resolves the kind of every column before any work starts.
func classify(schema table.Schema, columns []string) (map[string]table.Kind, []string, error) {
	kinds := make(map[string]table.Kind, len(columns))
	var numeric []string
	for _, col := range columns {
		kind, err := schema.Kind(col)
		if err != nil {
			return nil, nil, err
		}
		switch kind {
		case table.Numeric:
			numeric = append(numeric, col)
		case table.String:
		default:
			return nil, nil, &TypeError{
				Column:   col,
				Kind:     kind,
				Accepted: []string{table.Numeric.String(), table.String.String()},
			}
		}
		kinds[col] = kind
	}
	return kinds, numeric, nil
}

func numericHist(ctx context.Context, t table.Table, col string, buckets int, r Range) (*Histogram, error) {
	fixed, err := newBuckets(col, buckets, r)
	if err != nil {
		return nil, err
	}
	counts := table.Map(t.Partitions(), func(ctx context.Context, p table.Partition) (*bins.Counter, error) {
		c, err := p.Column(col)
		if err != nil {
			return nil, err
		}
		counter := fixed.NewCounter()
		for i, v := range c.Floats {
			if !c.IsNull(i) {
				counter.Add(v, 1)
			}
		}
		return counter, nil
	}).WithLimit(t.Concurrency())
	return mergeCounters(ctx, fixed, counts)
}

// lengthFrequencies maps every string length to the number of non-null
// values of that length. Each partition is counted independently and the
// partial tables are summed.
func lengthFrequencies(ctx context.Context, t table.Table, col string) (map[int]int64, error) {
	partials := table.Map(t.Partitions(), func(ctx context.Context, p table.Partition) (map[int]int64, error) {
		c, err := p.Column(col)
		if err != nil {
			return nil, err
		}
		freq := make(map[int]int64)
		for i, s := range c.Strings {
			if !c.IsNull(i) {
				freq[utf8.RuneCountInString(s)]++
			}
		}
		return freq, nil
	}).WithLimit(t.Concurrency())
	return table.Merge(ctx, partials, make(map[int]int64), func(acc, freq map[int]int64) map[int]int64 {
		for n, count := range freq {
			acc[n] += count
		}
		return acc
	})
}

func stringHist(ctx context.Context, t table.Table, col string, buckets int, given *Range) (*Histogram, error) {
	freq, err := lengthFrequencies(ctx, t, col)
	if err != nil {
		return nil, err
	}

	r := given
	if r == nil {
		lo, hi := math.Inf(1), math.Inf(-1)
		for n := range freq {
			lo = math.Min(lo, float64(n))
			hi = math.Max(hi, float64(n))
		}
		r = &Range{Min: lo, Max: hi}
	}

	fixed, err := newBuckets(col, buckets, *r)
	if err != nil {
		return nil, err
	}
	counter := fixed.NewCounter()
	for n, count := range freq {
		counter.Add(float64(n), count)
	}
	return &Histogram{Count: counter.Counts(), Bins: fixed.Edges()}, nil
}

func newBuckets(col string, buckets int, r Range) (bins.Fixed, error) {
	fixed, err := bins.New(buckets, r.Min, r.Max)
	if err != nil {
		return bins.Fixed{}, errors.NewError(
			errors.WithErrorCode(errors.EInvalid),
			errors.WithErrorOp("stats.hist"),
			errors.WithErrorMsg(fmt.Sprintf("cannot bucket column %q", col)),
			errors.WithErrorErr(err),
		)
	}
	return fixed, nil
}

func mergeCounters(ctx context.Context, fixed bins.Fixed, counts *table.Lazy[*bins.Counter]) (*Histogram, error) {
	var mergeErr error
	total, err := table.Merge(ctx, counts, fixed.NewCounter(), func(acc, c *bins.Counter) *bins.Counter {
		if err := acc.Merge(c); err != nil && mergeErr == nil {
			mergeErr = err
		}
		return acc
	})
	if err != nil {
		return nil, err
	}
	if mergeErr != nil {
		return nil, mergeErr
	}
	return &Histogram{Count: total.Counts(), Bins: fixed.Edges()}, nil
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if log := logger.FromContext(ctx); log != nil {
		return log
	}
	return zap.NewNop()
}
