package stats

import (
	"context"

	"github.com/influxdata/colstats/table"
)

// CountUniques reports the number of distinct values per column.
//
// With args.Estimate every requested column is counted by the table's
// approximate estimator. Without it the exact count is taken over every
// column of the table and the requested columns are not consulted.
func CountUniques(columns []string, args Args) Func {
	estimate := args.Estimate
	return func(ctx context.Context, t table.Table) (Result, error) {
		var (
			counts map[string]int64
			err    error
		)
		if estimate {
			counts, err = t.NUniqueApprox(ctx, columns)
		} else {
			counts, err = t.NUnique(ctx, t.Schema().Names())
		}
		if err != nil {
			return nil, err
		}
		return Result{CountUniquesKey: valuesOf(counts)}, nil
	}
}
