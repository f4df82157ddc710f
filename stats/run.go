package stats

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/logger"
	"github.com/influxdata/colstats/table"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Request names an operator and binds it to columns and arguments.
type Request struct {
	Name    string
	Columns []string
	Args    Args
}

// Runner evaluates several requests against one table and merges their
// results into a single report.
type Runner struct {
	// Logger receives per-run messages. A nil Logger discards them.
	Logger *zap.Logger
	// Metrics, when set, instruments every request.
	Metrics *Metrics
	// Concurrency bounds the requests evaluated at once; zero means
	// GOMAXPROCS.
	Concurrency int
}

// Run evaluates every request concurrently. Results are merged in request
// order, so a later request overwrites a column an earlier one reported
// under the same statistic. The first failure aborts the run.
func (r *Runner) Run(ctx context.Context, t table.Table, reqs []Request) (Result, error) {
	fns := make([]Func, len(reqs))
	for i, req := range reqs {
		factory, ok := Lookup(req.Name)
		if !ok {
			return nil, errors.Invalidf("stats.Run", "unknown operator %q", req.Name)
		}
		fn := factory(req.Columns, req.Args)
		if r.Metrics != nil {
			fn = r.Metrics.Instrument(req.Name, fn)
		}
		fns[i] = fn
	}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", uuid.New().String()))
	ctx = logger.NewContextWithLogger(ctx, log)
	log.Debug("Starting statistics run", zap.Int("requests", len(reqs)))

	limit := r.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(fns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, fn := range fns {
		i, fn, req := i, fn, reqs[i]
		g.Go(func() error {
			res, err := fn(ctx, t)
			if err != nil {
				log.Debug("Operator failed",
					zap.String("operator", req.Name),
					zap.String("code", errors.ErrorCode(err)),
					zap.String("reason", errors.ErrorMessage(err)),
					zap.Error(err))
				return errors.NewError(
					errors.WithErrorOp("stats.Run"),
					errors.WithErrorMsg("operator "+req.Name),
					errors.WithErrorErr(err),
				)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := make(Result)
	for _, res := range results {
		report.Merge(res)
	}
	log.Debug("Finished statistics run", zap.Int("statistics", len(report)))
	return report, nil
}

// Run evaluates reqs with a default Runner.
func Run(ctx context.Context, t table.Table, reqs []Request) (Result, error) {
	var r Runner
	return r.Run(ctx, t, reqs)
}
