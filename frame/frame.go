// Package frame implements the partitioned table capability over any set of
// partitions. Every reduction is a per-partition map followed by a single
// blocking merge.
package frame

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultCompression is the t-digest compression used for approximate
// quantiles when none is given.
const DefaultCompression = 1000.0

// Frame is a lazily evaluated partitioned table.
type Frame struct {
	schema  table.Schema
	parts   []table.Partition
	closers []io.Closer

	concurrency     int
	approxQuantiles bool
	compression     float64
	logger          *zap.Logger
}

var _ table.Table = (*Frame)(nil)

// Option configures a Frame.
type Option func(f *Frame)

// WithLogger sets the logger used for partition fan-out messages.
func WithLogger(log *zap.Logger) Option {
	return func(f *Frame) {
		f.logger = log
	}
}

// WithConcurrency bounds how many partitions are evaluated at once. A
// non-positive n keeps the GOMAXPROCS default.
func WithConcurrency(n int) Option {
	return func(f *Frame) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithApproxQuantiles makes Quantile use a t-digest with the given
// compression instead of sorting every value.
func WithApproxQuantiles(compression float64) Option {
	return func(f *Frame) {
		f.approxQuantiles = true
		if compression <= 0 {
			compression = DefaultCompression
		}
		f.compression = compression
	}
}

// WithCloser registers a resource released by Close, typically the file
// backing the partitions.
func WithCloser(c io.Closer) Option {
	return func(f *Frame) {
		f.closers = append(f.closers, c)
	}
}

// New returns a frame over parts, which must all follow schema.
func New(schema table.Schema, parts []table.Partition, opts ...Option) *Frame {
	f := &Frame{
		schema:      schema,
		parts:       parts,
		concurrency: runtime.GOMAXPROCS(0),
		compression: DefaultCompression,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Schema returns the column layout.
func (f *Frame) Schema() table.Schema { return f.schema }

// Partitions returns the partitions in table order.
func (f *Frame) Partitions() []table.Partition { return f.parts }

// Concurrency returns the partition evaluation limit.
func (f *Frame) Concurrency() int { return f.concurrency }

// NumRows counts rows over every partition.
func (f *Frame) NumRows() int {
	var n int
	for _, p := range f.parts {
		n += p.NumRows()
	}
	return n
}

// Close releases every registered closer.
func (f *Frame) Close() error {
	var err error
	for _, c := range f.closers {
		err = multierr.Append(err, c.Close())
	}
	f.closers = nil
	return err
}

// MapColumn returns a frame whose column name is replaced, partition by
// partition, with the output of fn. The receiver is left untouched and
// nothing is evaluated until a reduction runs.
func (f *Frame) MapColumn(name string, kind table.Kind, fn table.ColumnFunc) table.Table {
	cp := *f
	cp.closers = nil
	cp.schema = make(table.Schema, len(f.schema))
	copy(cp.schema, f.schema)
	for i := range cp.schema {
		if cp.schema[i].Name == name {
			cp.schema[i].Kind = kind
		}
	}
	cp.parts = make([]table.Partition, len(f.parts))
	for i, p := range f.parts {
		cp.parts[i] = &mappedPartition{Partition: p, name: name, kind: kind, fn: fn}
	}
	return &cp
}

type mappedPartition struct {
	table.Partition
	name string
	kind table.Kind
	fn   table.ColumnFunc
}

func (p *mappedPartition) Column(name string) (*table.Column, error) {
	c, err := p.Partition.Column(name)
	if err != nil || name != p.name {
		return c, err
	}
	out, err := p.fn(c)
	if err != nil {
		return nil, err
	}
	out.Name, out.Kind = name, p.kind
	return out, nil
}

// check validates that every column exists and, when numeric is set, that
// it can be reduced arithmetically.
func (f *Frame) check(op string, columns []string, numeric bool) error {
	for _, name := range columns {
		kind, err := f.schema.Kind(name)
		if err != nil {
			return table.ColumnNotFound(op, name)
		}
		if numeric && kind != table.Numeric {
			return errors.NewError(
				errors.WithErrorCode(errors.EUnprocessableEntity),
				errors.WithErrorOp(op),
				errors.WithErrorMsg(fmt.Sprintf("column %q is %s, not numeric", name, kind)),
			)
		}
	}
	return nil
}

// perColumn maps part over every requested column of every partition and
// merges the partial results column by column.
func perColumn[T any](ctx context.Context, f *Frame, op string, columns []string, numeric bool, part func(c *table.Column) T, merge func(a, b T) T) (map[string]T, error) {
	if err := f.check(op, columns, numeric); err != nil {
		return nil, err
	}
	f.logger.Debug("Reducing partitions",
		zap.String("op", op),
		zap.Strings("columns", columns),
		zap.Int("partitions", len(f.parts)))

	l := table.Map(f.parts, func(ctx context.Context, p table.Partition) (map[string]T, error) {
		out := make(map[string]T, len(columns))
		for _, name := range columns {
			c, err := p.Column(name)
			if err != nil {
				return nil, err
			}
			out[name] = part(c)
		}
		return out, nil
	}).WithLimit(f.concurrency)

	return table.Merge(ctx, l, make(map[string]T, len(columns)), func(acc, v map[string]T) map[string]T {
		for name, x := range v {
			if prev, ok := acc[name]; ok {
				acc[name] = merge(prev, x)
			} else {
				acc[name] = x
			}
		}
		return acc
	})
}

// finish converts merged partials into final values, visiting every
// requested column even when the table has no partitions.
func finish[T, R any](columns []string, partials map[string]T, fn func(T) R) map[string]R {
	out := make(map[string]R, len(columns))
	for _, name := range columns {
		out[name] = fn(partials[name])
	}
	return out
}
