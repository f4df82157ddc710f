package table

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Lazy is a pure function scheduled against every partition of a table.
// Building one does no work; Compute and Merge are the blocking points.
type Lazy[T any] struct {
	parts []Partition
	fn    func(ctx context.Context, p Partition) (T, error)
	limit int
}

// Map schedules fn against each partition. Partitions are independent and
// may be evaluated in any order.
func Map[T any](parts []Partition, fn func(ctx context.Context, p Partition) (T, error)) *Lazy[T] {
	return &Lazy[T]{parts: parts, fn: fn}
}

// WithLimit bounds the number of partitions evaluated at once. A limit
// below one means no bound.
func (l *Lazy[T]) WithLimit(n int) *Lazy[T] {
	cp := *l
	cp.limit = n
	return &cp
}

// Len returns the number of partitions the function is scheduled against.
func (l *Lazy[T]) Len() int { return len(l.parts) }

// Compute evaluates every partition and returns the results in partition
// order. The first error cancels the remaining partitions.
func (l *Lazy[T]) Compute(ctx context.Context) ([]T, error) {
	out := make([]T, len(l.parts))
	g, ctx := errgroup.WithContext(ctx)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i := range l.parts {
		i, p := i, l.parts[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := l.fn(ctx, p)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge computes l and folds the partial results, in partition order, into
// a single aggregate starting from init.
func Merge[T, R any](ctx context.Context, l *Lazy[T], init R, fn func(acc R, v T) R) (R, error) {
	parts, err := l.Compute(ctx)
	if err != nil {
		return init, err
	}
	acc := init
	for _, v := range parts {
		acc = fn(acc, v)
	}
	return acc, nil
}
