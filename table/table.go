// Package table defines the partitioned table capability consumed by the
// statistic operators, together with its data model: partitions, columns,
// schema classification and the lazy per-partition map primitive.
package table

import (
	"context"
	"fmt"
	"math"

	"github.com/influxdata/colstats/kit/errors"
)

// Kind is the semantic classification of a column.
type Kind uint8

const (
	Other Kind = iota
	Numeric
	String
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	default:
		return "other"
	}
}

// Field describes a single column of a schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered column layout shared by every partition of a table.
type Schema []Field

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Kind returns the classification of the named column.
func (s Schema) Kind(name string) (Kind, error) {
	for _, f := range s {
		if f.Name == name {
			return f.Kind, nil
		}
	}
	return Other, ColumnNotFound("table.Schema.Kind", name)
}

// Column is the slice of one column held by a single partition.
//
// Numeric columns use Floats, string and other columns use Strings. Nulls,
// when non-nil, has one entry per row; a NaN in Floats is also null.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Nulls   []bool
}

// Len returns the number of rows.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool {
	if c.Nulls != nil && c.Nulls[i] {
		return true
	}
	return c.Kind == Numeric && math.IsNaN(c.Floats[i])
}

// Partition is an independently processable chunk of a table.
type Partition interface {
	NumRows() int
	Column(name string) (*Column, error)
}

// ColumnFunc derives a new column from an existing one. It must not modify
// its input.
type ColumnFunc func(c *Column) (*Column, error)

// Table is the partitioned table capability. Every reduction is restricted
// to the requested columns, blocks until all partitions have been merged and
// returns one value per column.
type Table interface {
	Schema() Schema
	Partitions() []Partition
	// Concurrency bounds how many partitions are evaluated at once. Callers
	// building their own Lazy over Partitions pass it to WithLimit.
	Concurrency() int

	Min(ctx context.Context, columns []string) (map[string]float64, error)
	Max(ctx context.Context, columns []string) (map[string]float64, error)
	Sum(ctx context.Context, columns []string) (map[string]float64, error)
	Mean(ctx context.Context, columns []string) (map[string]float64, error)
	Var(ctx context.Context, columns []string) (map[string]float64, error)
	Std(ctx context.Context, columns []string) (map[string]float64, error)
	Skew(ctx context.Context, columns []string) (map[string]float64, error)
	Kurtosis(ctx context.Context, columns []string) (map[string]float64, error)
	Quantile(ctx context.Context, columns []string, qs []float64) (map[string][]float64, error)

	CountNull(ctx context.Context, columns []string) (map[string]int64, error)
	CountZeros(ctx context.Context, columns []string) (map[string]int64, error)
	NUnique(ctx context.Context, columns []string) (map[string]int64, error)
	NUniqueApprox(ctx context.Context, columns []string) (map[string]int64, error)

	// MapColumn returns a table whose named column is replaced by fn applied
	// to each partition. Nothing is evaluated until a reduction runs.
	MapColumn(name string, kind Kind, fn ColumnFunc) Table
}

// ColumnNotFound returns the error raised for an unknown column name.
func ColumnNotFound(op, name string) error {
	return errors.NewError(
		errors.WithErrorCode(errors.ENotFound),
		errors.WithErrorOp(op),
		errors.WithErrorMsg(fmt.Sprintf("column %q not found", name)),
	)
}
