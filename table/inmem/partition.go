// Package inmem provides partitions held entirely in memory.
package inmem

import (
	"fmt"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
)

// Partition is a set of equally long columns.
type Partition struct {
	n       int
	columns map[string]*table.Column
	schema  table.Schema
}

var _ table.Partition = (*Partition)(nil)

// NewPartition returns a partition holding columns. All columns must have
// the same length and distinct names.
func NewPartition(columns ...*table.Column) (*Partition, error) {
	p := &Partition{columns: make(map[string]*table.Column, len(columns))}
	for i, c := range columns {
		if _, ok := p.columns[c.Name]; ok {
			return nil, errors.Invalidf("inmem.NewPartition", "duplicate column %q", c.Name)
		}
		if c.Nulls != nil && len(c.Nulls) != c.Len() {
			return nil, errors.Invalidf("inmem.NewPartition", "column %q has %d null flags for %d rows", c.Name, len(c.Nulls), c.Len())
		}
		if i == 0 {
			p.n = c.Len()
		} else if c.Len() != p.n {
			return nil, errors.Invalidf("inmem.NewPartition", "column %q has %d rows, expected %d", c.Name, c.Len(), p.n)
		}
		p.columns[c.Name] = c
		p.schema = append(p.schema, table.Field{Name: c.Name, Kind: c.Kind})
	}
	return p, nil
}

// MustPartition is like NewPartition but panics on error.
func MustPartition(columns ...*table.Column) *Partition {
	p, err := NewPartition(columns...)
	if err != nil {
		panic(err)
	}
	return p
}

// NumRows returns the number of rows in the partition.
func (p *Partition) NumRows() int { return p.n }

// Schema returns the partition's columns in insertion order.
func (p *Partition) Schema() table.Schema { return p.schema }

// Column returns the named column.
func (p *Partition) Column(name string) (*table.Column, error) {
	c, ok := p.columns[name]
	if !ok {
		return nil, table.ColumnNotFound("inmem.Partition.Column", name)
	}
	return c, nil
}

// Floats builds a numeric column.
func Floats(name string, vs ...float64) *table.Column {
	return &table.Column{Name: name, Kind: table.Numeric, Floats: vs}
}

// NullableFloats builds a numeric column from pointers; nil entries are null.
func NullableFloats(name string, vs ...*float64) *table.Column {
	c := &table.Column{
		Name:   name,
		Kind:   table.Numeric,
		Floats: make([]float64, len(vs)),
		Nulls:  make([]bool, len(vs)),
	}
	for i, v := range vs {
		if v == nil {
			c.Nulls[i] = true
			continue
		}
		c.Floats[i] = *v
	}
	return c
}

// Strings builds a string column.
func Strings(name string, vs ...string) *table.Column {
	return &table.Column{Name: name, Kind: table.String, Strings: vs}
}

// Values builds a column of kind other, such as booleans or timestamps,
// from their formatted representation.
func Values(name string, vs ...interface{}) *table.Column {
	c := &table.Column{Name: name, Kind: table.Other, Strings: make([]string, len(vs)), Nulls: make([]bool, len(vs))}
	for i, v := range vs {
		if v == nil {
			c.Nulls[i] = true
			continue
		}
		c.Strings[i] = fmt.Sprint(v)
	}
	return c
}
