package inmem

import (
	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
)

// Split slices whole columns into partitions of at most size rows each.
// It returns the shared schema alongside the partitions.
func Split(size int, columns ...*table.Column) (table.Schema, []table.Partition, error) {
	if size <= 0 {
		return nil, nil, errors.Invalidf("inmem.Split", "partition size must be positive, got %d", size)
	}
	whole, err := NewPartition(columns...)
	if err != nil {
		return nil, nil, err
	}

	var parts []table.Partition
	for lo := 0; lo < whole.n || (lo == 0 && whole.n == 0); lo += size {
		hi := lo + size
		if hi > whole.n {
			hi = whole.n
		}
		chunk := make([]*table.Column, len(columns))
		for i, c := range columns {
			chunk[i] = slice(c, lo, hi)
		}
		p, err := NewPartition(chunk...)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, p)
		if whole.n == 0 {
			break
		}
	}
	return whole.schema, parts, nil
}

func slice(c *table.Column, lo, hi int) *table.Column {
	out := &table.Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == table.Numeric {
		out.Floats = c.Floats[lo:hi:hi]
	} else {
		out.Strings = c.Strings[lo:hi:hi]
	}
	if c.Nulls != nil {
		out.Nulls = c.Nulls[lo:hi:hi]
	}
	return out
}
