// Package parquetfile exposes a parquet file as a partitioned table. Every
// row group is one partition and columns are decoded only when requested.
package parquetfile

import (
	"io"
	"os"

	"github.com/influxdata/colstats/table"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// File is an open parquet file.
type File struct {
	closer io.Closer
	pf     *parquet.File
	schema table.Schema
	leaves map[string]int
	parts  []table.Partition
}

// Open opens the parquet file at path. Close must be called to release the
// underlying file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	file, err := NewFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "read %s", path)
	}
	file.closer = f
	return file, nil
}

// NewFile reads the parquet footer from r.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "open parquet file")
	}

	f := &File{pf: pf, leaves: make(map[string]int)}
	for i, path := range pf.Schema().Columns() {
		if len(path) != 1 {
			// Nested columns are not exposed.
			continue
		}
		f.leaves[path[0]] = i
	}
	for _, field := range pf.Schema().Fields() {
		if _, ok := f.leaves[field.Name()]; !ok {
			continue
		}
		f.schema = append(f.schema, table.Field{Name: field.Name(), Kind: kindOf(field.Type().Kind())})
	}
	for i, rg := range pf.RowGroups() {
		f.parts = append(f.parts, &rowGroup{file: f, index: i, rg: rg})
	}
	return f, nil
}

func kindOf(k parquet.Kind) table.Kind {
	switch k {
	case parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		return table.Numeric
	case parquet.ByteArray:
		return table.String
	default:
		return table.Other
	}
}

// Schema returns the flat columns of the file.
func (f *File) Schema() table.Schema { return f.schema }

// Partitions returns one partition per row group.
func (f *File) Partitions() []table.Partition { return f.parts }

// NumRows returns the number of rows in the file.
func (f *File) NumRows() int64 { return f.pf.NumRows() }

// Close releases the file opened by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

type rowGroup struct {
	file  *File
	index int
	rg    parquet.RowGroup
}

func (g *rowGroup) NumRows() int { return int(g.rg.NumRows()) }

func (g *rowGroup) Column(name string) (*table.Column, error) {
	leaf, ok := g.file.leaves[name]
	if !ok {
		return nil, table.ColumnNotFound("parquetfile.Column", name)
	}
	kind, err := g.file.schema.Kind(name)
	if err != nil {
		return nil, err
	}

	values, err := readValues(g.rg.ColumnChunks()[leaf])
	if err != nil {
		return nil, errors.Wrapf(err, "read column %q of row group %d", name, g.index)
	}

	c := &table.Column{Name: name, Kind: kind, Nulls: make([]bool, len(values))}
	if kind == table.Numeric {
		c.Floats = make([]float64, len(values))
	} else {
		c.Strings = make([]string, len(values))
	}
	for i, v := range values {
		if v.IsNull() {
			c.Nulls[i] = true
			continue
		}
		switch v.Kind() {
		case parquet.Int32:
			c.Floats[i] = float64(v.Int32())
		case parquet.Int64:
			c.Floats[i] = float64(v.Int64())
		case parquet.Float:
			c.Floats[i] = float64(v.Float())
		case parquet.Double:
			c.Floats[i] = v.Double()
		case parquet.ByteArray:
			c.Strings[i] = string(v.ByteArray())
		default:
			c.Strings[i] = v.String()
		}
	}
	return c, nil
}

func readValues(chunk parquet.ColumnChunk) ([]parquet.Value, error) {
	pages := chunk.Pages()
	defer pages.Close()

	var out []parquet.Value
	buf := make([]parquet.Value, 512)
	for {
		page, err := pages.ReadPage()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}

		r := page.Values()
		for {
			n, err := r.ReadValues(buf)
			for _, v := range buf[:n] {
				out = append(out, v.Clone())
			}
			if err == io.EOF {
				break
			} else if err != nil {
				return nil, err
			}
		}
	}
}
