// Package arrowrecord exposes arrow record batches as table partitions.
package arrowrecord

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
	pkgerrors "github.com/pkg/errors"
)

// SchemaOf classifies the fields of an arrow schema.
func SchemaOf(s *arrow.Schema) table.Schema {
	fields := s.Fields()
	schema := make(table.Schema, len(fields))
	for i, f := range fields {
		schema[i] = table.Field{Name: f.Name, Kind: kindOf(f.Type)}
	}
	return schema
}

func kindOf(dt arrow.DataType) table.Kind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		return table.Numeric
	case arrow.STRING, arrow.LARGE_STRING:
		return table.String
	default:
		return table.Other
	}
}

// Partition is a single record batch.
type Partition struct {
	rec    arrow.Record
	schema table.Schema
}

// NewPartition wraps rec. The partition does not retain rec.
func NewPartition(rec arrow.Record) *Partition {
	return &Partition{rec: rec, schema: SchemaOf(rec.Schema())}
}

func (p *Partition) NumRows() int { return int(p.rec.NumRows()) }

func (p *Partition) Column(name string) (*table.Column, error) {
	idx := p.rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, table.ColumnNotFound("arrowrecord.Column", name)
	}
	arr := p.rec.Column(idx[0])
	kind := kindOf(arr.DataType())

	n := arr.Len()
	c := &table.Column{Name: name, Kind: kind, Nulls: make([]bool, n)}
	if kind == table.Numeric {
		c.Floats = make([]float64, n)
	} else {
		c.Strings = make([]string, n)
	}
	for i := 0; i < n; i++ {
		if arr.IsNull(i) {
			c.Nulls[i] = true
			continue
		}
		switch kind {
		case table.Numeric:
			c.Floats[i] = floatAt(arr, i)
		case table.String:
			c.Strings[i] = stringAt(arr, i)
		default:
			c.Strings[i] = arr.ValueStr(i)
		}
	}
	return c, nil
}

func floatAt(arr arrow.Array, i int) float64 {
	switch a := arr.(type) {
	case *array.Int8:
		return float64(a.Value(i))
	case *array.Int16:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Uint8:
		return float64(a.Value(i))
	case *array.Uint16:
		return float64(a.Value(i))
	case *array.Uint32:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	}
	panic(fmt.Sprintf("arrowrecord: %s array is classified numeric but has no float conversion", arr.DataType()))
}

func stringAt(arr arrow.Array, i int) string {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	}
	return arr.ValueStr(i)
}

// Stream holds the record batches of an arrow IPC stream in memory.
type Stream struct {
	schema table.Schema
	recs   []arrow.Record
	parts  []table.Partition
}

// New builds a stream over recs, which must share one schema. Each record is
// retained until Close.
func New(recs ...arrow.Record) (*Stream, error) {
	if len(recs) == 0 {
		return nil, errors.NewError(
			errors.WithErrorCode(errors.EEmptyValue),
			errors.WithErrorOp("arrowrecord.New"),
			errors.WithErrorMsg("at least one record is required"),
		)
	}
	s := &Stream{schema: SchemaOf(recs[0].Schema())}
	for i, rec := range recs {
		if !rec.Schema().Equal(recs[0].Schema()) {
			s.Close()
			return nil, errors.Invalidf("arrowrecord.New", "record %d has a different schema", i)
		}
		rec.Retain()
		s.recs = append(s.recs, rec)
		s.parts = append(s.parts, NewPartition(rec))
	}
	return s, nil
}

// ReadIPC reads every record batch of the IPC stream r.
func ReadIPC(r io.Reader, mem memory.Allocator) (*Stream, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open arrow stream")
	}
	defer rdr.Release()

	s := &Stream{schema: SchemaOf(rdr.Schema())}
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		s.recs = append(s.recs, rec)
		s.parts = append(s.parts, NewPartition(rec))
	}
	if err := rdr.Err(); err != nil {
		s.Close()
		return nil, pkgerrors.Wrap(err, "read arrow stream")
	}
	return s, nil
}

// ReadIPCFile reads every record batch of the arrow IPC file r, the random
// access format that starts with the ARROW1 magic.
func ReadIPCFile(r ipc.ReadAtSeeker, mem memory.Allocator) (*Stream, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rdr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open arrow file")
	}
	defer rdr.Close()

	s := &Stream{schema: SchemaOf(rdr.Schema())}
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.Record(i)
		if err != nil {
			s.Close()
			return nil, pkgerrors.Wrapf(err, "read arrow record %d", i)
		}
		// The reader releases rec on the next call.
		rec.Retain()
		s.recs = append(s.recs, rec)
		s.parts = append(s.parts, NewPartition(rec))
	}
	return s, nil
}

func (s *Stream) Schema() table.Schema { return s.schema }

func (s *Stream) Partitions() []table.Partition { return s.parts }

// Close releases every retained record.
func (s *Stream) Close() error {
	for _, rec := range s.recs {
		rec.Release()
	}
	s.recs = nil
	return nil
}
