package parquetfile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/influxdata/colstats/frame"
	kerrors "github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
	"github.com/influxdata/colstats/table/parquetfile"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

type row struct {
	Price *float64 `parquet:"price,optional"`
	Qty   int64    `parquet:"qty"`
	Name  string   `parquet:"name"`
	Sold  bool     `parquet:"sold"`
}

func ptr(v float64) *float64 { return &v }

// writeFile encodes groups as consecutive row groups.
func writeFile(t *testing.T, groups ...[]row) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[row](&buf)
	for _, g := range groups {
		_, err := w.Write(g)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func sample(t *testing.T) []byte {
	return writeFile(t,
		[]row{
			{Price: ptr(1.5), Qty: 2, Name: "a", Sold: true},
			{Price: nil, Qty: 0, Name: "bb", Sold: false},
		},
		[]row{
			{Price: ptr(4.5), Qty: 7, Name: "ccc", Sold: true},
		},
	)
}

func TestNewFile_Schema(t *testing.T) {
	data := sample(t)
	f, err := parquetfile.NewFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"price", "qty", "name", "sold"}, f.Schema().Names())
	for name, want := range map[string]table.Kind{
		"price": table.Numeric,
		"qty":   table.Numeric,
		"name":  table.String,
		"sold":  table.Other,
	} {
		kind, err := f.Schema().Kind(name)
		require.NoError(t, err)
		require.Equal(t, want, kind, name)
	}
	require.Len(t, f.Partitions(), 2)
	require.EqualValues(t, 3, f.NumRows())
	require.NoError(t, f.Close())
}

func TestRowGroup_Column(t *testing.T) {
	data := sample(t)
	f, err := parquetfile.NewFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	first := f.Partitions()[0]
	require.Equal(t, 2, first.NumRows())

	price, err := first.Column("price")
	require.NoError(t, err)
	require.Equal(t, 2, price.Len())
	require.Equal(t, 1.5, price.Floats[0])
	require.False(t, price.IsNull(0))
	require.True(t, price.IsNull(1))

	name, err := f.Partitions()[1].Column("name")
	require.NoError(t, err)
	require.Equal(t, []string{"ccc"}, name.Strings)

	sold, err := first.Column("sold")
	require.NoError(t, err)
	require.Equal(t, []string{"true", "false"}, sold.Strings)

	_, err = first.Column("missing")
	require.Equal(t, kerrors.ENotFound, kerrors.ErrorCode(err))
}

func TestOpen_Frame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.parquet")
	require.NoError(t, os.WriteFile(path, sample(t), 0o600))

	f, err := parquetfile.Open(path)
	require.NoError(t, err)
	tbl := frame.New(f.Schema(), f.Partitions(), frame.WithCloser(f))
	defer tbl.Close()

	ctx := context.Background()
	sums, err := tbl.Sum(ctx, []string{"price", "qty"})
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"price": 6, "qty": 9}, sums)

	nulls, err := tbl.CountNull(ctx, []string{"price"})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"price": 1}, nulls)
}

func TestOpen_Missing(t *testing.T) {
	_, err := parquetfile.Open(filepath.Join(t.TempDir(), "nope.parquet"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
