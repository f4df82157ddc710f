package inmem_test

import (
	"testing"

	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/table"
	"github.com/influxdata/colstats/table/inmem"
	"github.com/stretchr/testify/require"
)

func TestNewPartition(t *testing.T) {
	p, err := inmem.NewPartition(
		inmem.Floats("x", 1, 2, 3),
		inmem.Strings("s", "a", "b", "c"),
	)
	require.NoError(t, err)
	require.Equal(t, 3, p.NumRows())
	require.Equal(t, table.Schema{{Name: "x", Kind: table.Numeric}, {Name: "s", Kind: table.String}}, p.Schema())

	c, err := p.Column("s")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, c.Strings)

	_, err = p.Column("missing")
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestNewPartition_Invalid(t *testing.T) {
	_, err := inmem.NewPartition(inmem.Floats("x", 1, 2), inmem.Floats("y", 1))
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	_, err = inmem.NewPartition(inmem.Floats("x", 1), inmem.Floats("x", 1))
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestNullableFloats(t *testing.T) {
	one := 1.0
	c := inmem.NullableFloats("x", nil, &one, nil)
	require.True(t, c.IsNull(0))
	require.False(t, c.IsNull(1))
	require.True(t, c.IsNull(2))
}

func TestValues(t *testing.T) {
	c := inmem.Values("flag", true, nil, false)
	require.Equal(t, table.Other, c.Kind)
	require.Equal(t, []string{"true", "", "false"}, c.Strings)
	require.True(t, c.IsNull(1))
}

func TestSplit(t *testing.T) {
	schema, parts, err := inmem.Split(2,
		inmem.Floats("x", 1, 2, 3, 4, 5),
		inmem.Strings("s", "a", "b", "c", "d", "e"),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "s"}, schema.Names())
	require.Len(t, parts, 3)

	var rows []float64
	for _, p := range parts {
		c, err := p.Column("x")
		require.NoError(t, err)
		rows = append(rows, c.Floats...)
	}
	require.Equal(t, []float64{1, 2, 3, 4, 5}, rows)
	require.Equal(t, 1, parts[2].NumRows())
}

func TestSplit_Empty(t *testing.T) {
	_, parts, err := inmem.Split(4, inmem.Floats("x"))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Zero(t, parts[0].NumRows())

	_, _, err = inmem.Split(0, inmem.Floats("x", 1))
	require.Error(t, err)
}
