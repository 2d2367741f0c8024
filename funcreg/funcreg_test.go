package funcreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/coltype"
)

func TestBindArithmeticWidensToDouble(t *testing.T) {
	r := New()
	bound, err := r.Bind("+", []coltype.Type{coltype.Int, coltype.Double}, 0)
	require.NoError(t, err)
	assert.Equal(t, coltype.Double, bound.Return)
}

func TestBindComparisonReturnsBoolean(t *testing.T) {
	r := New()
	bound, err := r.Bind("=", []coltype.Type{coltype.Int, coltype.Long}, 0)
	require.NoError(t, err)
	assert.Equal(t, coltype.Boolean, bound.Return)
}

func TestBindUnknownFunctionIsSemanticError(t *testing.T) {
	r := New()
	_, err := r.Bind("frobnicate", []coltype.Type{coltype.Int}, 5)
	require.Error(t, err)
}

func TestBindAggregates(t *testing.T) {
	r := New()
	sum, err := r.Bind("sum", []coltype.Type{coltype.Int}, 0)
	require.NoError(t, err)
	assert.Equal(t, coltype.Long, sum.Return)

	avg, err := r.Bind("avg", []coltype.Type{coltype.Float}, 0)
	require.NoError(t, err)
	assert.Equal(t, coltype.Double, avg.Return)

	countStar := r.BindCountStar(0)
	assert.Equal(t, coltype.Long, countStar.Return)
}

func TestBindCastRejectsIncompatibleGroups(t *testing.T) {
	r := New()
	_, err := r.BindCast(coltype.Int, "BINARY", 0)
	require.Error(t, err)
}

func TestBindCastAllowsSameGroup(t *testing.T) {
	r := New()
	bound, err := r.BindCast(coltype.Int, "DOUBLE", 0)
	require.NoError(t, err)
	assert.Equal(t, coltype.Double, bound.Return)
}
