package coltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNameCaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"symbol", Symbol},
		{"SYMBOL", Symbol},
		{"Double", Double},
		{"timestamp", Timestamp},
	}
	for _, tt := range tests {
		got, ok := ParseName(tt.name)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, ok := ParseName("not_a_type")
	assert.False(t, ok)
}

func TestStringRoundTrip(t *testing.T) {
	for _, tt := range []Type{Boolean, Byte, Short, Char, Int, Long, Float, Double, Date, Timestamp, String, Symbol, Binary, Long256} {
		name := tt.String()
		got, ok := ParseName(name)
		assert.True(t, ok, name)
		assert.Equal(t, tt, got, name)
	}
}

func TestCastCompatible(t *testing.T) {
	assert.True(t, CastCompatible(Int, Long))
	assert.True(t, CastCompatible(Date, Double))
	assert.True(t, CastCompatible(String, Symbol))
	assert.False(t, CastCompatible(Int, String))
	assert.False(t, CastCompatible(Boolean, Int))
	assert.False(t, CastCompatible(Binary, String))
}

func TestIsAssignable(t *testing.T) {
	assert.True(t, IsAssignable(Double, Int)) // widening
	assert.False(t, IsAssignable(Int, Double)) // narrowing not allowed
	assert.True(t, IsAssignable(Symbol, String))
	assert.True(t, IsAssignable(String, Symbol))
	assert.True(t, IsAssignable(String, Char))
	assert.False(t, IsAssignable(Char, String))
	assert.True(t, IsAssignable(Int, Int))
	assert.False(t, IsAssignable(Boolean, Int))
}

func TestNumericRankOrdering(t *testing.T) {
	br, ok := NumericRank(Byte)
	assert.True(t, ok)
	dr, ok := NumericRank(Double)
	assert.True(t, ok)
	assert.Less(t, br, dr)

	_, ok = NumericRank(Boolean)
	assert.False(t, ok)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric(Long))
	assert.True(t, IsNumeric(Timestamp))
	assert.False(t, IsNumeric(Symbol))
	assert.False(t, IsNumeric(Boolean))
}
