// Package rowcopy builds the record-to-row copier the compiler wires
// into INSERT, INSERT-AS-SELECT, and CREATE TABLE AS SELECT statements
// (spec §4.2). A copier is built once per compiled statement from the
// source and destination column type lists and a column filter, then
// called once per row — the conversion table below is resolved to a
// fixed-size array of per-column functors at build time so the hot
// loop never branches on type again (spec §9 "Bytecode generation").
package rowcopy

import (
	"math"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/sqlerr"
)

// Long256 is the 256-bit integer value the engine stores opaquely;
// rowcopy only ever copies it verbatim, never arithmetic on it.
type Long256 [4]uint64

// Record is a row-shaped accessor over a source cursor's current row,
// indexed by column position. Only the Get methods the conversion
// table in this package actually uses are declared; any concrete
// engine row type that implements this method set can be copied from
// without rowcopy importing the engine package.
type Record interface {
	GetBool(i int) bool
	GetByte(i int) byte
	GetShort(i int) int16
	GetChar(i int) rune
	GetInt(i int) int32
	GetLong(i int) int64
	GetFloat(i int) float32
	GetDouble(i int) float64
	GetDate(i int) int64
	GetTimestamp(i int) int64
	GetStr(i int) string
	GetSym(i int) string
	GetBin(i int) []byte
	GetLong256(i int) Long256
}

// Row is a write accessor over a destination row being built, indexed
// by column position.
type Row interface {
	PutBool(i int, v bool)
	PutByte(i int, v byte)
	PutShort(i int, v int16)
	PutChar(i int, v rune)
	PutInt(i int, v int32)
	PutLong(i int, v int64)
	PutFloat(i int, v float32)
	PutDouble(i int, v float64)
	PutDate(i int, v int64)
	PutTimestamp(i int, v int64)
	PutStr(i int, v string)
	PutSym(i int, v string)
	PutBin(i int, v []byte)
	PutLong256(i int, v Long256)
}

// Copier writes one converted row from src into row, honoring whatever
// column filter and timestamp-skip BuildCopier was given.
type Copier func(src Record, row Row)

type columnFunc func(src Record, srcCol int, row Row, dstCol int)

// BuildCopier composes the per-column conversion chain for copying
// srcTypes (in source iteration order) into dstTypes through filter:
// filter[i] is the destination column that receives source column i,
// or -1 to skip it outright (the parser never produces -1; it exists
// so callers that trim a trailing source column don't need a
// different entry point). A destination index equal to timestampIndex
// is always skipped — the timestamp is written by the caller outside
// the copier (spec §4.2).
//
// BuildCopier fails closed: any (srcType, dstType) pair not in the
// conversion table is an error here rather than at row-copy time,
// since every legal pair is knowable from the two type lists alone.
func BuildCopier(srcTypes []coltype.Type, dstTypes []coltype.Type, filter []int, timestampIndex int) (Copier, error) {
	if len(filter) != len(srcTypes) {
		return nil, sqlerr.New(sqlerr.Internal, 0, "rowcopy: filter length %d does not match %d source columns", len(filter), len(srcTypes))
	}

	type step struct {
		srcCol int
		dstCol int
		fn     columnFunc
	}
	steps := make([]step, 0, len(filter))

	for i, dstCol := range filter {
		if dstCol < 0 || dstCol == timestampIndex {
			continue
		}
		if dstCol >= len(dstTypes) {
			return nil, sqlerr.New(sqlerr.Internal, 0, "rowcopy: filter entry %d out of range for %d destination columns", dstCol, len(dstTypes))
		}
		srcType, dstType := srcTypes[i], dstTypes[dstCol]
		fn, ok := converters[[2]coltype.Type{srcType, dstType}]
		if !ok {
			return nil, sqlerr.New(sqlerr.Semantic, 0, "cannot copy column %d: %s -> %s is not a legal conversion", i, srcType, dstType)
		}
		steps = append(steps, step{srcCol: i, dstCol: dstCol, fn: fn})
	}

	return func(src Record, row Row) {
		for _, s := range steps {
			s.fn(src, s.srcCol, row, s.dstCol)
		}
	}, nil
}

var intLike = map[coltype.Type]bool{
	coltype.Int: true, coltype.Long: true, coltype.Date: true,
	coltype.Timestamp: true, coltype.Short: true, coltype.Byte: true,
}

var floatLike = map[coltype.Type]bool{coltype.Float: true, coltype.Double: true}

func getIntLike(r Record, i int, t coltype.Type) int64 {
	switch t {
	case coltype.Int:
		return int64(r.GetInt(i))
	case coltype.Long:
		return r.GetLong(i)
	case coltype.Date:
		return r.GetDate(i)
	case coltype.Timestamp:
		return r.GetTimestamp(i)
	case coltype.Short:
		return int64(r.GetShort(i))
	case coltype.Byte:
		return int64(r.GetByte(i))
	default:
		return 0
	}
}

func putIntLike(row Row, idx int, t coltype.Type, v int64) {
	switch t {
	case coltype.Int:
		row.PutInt(idx, int32(v))
	case coltype.Long:
		row.PutLong(idx, v)
	case coltype.Date:
		row.PutDate(idx, v)
	case coltype.Timestamp:
		row.PutTimestamp(idx, v)
	case coltype.Short:
		row.PutShort(idx, int16(v))
	case coltype.Byte:
		row.PutByte(idx, byte(v))
	}
}

// intSentinel is the "null" representation NaN maps to when a float is
// truncated into an integer-like destination (spec §4.2: "NaN float/
// double values are cast to their representation rather than Double or
// Float NaN", with INT_MIN/LONG_MIN named explicitly). SHORT/BYTE
// extend the same pattern to their own minimum value, which the spec
// text does not name but is the only sentinel consistent with it.
func intSentinel(t coltype.Type) int64 {
	switch t {
	case coltype.Int:
		return math.MinInt32
	case coltype.Long, coltype.Date, coltype.Timestamp:
		return math.MinInt64
	case coltype.Short:
		return math.MinInt16
	case coltype.Byte:
		return math.MinInt8
	default:
		return 0
	}
}

func getFloatLike(r Record, i int, t coltype.Type) float64 {
	if t == coltype.Float {
		return float64(r.GetFloat(i))
	}
	return r.GetDouble(i)
}

func putFloatLike(row Row, idx int, t coltype.Type, v float64) {
	if t == coltype.Float {
		row.PutFloat(idx, float32(v))
	} else {
		row.PutDouble(idx, v)
	}
}

// converters is the flattened form of the §4.2 conversion table: every
// (from, to) pair the table marks ✓/widen/narrow/trunc gets an entry
// here, built once at package init.
var converters = map[[2]coltype.Type]columnFunc{}

func init() {
	for src := range intLike {
		for dst := range intLike {
			src, dst := src, dst
			converters[[2]coltype.Type{src, dst}] = func(r Record, i int, row Row, idx int) {
				putIntLike(row, idx, dst, getIntLike(r, i, src))
			}
		}
		for dst := range floatLike {
			src, dst := src, dst
			converters[[2]coltype.Type{src, dst}] = func(r Record, i int, row Row, idx int) {
				putFloatLike(row, idx, dst, float64(getIntLike(r, i, src)))
			}
		}
	}

	for src := range floatLike {
		for dst := range intLike {
			src, dst := src, dst
			converters[[2]coltype.Type{src, dst}] = func(r Record, i int, row Row, idx int) {
				v := getFloatLike(r, i, src)
				if math.IsNaN(v) {
					putIntLike(row, idx, dst, intSentinel(dst))
					return
				}
				putIntLike(row, idx, dst, int64(v))
			}
		}
	}
	converters[[2]coltype.Type{coltype.Float, coltype.Float}] = func(r Record, i int, row Row, idx int) {
		row.PutFloat(idx, r.GetFloat(i))
	}
	converters[[2]coltype.Type{coltype.Float, coltype.Double}] = func(r Record, i int, row Row, idx int) {
		row.PutDouble(idx, float64(r.GetFloat(i)))
	}
	converters[[2]coltype.Type{coltype.Double, coltype.Double}] = func(r Record, i int, row Row, idx int) {
		row.PutDouble(idx, r.GetDouble(i))
	}
	converters[[2]coltype.Type{coltype.Double, coltype.Float}] = func(r Record, i int, row Row, idx int) {
		row.PutFloat(idx, float32(r.GetDouble(i)))
	}

	converters[[2]coltype.Type{coltype.Char, coltype.Char}] = func(r Record, i int, row Row, idx int) {
		row.PutChar(idx, r.GetChar(i))
	}
	converters[[2]coltype.Type{coltype.Char, coltype.String}] = func(r Record, i int, row Row, idx int) {
		row.PutStr(idx, string(r.GetChar(i)))
	}

	converters[[2]coltype.Type{coltype.Symbol, coltype.String}] = func(r Record, i int, row Row, idx int) {
		row.PutStr(idx, r.GetSym(i))
	}
	converters[[2]coltype.Type{coltype.Symbol, coltype.Symbol}] = func(r Record, i int, row Row, idx int) {
		row.PutSym(idx, r.GetSym(i))
	}
	converters[[2]coltype.Type{coltype.String, coltype.String}] = func(r Record, i int, row Row, idx int) {
		row.PutStr(idx, r.GetStr(i))
	}
	converters[[2]coltype.Type{coltype.String, coltype.Symbol}] = func(r Record, i int, row Row, idx int) {
		row.PutSym(idx, r.GetStr(i))
	}

	converters[[2]coltype.Type{coltype.Binary, coltype.Binary}] = func(r Record, i int, row Row, idx int) {
		row.PutBin(idx, r.GetBin(i))
	}
	converters[[2]coltype.Type{coltype.Boolean, coltype.Boolean}] = func(r Record, i int, row Row, idx int) {
		row.PutBool(idx, r.GetBool(i))
	}
	converters[[2]coltype.Type{coltype.Long256, coltype.Long256}] = func(r Record, i int, row Row, idx int) {
		row.PutLong256(idx, r.GetLong256(i))
	}
}
