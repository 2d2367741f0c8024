package rowcopy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/coltype"
)

// fakeRecord/fakeRow give each column a single typed value; tests only
// ever populate the column the conversion under test actually reads.
type fakeRecord struct {
	ints    map[int]int32
	longs   map[int]int64
	floats  map[int]float32
	doubles map[int]float64
	strs    map[int]string
	syms    map[int]string
	chars   map[int]rune
}

func newFakeRecord() *fakeRecord {
	return &fakeRecord{
		ints: map[int]int32{}, longs: map[int]int64{}, floats: map[int]float32{},
		doubles: map[int]float64{}, strs: map[int]string{}, syms: map[int]string{}, chars: map[int]rune{},
	}
}

func (f *fakeRecord) GetBool(i int) bool       { return false }
func (f *fakeRecord) GetByte(i int) byte       { return 0 }
func (f *fakeRecord) GetShort(i int) int16     { return 0 }
func (f *fakeRecord) GetChar(i int) rune       { return f.chars[i] }
func (f *fakeRecord) GetInt(i int) int32       { return f.ints[i] }
func (f *fakeRecord) GetLong(i int) int64      { return f.longs[i] }
func (f *fakeRecord) GetFloat(i int) float32   { return f.floats[i] }
func (f *fakeRecord) GetDouble(i int) float64  { return f.doubles[i] }
func (f *fakeRecord) GetDate(i int) int64      { return f.longs[i] }
func (f *fakeRecord) GetTimestamp(i int) int64 { return f.longs[i] }
func (f *fakeRecord) GetStr(i int) string      { return f.strs[i] }
func (f *fakeRecord) GetSym(i int) string      { return f.syms[i] }
func (f *fakeRecord) GetBin(i int) []byte      { return nil }
func (f *fakeRecord) GetLong256(i int) Long256 { return Long256{} }

type fakeRow struct {
	ints    map[int]int32
	longs   map[int]int64
	doubles map[int]float64
	strs    map[int]string
	syms    map[int]string
}

func newFakeRow() *fakeRow {
	return &fakeRow{ints: map[int]int32{}, longs: map[int]int64{}, doubles: map[int]float64{}, strs: map[int]string{}, syms: map[int]string{}}
}

func (r *fakeRow) PutBool(i int, v bool)       {}
func (r *fakeRow) PutByte(i int, v byte)       {}
func (r *fakeRow) PutShort(i int, v int16)     {}
func (r *fakeRow) PutChar(i int, v rune)       {}
func (r *fakeRow) PutInt(i int, v int32)       { r.ints[i] = v }
func (r *fakeRow) PutLong(i int, v int64)      { r.longs[i] = v }
func (r *fakeRow) PutFloat(i int, v float32)   {}
func (r *fakeRow) PutDouble(i int, v float64)  { r.doubles[i] = v }
func (r *fakeRow) PutDate(i int, v int64)      { r.longs[i] = v }
func (r *fakeRow) PutTimestamp(i int, v int64) { r.longs[i] = v }
func (r *fakeRow) PutStr(i int, v string)      { r.strs[i] = v }
func (r *fakeRow) PutSym(i int, v string)      { r.syms[i] = v }
func (r *fakeRow) PutBin(i int, v []byte)      {}
func (r *fakeRow) PutLong256(i int, v Long256) {}

func TestBuildCopierWidensIntToDouble(t *testing.T) {
	c, err := BuildCopier([]coltype.Type{coltype.Int}, []coltype.Type{coltype.Double}, []int{0}, -1)
	require.NoError(t, err)
	src := newFakeRecord()
	src.ints[0] = 7
	row := newFakeRow()
	c(src, row)
	assert.Equal(t, 7.0, row.doubles[0])
}

func TestBuildCopierTruncNaNMapsToIntMin(t *testing.T) {
	c, err := BuildCopier([]coltype.Type{coltype.Double}, []coltype.Type{coltype.Int}, []int{0}, -1)
	require.NoError(t, err)
	src := newFakeRecord()
	src.doubles[0] = math.NaN()
	row := newFakeRow()
	c(src, row)
	assert.Equal(t, int32(math.MinInt32), row.ints[0])
}

func TestBuildCopierTruncRegularValue(t *testing.T) {
	c, err := BuildCopier([]coltype.Type{coltype.Double}, []coltype.Type{coltype.Int}, []int{0}, -1)
	require.NoError(t, err)
	src := newFakeRecord()
	src.doubles[0] = 3.9
	row := newFakeRow()
	c(src, row)
	assert.Equal(t, int32(3), row.ints[0])
}

func TestBuildCopierSkipsTimestampIndex(t *testing.T) {
	c, err := BuildCopier([]coltype.Type{coltype.Int, coltype.Timestamp}, []coltype.Type{coltype.Int, coltype.Timestamp}, []int{0, 1}, 1)
	require.NoError(t, err)
	src := newFakeRecord()
	src.ints[0] = 42
	src.longs[1] = 999
	row := newFakeRow()
	c(src, row)
	assert.Equal(t, int32(42), row.ints[0])
	assert.Equal(t, int64(0), row.longs[1]) // untouched by the copier
}

func TestBuildCopierRejectsIllegalPair(t *testing.T) {
	_, err := BuildCopier([]coltype.Type{coltype.Binary}, []coltype.Type{coltype.Int}, []int{0}, -1)
	require.Error(t, err)
}

func TestBuildCopierSymbolStringRoundTrip(t *testing.T) {
	c, err := BuildCopier([]coltype.Type{coltype.Symbol}, []coltype.Type{coltype.String}, []int{0}, -1)
	require.NoError(t, err)
	src := newFakeRecord()
	src.syms[0] = "AAPL"
	row := newFakeRow()
	c(src, row)
	assert.Equal(t, "AAPL", row.strs[0])
}
