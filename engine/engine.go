// Package engine declares the storage-engine abstraction the compiler
// drives (spec §6.3): table existence/locking, readers and writers,
// and the RecordCursorFactory/RecordCursor pair codegen wires a SELECT
// plan into. The package only declares interfaces and the small value
// types they trade in; engine/memengine provides the one concrete
// implementation this module ships, an in-memory table store used by
// the CLI and every test that needs a real engine instead of a mock.
package engine

import (
	"context"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/rowcopy"
)

// Status is the result of a name-existence probe (spec §6.3 "status").
type Status int

const (
	DoesNotExist Status = iota
	Exists
	Reserved
)

// AnyVersion is passed to GetReader when the caller doesn't need a
// specific structure version.
const AnyVersion = -1

// ColumnSpec is one column of a TableStructure: name, type, and the
// SYMBOL-only storage options (spec §3 "CreateTableModel").
type ColumnSpec struct {
	Name                    string
	Type                    coltype.Type
	SymbolCapacity          int
	SymbolCacheEnabled      bool
	Indexed                 bool
	IndexValueBlockCapacity int
}

// TableStructure is the engine-facing view the compiler builds from a
// CreateTableModel (plus any inferred CTAS metadata) and hands to
// CreateTable.
type TableStructure struct {
	Name            string
	Columns         []ColumnSpec
	TimestampColumn string // empty if none designated
	PartitionBy     string // "NONE", "DAY", "MONTH", "YEAR"
}

// TimestampIndex returns the designated timestamp column's position,
// or -1 if the table has none.
func (t TableStructure) TimestampIndex() int {
	for i, c := range t.Columns {
		if c.Name == t.TimestampColumn {
			return i
		}
	}
	return -1
}

// Metadata is the read side of a TableStructure: the column shape a
// Reader/Writer/RecordCursorFactory exposes.
type Metadata interface {
	ColumnCount() int
	ColumnName(i int) string
	ColumnType(i int) coltype.Type
	ColumnIndex(name string) int // -1 if not found
	TimestampIndex() int         // -1 if the table has none
}

// Record is the row-shaped read accessor engine cursors produce. It is
// the same method set rowcopy.Record declares; engine rows satisfy it
// structurally so this package doesn't need to import rowcopy for the
// interface itself, only for the Long256 value type.
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
	GetLong256(i int) rowcopy.Long256
}

// RecordCursor iterates a RecordCursorFactory's result set. Calling
// Record after Next returns false, or before the first Next, is
// undefined — callers always check Next's return first.
type RecordCursor interface {
	Next() bool
	Record() Record
	Close()
}

// RecordCursorFactory is a reusable producer of single-use cursors
// (spec's "Cursor factory" glossary entry): codegen builds one tree of
// these per compiled SELECT, and the caller may call GetCursor more
// than once to re-run the same plan.
type RecordCursorFactory interface {
	GetCursor(ctx context.Context) (RecordCursor, error)
	Metadata() Metadata
}

// Row is the write accessor a Writer hands back from NewRow. It shares
// rowcopy.Row's method set for the same structural-typing reason as
// Record above, plus Append to commit the in-progress row.
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
	PutLong256(i int, v rowcopy.Long256)
	Append()
}

// Writer is an exclusive handle on one table, acquired for the
// duration of a single mutation (spec §6.3 "Writer").
type Writer interface {
	Metadata() Metadata
	NewRow(ts ...int64) Row
	AddColumn(name string, t coltype.Type, symCap int, cache bool, indexed bool, idxBlockCap int) error
	RemoveColumn(name string) error
	Truncate() error
	Rollback()
	Commit() error
	Close()
}

// Reader is a shared, versioned read handle on one table.
type Reader interface {
	Metadata() Metadata
	StructureVersion() int64
	NewCursorFactory() RecordCursorFactory
	Close()
}

// SecurityContext is opaque to the compiler; it is threaded through
// every engine call unmodified (spec §6.3 names a securityCtx on
// nearly every operation, without specifying its shape).
type SecurityContext any

// Engine is the full storage abstraction the compiler is built against
// (spec §6.3). Every method that can fail for a reason the compiler
// must classify returns a *sqlerr.SqlError.
type Engine interface {
	Status(ctx SecurityContext, path, name string) Status
	Lock(ctx SecurityContext, name string) bool
	Unlock(ctx SecurityContext, name string, writer Writer)
	CreateTable(ctx SecurityContext, scratch, path string, structure TableStructure) error
	GetReader(ctx SecurityContext, name string, version int64) (Reader, error)
	GetWriter(ctx SecurityContext, name string) (Writer, error)
	LockReaders(name string) bool
	UnlockReaders(name string)
	Remove(ctx SecurityContext, path, name string) error
	RemoveDirectory(path, name string) bool
	// NewTextLoader returns a fresh TextLoader for one COPY invocation.
	NewTextLoader() TextLoader
	// TableNames lists every table currently known to the engine, for
	// SHOW TABLES (spec §4 "supplemented features").
	TableNames() []string
}

// LoadMode is the phase a TextLoader is operating in, driven by the
// COPY executor (spec §4.8).
type LoadMode int

const (
	// AnalyzeStructure is the first chunk fed to the loader: its first
	// line is read as the header row, mapping field positions to
	// destination columns by name; any further lines in that chunk are
	// loaded as data.
	AnalyzeStructure LoadMode = iota
	// LoadData is every chunk after the first: rows are parsed and
	// written through to the destination table.
	LoadData
)

// TextLoader is the opaque collaborator COPY streams a local file
// through (spec §4.8, §6.3): the compiler never parses CSV itself, it
// only pumps fixed-size buffers at openRO/Write/wrapUp in the
// AnalyzeStructure/LoadData mode sequence the spec describes.
type TextLoader interface {
	// OpenRO prepares the loader to receive chunks for destTable.
	OpenRO(ctx SecurityContext, destTable string) error
	// Write hands the loader len(buf) bytes read from the source file
	// under the given mode; it returns the number of rows it
	// appended from this call (not necessarily committed yet), or an
	// error.
	Write(ctx SecurityContext, mode LoadMode, buf []byte) (rowsLoaded int, err error)
	// WrapUp flushes any buffered partial row and releases the
	// destination writer. Only called after a clean EOF.
	WrapUp() error
}
