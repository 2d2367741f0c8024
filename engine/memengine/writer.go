package memengine

import (
	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlerr"
)

// metadata is the engine.Metadata view over a table's current column
// shape, snapshotted at the moment it's handed out so a Reader's view
// never shifts under a concurrent ALTER.
type metadata struct {
	columns  []engine.ColumnSpec
	tsColumn string
	tsIndex  int
}

func newMetadata(s engine.TableStructure) *metadata {
	cols := make([]engine.ColumnSpec, len(s.Columns))
	copy(cols, s.Columns)
	return &metadata{columns: cols, tsColumn: s.TimestampColumn, tsIndex: s.TimestampIndex()}
}

func (m *metadata) ColumnCount() int { return len(m.columns) }
func (m *metadata) ColumnName(i int) string { return m.columns[i].Name }
func (m *metadata) ColumnType(i int) coltype.Type { return m.columns[i].Type }
func (m *metadata) TimestampIndex() int { return m.tsIndex }

func (m *metadata) ColumnIndex(name string) int {
	for i, c := range m.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// writer is the exclusive mutation handle GetWriter hands out. Rows
// built via NewRow/Append are buffered in pending until Commit, so a
// Rollback (or a writer that's simply never committed) never disturbs
// concurrent readers.
type writer struct {
	table   *table
	pending [][]any
}

func (w *writer) Metadata() engine.Metadata { return newMetadata(w.table.structure) }

func (w *writer) NewRow(ts ...int64) engine.Row {
	cols := w.table.structure.Columns
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = zeroValue(c.Type)
	}
	if idx := w.table.structure.TimestampIndex(); idx >= 0 && len(ts) > 0 {
		values[idx] = ts[0]
	}
	return &row{writer: w, values: values}
}

func (w *writer) AddColumn(name string, t coltype.Type, symCap int, cache bool, indexed bool, idxBlockCap int) error {
	w.table.mu.Lock()
	defer w.table.mu.Unlock()
	for _, c := range w.table.structure.Columns {
		if c.Name == name {
			return sqlerr.New(sqlerr.AlreadyExists, 0, "column %q already exists", name)
		}
	}
	w.table.structure.Columns = append(w.table.structure.Columns, engine.ColumnSpec{
		Name: name, Type: t, SymbolCapacity: symCap, SymbolCacheEnabled: cache,
		Indexed: indexed, IndexValueBlockCapacity: idxBlockCap,
	})
	fill := zeroValue(t)
	for i, r := range w.table.rows {
		w.table.rows[i] = append(r, fill)
	}
	w.table.structureVersion++
	return nil
}

func (w *writer) RemoveColumn(name string) error {
	w.table.mu.Lock()
	defer w.table.mu.Unlock()
	idx := -1
	for i, c := range w.table.structure.Columns {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sqlerr.New(sqlerr.Semantic, 0, "column %q does not exist", name)
	}
	w.table.structure.Columns = append(w.table.structure.Columns[:idx], w.table.structure.Columns[idx+1:]...)
	for i, r := range w.table.rows {
		w.table.rows[i] = append(r[:idx], r[idx+1:]...)
	}
	w.table.structureVersion++
	return nil
}

func (w *writer) Truncate() error {
	w.table.mu.Lock()
	defer w.table.mu.Unlock()
	w.table.rows = nil
	return nil
}

func (w *writer) Rollback() {
	w.pending = nil
}

func (w *writer) Commit() error {
	if len(w.pending) == 0 {
		return nil
	}
	w.table.mu.Lock()
	w.table.rows = append(w.table.rows, w.pending...)
	w.table.mu.Unlock()
	w.pending = nil
	return nil
}

func (w *writer) Close() {
	w.table.mu.Lock()
	w.table.writerHeld = false
	w.table.mu.Unlock()
}

// row is the in-progress write accessor NewRow hands back; Append
// copies its values into the writer's pending batch.
type row struct {
	writer *writer
	values []any
}

func (r *row) PutBool(i int, v bool)       { r.values[i] = v }
func (r *row) PutByte(i int, v byte)       { r.values[i] = v }
func (r *row) PutShort(i int, v int16)     { r.values[i] = v }
func (r *row) PutChar(i int, v rune)       { r.values[i] = v }
func (r *row) PutInt(i int, v int32)       { r.values[i] = v }
func (r *row) PutLong(i int, v int64)      { r.values[i] = v }
func (r *row) PutFloat(i int, v float32)   { r.values[i] = v }
func (r *row) PutDouble(i int, v float64)  { r.values[i] = v }
func (r *row) PutDate(i int, v int64)      { r.values[i] = v }
func (r *row) PutTimestamp(i int, v int64) { r.values[i] = v }
func (r *row) PutStr(i int, v string)      { r.values[i] = v }
func (r *row) PutSym(i int, v string)      { r.values[i] = v }
func (r *row) PutBin(i int, v []byte)      { r.values[i] = v }
func (r *row) PutLong256(i int, v rowcopy.Long256) { r.values[i] = v }

func (r *row) Append() {
	cp := make([]any, len(r.values))
	copy(cp, r.values)
	r.writer.pending = append(r.writer.pending, cp)
}
