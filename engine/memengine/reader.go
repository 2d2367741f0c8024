package memengine

import (
	"context"

	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/rowcopy"
)

// reader is a shared, versioned read handle on one table. Each
// NewCursorFactory call snapshots the table's current row slice; every
// cursor GetCursor opens from that factory walks the same snapshot.
type reader struct {
	engine  *Engine
	table   *table
	version int64
	closed  bool
}

func (r *reader) Metadata() engine.Metadata { return newMetadata(r.table.structure) }

func (r *reader) StructureVersion() int64 { return r.version }

func (r *reader) NewCursorFactory() engine.RecordCursorFactory {
	r.table.mu.RLock()
	rows := make([][]any, len(r.table.rows))
	copy(rows, r.table.rows)
	r.table.mu.RUnlock()
	return &cursorFactory{meta: newMetadata(r.table.structure), rows: rows}
}

func (r *reader) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.table.mu.Lock()
	r.table.readerCount--
	r.table.mu.Unlock()
}

type cursorFactory struct {
	meta *metadata
	rows [][]any
}

func (f *cursorFactory) Metadata() engine.Metadata { return f.meta }

func (f *cursorFactory) GetCursor(ctx context.Context) (engine.RecordCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &cursor{rows: f.rows, pos: -1}, nil
}

type cursor struct {
	rows []([]any)
	pos  int
}

func (c *cursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *cursor) Record() engine.Record {
	return record(c.rows[c.pos])
}

func (c *cursor) Close() {}

// record adapts one stored row ([]any, column-indexed) to engine.Record.
// Values are stored already converted to their column's Go type by
// whatever wrote them (rowcopy.BuildCopier's destination side, or the
// VALUES-list evaluator), so every accessor here is a plain assertion.
type record []any

func (r record) GetBool(i int) bool       { v, _ := r[i].(bool); return v }
func (r record) GetByte(i int) byte       { v, _ := r[i].(byte); return v }
func (r record) GetShort(i int) int16     { v, _ := r[i].(int16); return v }
func (r record) GetChar(i int) rune       { v, _ := r[i].(rune); return v }
func (r record) GetInt(i int) int32       { v, _ := r[i].(int32); return v }
func (r record) GetLong(i int) int64      { v, _ := r[i].(int64); return v }
func (r record) GetFloat(i int) float32   { v, _ := r[i].(float32); return v }
func (r record) GetDouble(i int) float64  { v, _ := r[i].(float64); return v }
func (r record) GetDate(i int) int64      { v, _ := r[i].(int64); return v }
func (r record) GetTimestamp(i int) int64 { v, _ := r[i].(int64); return v }
func (r record) GetStr(i int) string      { v, _ := r[i].(string); return v }
func (r record) GetSym(i int) string      { v, _ := r[i].(string); return v }
func (r record) GetBin(i int) []byte      { v, _ := r[i].([]byte); return v }
func (r record) GetLong256(i int) rowcopy.Long256 { v, _ := r[i].(rowcopy.Long256); return v }
