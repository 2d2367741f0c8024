package compiler

import (
	"context"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlerr"
)

// compileShow handles `SHOW TABLES` and `SHOW COLUMNS FROM <table>`
// (spec §4 "supplemented features"): a read-only query against
// Engine.TableNames/GetReader metadata, not the parser's model
// pipeline, the same keyword-dispatch style TRUNCATE/ALTER use.
func (c *Compiler) compileShow(execCtx engine.SecurityContext, lex *lexer.Lexer) (*CompiledQuery, error) {
	if _, err := expectKeyword(lex, "show"); err != nil {
		return nil, err
	}

	tok, err := lex.Next()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.IsKeyword("tables"):
		names := c.Engine.TableNames()
		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name}
		}
		factory := newStringRowsFactory([]string{"table"}, rows)
		return &CompiledQuery{Kind: KindShow, Factory: factory}, nil

	case tok.IsKeyword("columns"):
		if _, err := expectKeyword(lex, "from"); err != nil {
			return nil, err
		}
		name, pos, err := expectIdent(lex)
		if err != nil {
			return nil, err
		}
		if c.Engine.Status(execCtx, "", name) != engine.Exists {
			return nil, sqlerr.New(sqlerr.Semantic, pos, "table %q does not exist", name)
		}
		reader, err := c.Engine.GetReader(execCtx, name, engine.AnyVersion)
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		meta := reader.Metadata()
		tsIndex := meta.TimestampIndex()
		rows := make([][]string, meta.ColumnCount())
		for i := 0; i < meta.ColumnCount(); i++ {
			designated := ""
			if i == tsIndex {
				designated = "designated"
			}
			rows[i] = []string{meta.ColumnName(i), meta.ColumnType(i).String(), designated}
		}
		factory := newStringRowsFactory([]string{"column", "type", "designated"}, rows)
		return &CompiledQuery{Kind: KindShow, Factory: factory}, nil

	default:
		return nil, sqlerr.SyntaxAt(tok.Position, "expected TABLES or COLUMNS, got %q", tok.Text)
	}
}

// stringRowsFactory is an engine.RecordCursorFactory whose every
// column is a String, backing the informational SHOW statements (and
// EXPLAIN's plan dump) where a real data column doesn't apply.
type stringRowsFactory struct {
	names []string
	rows  [][]string
}

func newStringRowsFactory(names []string, rows [][]string) *stringRowsFactory {
	return &stringRowsFactory{names: names, rows: rows}
}

func (f *stringRowsFactory) Metadata() engine.Metadata { return stringRowsMetadata{f.names} }

func (f *stringRowsFactory) GetCursor(ctx context.Context) (engine.RecordCursor, error) {
	return &stringRowsCursor{rows: f.rows, pos: -1}, nil
}

type stringRowsMetadata struct{ names []string }

func (m stringRowsMetadata) ColumnCount() int               { return len(m.names) }
func (m stringRowsMetadata) ColumnName(i int) string         { return m.names[i] }
func (m stringRowsMetadata) ColumnType(i int) coltype.Type   { return coltype.String }
func (m stringRowsMetadata) TimestampIndex() int             { return -1 }
func (m stringRowsMetadata) ColumnIndex(name string) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

type stringRowsCursor struct {
	rows [][]string
	pos  int
}

func (c *stringRowsCursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *stringRowsCursor) Record() engine.Record { return stringRowsRecord(c.rows[c.pos]) }
func (c *stringRowsCursor) Close()                {}

// stringRowsRecord implements engine.Record with every accessor but
// GetStr/GetSym returning its type's zero value: SHOW/EXPLAIN output
// is text-only, so nothing ever calls the numeric accessors.
type stringRowsRecord []string

func (r stringRowsRecord) GetBool(i int) bool               { return false }
func (r stringRowsRecord) GetByte(i int) byte               { return 0 }
func (r stringRowsRecord) GetShort(i int) int16             { return 0 }
func (r stringRowsRecord) GetChar(i int) rune               { return 0 }
func (r stringRowsRecord) GetInt(i int) int32               { return 0 }
func (r stringRowsRecord) GetLong(i int) int64              { return 0 }
func (r stringRowsRecord) GetFloat(i int) float32           { return 0 }
func (r stringRowsRecord) GetDouble(i int) float64          { return 0 }
func (r stringRowsRecord) GetDate(i int) int64              { return 0 }
func (r stringRowsRecord) GetTimestamp(i int) int64         { return 0 }
func (r stringRowsRecord) GetStr(i int) string              { return r[i] }
func (r stringRowsRecord) GetSym(i int) string              { return r[i] }
func (r stringRowsRecord) GetBin(i int) []byte              { return nil }
func (r stringRowsRecord) GetLong256(i int) rowcopy.Long256 { return rowcopy.Long256{} }
