package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// compileSelect runs the optimiser over model and builds a fully
// materialized RecordCursorFactory for it (spec §4 "RecordCursorFactory").
// Every join/filter/group/sort/limit stage resolves eagerly here rather
// than lazily per GetCursor call, trading the teacher's usual streaming
// style for a simpler one-shot evaluator; GetCursor just walks the
// already-computed rows (see DESIGN.md "Materialized SELECT execution").
func (c *Compiler) compileSelect(execCtx engine.SecurityContext, model *sqlast.QueryModel) (engine.RecordCursorFactory, error) {
	c.groupMembers = nil

	model, err := c.opt.Optimize(model, c.exprs)
	if err != nil {
		return nil, err
	}

	schema, rows, err := c.loadQuery(execCtx, model)
	if err != nil {
		return nil, err
	}

	if model.Where.Valid() {
		rows, err = c.filterRows(schema, rows, model.Where)
		if err != nil {
			return nil, err
		}
	}

	outSchema, outRows, err := c.project(model, schema, rows)
	if err != nil {
		return nil, err
	}

	if len(model.OrderBy) > 0 {
		if err := c.sortRows(schema, rows, outRows, model.OrderBy); err != nil {
			return nil, err
		}
	}

	outRows, err = c.applyLimit(model.Limit, outRows)
	if err != nil {
		return nil, err
	}

	return &resultFactory{meta: &resultMetadata{schema: outSchema}, rows: outRows}, nil
}

// loadQuery resolves model's source (base table or nested sub-query)
// and folds in every join, left to right, returning the combined
// schema and row set a WHERE/GROUP BY/projection stage can work over.
func (c *Compiler) loadQuery(execCtx engine.SecurityContext, model *sqlast.QueryModel) ([]schemaEntry, [][]Value, error) {
	schema, rows, err := c.loadSource(execCtx, model)
	if err != nil {
		return nil, nil, err
	}

	for _, join := range model.Joins {
		rSchema, rRows, err := c.loadSource(execCtx, join.Model)
		if err != nil {
			return nil, nil, err
		}
		schema, rows, err = c.applyJoin(schema, rows, rSchema, rRows, join)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(model.GroupBy) > 0 || containsAggregateColumn(model, c.exprs) {
		return c.groupRows(model, schema, rows)
	}

	return schema, rows, nil
}

// loadSource materializes one FROM-clause source: a base table read
// through the engine, or a recursively-compiled nested SELECT.
func (c *Compiler) loadSource(execCtx engine.SecurityContext, model *sqlast.QueryModel) ([]schemaEntry, [][]Value, error) {
	if model.SubQuery != nil {
		schema, rows, err := c.loadQuery(execCtx, model.SubQuery)
		if err != nil {
			return nil, nil, err
		}
		return requalify(schema, sourceAlias(model)), rows, nil
	}

	reader, err := c.Engine.GetReader(execCtx, model.TableName, -1)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	meta := reader.Metadata()
	schema := make([]schemaEntry, meta.ColumnCount())
	qualifier := model.Alias
	if qualifier == "" {
		qualifier = model.TableName
	}
	for i := range schema {
		schema[i] = schemaEntry{Qualifier: qualifier, Name: meta.ColumnName(i), Type: meta.ColumnType(i)}
	}

	factory := reader.NewCursorFactory()
	cursor, err := factory.GetCursor(context.Background())
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close()

	var rows [][]Value
	for cursor.Next() {
		rows = append(rows, recordToRow(cursor.Record(), schema))
	}
	return schema, rows, nil
}

func sourceAlias(model *sqlast.QueryModel) string {
	if model.Alias != "" {
		return model.Alias
	}
	return model.TableName
}

func requalify(schema []schemaEntry, qualifier string) []schemaEntry {
	if qualifier == "" {
		return schema
	}
	out := make([]schemaEntry, len(schema))
	for i, e := range schema {
		out[i] = schemaEntry{Qualifier: qualifier, Name: e.Name, Type: e.Type}
	}
	return out
}

// recordToRow copies one engine.Record into a []Value tuple using
// schema's declared types, the same Get-by-type dispatch rowcopy uses
// to read a source record, so a joined/grouped row always holds values
// in their column's native Go representation.
func recordToRow(rec engine.Record, schema []schemaEntry) []Value {
	row := make([]Value, len(schema))
	for i, e := range schema {
		switch e.Type {
		case coltype.Boolean:
			row[i] = rec.GetBool(i)
		case coltype.Byte:
			row[i] = rec.GetByte(i)
		case coltype.Short:
			row[i] = rec.GetShort(i)
		case coltype.Char:
			row[i] = rec.GetChar(i)
		case coltype.Int:
			row[i] = rec.GetInt(i)
		case coltype.Long:
			row[i] = rec.GetLong(i)
		case coltype.Float:
			row[i] = rec.GetFloat(i)
		case coltype.Double:
			row[i] = rec.GetDouble(i)
		case coltype.Date:
			row[i] = rec.GetDate(i)
		case coltype.Timestamp:
			row[i] = rec.GetTimestamp(i)
		case coltype.String:
			row[i] = rec.GetStr(i)
		case coltype.Symbol:
			row[i] = rec.GetSym(i)
		case coltype.Binary:
			row[i] = rec.GetBin(i)
		case coltype.Long256:
			row[i] = rec.GetLong256(i)
		}
	}
	return row
}

// applyJoin nested-loop combines left against right per join.Kind,
// returning the concatenated schema and every resulting combined row.
func (c *Compiler) applyJoin(left []schemaEntry, leftRows [][]Value, right []schemaEntry, rightRows [][]Value, join sqlast.JoinClause) ([]schemaEntry, [][]Value, error) {
	combined := append(append([]schemaEntry{}, left...), right...)
	var out [][]Value

	nullRight := make([]Value, len(right))

	for _, lrow := range leftRows {
		matched := false
		for _, rrow := range rightRows {
			row := concatRow(lrow, rrow)
			ok := true
			if join.Kind != sqlast.JoinCross {
				v, err := c.evaluateExpr(join.Predicate, combined, row)
				if err != nil {
					return nil, nil, err
				}
				ok = truthy(v)
			}
			if ok {
				out = append(out, row)
				matched = true
			}
		}
		if !matched && join.Kind == sqlast.JoinLeft {
			out = append(out, concatRow(lrow, nullRight))
		}
	}
	return combined, out, nil
}

func concatRow(a, b []Value) []Value {
	row := make([]Value, 0, len(a)+len(b))
	row = append(row, a...)
	row = append(row, b...)
	return row
}

func (c *Compiler) filterRows(schema []schemaEntry, rows [][]Value, where pool.Ref) ([][]Value, error) {
	var out [][]Value
	for _, row := range rows {
		v, err := c.evaluateExpr(where, schema, row)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			out = append(out, row)
		}
	}
	return out, nil
}

// containsAggregateColumn reports whether any projected column calls an
// aggregate function, which forces grouping even with no GROUP BY
// clause (the teacher's equivalent of an implicit single group).
func containsAggregateColumn(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) bool {
	for _, col := range model.Columns {
		if hasAggregate(exprs, col.Ast) {
			return true
		}
	}
	return false
}

var aggregateNames = map[string]bool{"count": true, "sum": true, "avg": true, "min": true, "max": true}

func hasAggregate(exprs *pool.Arena[sqlast.ExpressionNode], ref pool.Ref) bool {
	if !ref.Valid() {
		return false
	}
	node := exprs.Get(ref)
	switch node.Kind {
	case sqlast.Function:
		if aggregateNames[node.Token] {
			return true
		}
		for _, a := range node.Args {
			if hasAggregate(exprs, a) {
				return true
			}
		}
	case sqlast.Operator:
		return hasAggregate(exprs, node.Lhs) || hasAggregate(exprs, node.Rhs)
	}
	return false
}

// groupRows buckets rows by model.GroupBy's evaluated key (or one
// implicit group when the query has aggregates but no GROUP BY
// clause), returning one representative row per group: GROUP BY key
// columns hold their grouped value, everything else holds the first
// member row's value so a later projection stage can still reference
// non-aggregated columns that functionally depend on the key.
// Aggregate accumulation itself happens in evaluateAggregate, called
// from project against the original member rows this function stashes
// in groupMembers.
func (c *Compiler) groupRows(model *sqlast.QueryModel, schema []schemaEntry, rows [][]Value) ([]schemaEntry, [][]Value, error) {
	type group struct {
		key     []Value
		members [][]Value
	}
	order := []string{}
	groups := map[string]*group{}

	for _, row := range rows {
		key := make([]Value, len(model.GroupBy))
		for i, g := range model.GroupBy {
			v, err := c.evaluateExpr(g, schema, row)
			if err != nil {
				return nil, nil, err
			}
			key[i] = v
		}
		keyStr := fmt.Sprint(key)
		gr, ok := groups[keyStr]
		if !ok {
			gr = &group{key: key}
			groups[keyStr] = gr
			order = append(order, keyStr)
		}
		gr.members = append(gr.members, row)
	}

	if len(rows) == 0 && len(model.GroupBy) == 0 {
		// An aggregate with no input rows still produces one group
		// (e.g. `select count(*) from t` on an empty table yields 0).
		groups[""] = &group{}
		order = append(order, "")
	}

	c.groupMembers = map[int][][]Value{}
	var out [][]Value
	for i, k := range order {
		gr := groups[k]
		c.groupMembers[i] = gr.members
		var rep []Value
		if len(gr.members) > 0 {
			rep = append([]Value{}, gr.members[0]...)
		} else {
			rep = make([]Value, len(schema))
		}
		out = append(out, rep)
	}
	return schema, out, nil
}

// project evaluates model's SELECT list (or a bare `*` expansion)
// against schema/rows, returning the final output schema and rows.
// When rows came from groupRows, aggregate calls in the column list are
// intercepted and accumulated over that group's stashed members instead
// of being evaluated as ordinary per-row function calls.
func (c *Compiler) project(model *sqlast.QueryModel, schema []schemaEntry, rows [][]Value) ([]schemaEntry, [][]Value, error) {
	if isStarProjection(model, c.exprs) {
		return schema, rows, nil
	}

	outSchema := make([]schemaEntry, len(model.Columns))
	for i, col := range model.Columns {
		t, err := c.inferType(col.Ast, schema)
		if err != nil {
			return nil, nil, err
		}
		name := col.Alias
		if name == "" {
			name = columnDisplayName(c.exprs, col.Ast)
		}
		outSchema[i] = schemaEntry{Name: name, Type: t}
	}

	outRows := make([][]Value, len(rows))
	for r, row := range rows {
		out := make([]Value, len(model.Columns))
		for i, col := range model.Columns {
			if c.groupMembers != nil && hasAggregate(c.exprs, col.Ast) {
				v, err := c.evaluateAggregate(col.Ast, schema, c.groupMembers[r])
				if err != nil {
					return nil, nil, err
				}
				out[i] = v
				continue
			}
			v, err := c.evaluateExpr(col.Ast, schema, row)
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
		}
		outRows[r] = out
	}
	return outSchema, outRows, nil
}

func isStarProjection(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) bool {
	if len(model.Columns) != 1 || model.Columns[0].Alias != "" {
		return false
	}
	node := exprs.Get(model.Columns[0].Ast)
	return node.Kind == sqlast.Literal && node.Token == "*"
}

func columnDisplayName(exprs *pool.Arena[sqlast.ExpressionNode], ref pool.Ref) string {
	node := exprs.Get(ref)
	if node.Kind == sqlast.Literal {
		return node.Token
	}
	return node.Token
}

// evaluateAggregate computes one aggregate function call over members,
// the real accumulation funcreg's placeholder identity Evaluator
// defers to this layer (see funcreg/aggregates.go).
func (c *Compiler) evaluateAggregate(ref pool.Ref, schema []schemaEntry, members [][]Value) (Value, error) {
	node := c.exprs.Get(ref)
	if node.Kind != sqlast.Function || !aggregateNames[node.Token] {
		return nil, sqlerr.SemanticAt(node.Position, "aggregate expression expected")
	}
	if isCountStar(node, c.exprs) {
		return int64(len(members)), nil
	}

	var values []float64
	for _, row := range members {
		v, err := c.evaluateExpr(node.Args[0], schema, row)
		if err != nil {
			return nil, err
		}
		f, ok := asNumeric(v)
		if ok {
			values = append(values, f)
		}
	}

	switch node.Token {
	case "count":
		return int64(len(values)), nil
	case "sum":
		var s float64
		for _, v := range values {
			s += v
		}
		return s, nil
	case "avg":
		if len(values) == 0 {
			return float64(0), nil
		}
		var s float64
		for _, v := range values {
			s += v
		}
		return s / float64(len(values)), nil
	case "min":
		if len(values) == 0 {
			return float64(0), nil
		}
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case "max":
		if len(values) == 0 {
			return float64(0), nil
		}
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	default:
		return nil, sqlerr.SemanticAt(node.Position, "unknown aggregate %q", node.Token)
	}
}

func asNumeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// sortRows reorders outRows in place per model's ORDER BY terms, with
// the sort keys evaluated on the matching pre-projection rows against
// the pre-projection schema so an ORDER BY column that isn't in the
// SELECT list still resolves. rows itself is left in its original order.
func (c *Compiler) sortRows(schema []schemaEntry, rows [][]Value, outRows [][]Value, orderBy []sqlast.OrderByColumn) error {
	type indexed struct {
		row    []Value
		out    []Value
		keys   []Value
	}
	items := make([]indexed, len(rows))
	for i, row := range rows {
		keys := make([]Value, len(orderBy))
		for k, ob := range orderBy {
			v, err := c.evaluateExpr(ob.Ast, schema, row)
			if err != nil {
				return err
			}
			keys[k] = v
		}
		items[i] = indexed{row: row, out: outRows[i], keys: keys}
	}

	sort.SliceStable(items, func(i, j int) bool {
		for k, ob := range orderBy {
			cmp := compareValues(items[i].keys[k], items[j].keys[k])
			if cmp == 0 {
				continue
			}
			if ob.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	for i, it := range items {
		outRows[i] = it.out
	}
	return nil
}

func compareValues(a, b Value) int {
	if af, aok := asNumeric(a); aok {
		bf, _ := asNumeric(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func (c *Compiler) applyLimit(limit *sqlast.LimitClause, rows [][]Value) ([][]Value, error) {
	if limit == nil {
		return rows, nil
	}
	count, err := c.evaluateExpr(limit.Count, nil, nil)
	if err != nil {
		return nil, err
	}
	n, _ := asNumeric(count)

	offset := 0.0
	if limit.Offset.Valid() {
		o, err := c.evaluateExpr(limit.Offset, nil, nil)
		if err != nil {
			return nil, err
		}
		offset, _ = asNumeric(o)
	}

	lo := int(offset)
	if lo > len(rows) {
		lo = len(rows)
	}
	hi := lo + int(n)
	if hi > len(rows) || n < 0 {
		hi = len(rows)
	}
	return rows[lo:hi], nil
}

// resultMetadata/resultRecord/resultFactory/resultCursor give a
// materialized projection the same engine.RecordCursorFactory shape a
// table reader's cursor factory has, so callers (including a nested
// CREATE TABLE AS SELECT) can't tell a query result from a live table.
type resultMetadata struct {
	schema []schemaEntry
}

func (m *resultMetadata) ColumnCount() int            { return len(m.schema) }
func (m *resultMetadata) ColumnName(i int) string      { return m.schema[i].Name }
func (m *resultMetadata) ColumnType(i int) coltype.Type { return m.schema[i].Type }
func (m *resultMetadata) ColumnIndex(name string) int {
	for i, e := range m.schema {
		if e.Name == name {
			return i
		}
	}
	return -1
}
func (m *resultMetadata) TimestampIndex() int { return -1 }

type resultFactory struct {
	meta *resultMetadata
	rows [][]Value
}

func (f *resultFactory) Metadata() engine.Metadata { return f.meta }
func (f *resultFactory) GetCursor(ctx context.Context) (engine.RecordCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &resultCursor{meta: f.meta, rows: f.rows, pos: -1}, nil
}

type resultCursor struct {
	meta *resultMetadata
	rows [][]Value
	pos  int
}

func (c *resultCursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows)
}
func (c *resultCursor) Record() engine.Record {
	return resultRecord{meta: c.meta, row: c.rows[c.pos]}
}
func (c *resultCursor) Close() {}

type resultRecord struct {
	meta *resultMetadata
	row  []Value
}

func (r resultRecord) GetBool(i int) bool      { b, _ := r.row[i].(bool); return b }
func (r resultRecord) GetByte(i int) byte      { v, _ := asNumeric(r.row[i]); return byte(v) }
func (r resultRecord) GetShort(i int) int16    { v, _ := asNumeric(r.row[i]); return int16(v) }
func (r resultRecord) GetChar(i int) rune {
	if s, ok := r.row[i].(string); ok && len(s) > 0 {
		return []rune(s)[0]
	}
	c, _ := r.row[i].(rune)
	return c
}
func (r resultRecord) GetInt(i int) int32   { v, _ := asNumeric(r.row[i]); return int32(v) }
func (r resultRecord) GetLong(i int) int64  { v, _ := asNumeric(r.row[i]); return int64(v) }
func (r resultRecord) GetFloat(i int) float32 { v, _ := asNumeric(r.row[i]); return float32(v) }
func (r resultRecord) GetDouble(i int) float64 { v, _ := asNumeric(r.row[i]); return v }
func (r resultRecord) GetDate(i int) int64      { v, _ := asNumeric(r.row[i]); return int64(v) }
func (r resultRecord) GetTimestamp(i int) int64 { v, _ := asNumeric(r.row[i]); return int64(v) }
func (r resultRecord) GetStr(i int) string {
	if s, ok := r.row[i].(string); ok {
		return s
	}
	return fmt.Sprint(r.row[i])
}
func (r resultRecord) GetSym(i int) string { return r.GetStr(i) }
func (r resultRecord) GetBin(i int) []byte { b, _ := r.row[i].([]byte); return b }
func (r resultRecord) GetLong256(i int) rowcopy.Long256 {
	v, _ := r.row[i].(rowcopy.Long256)
	return v
}
