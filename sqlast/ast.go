// Package sqlast holds the pooled AST and query-model node shapes the
// parser builds and the optimiser rewrites (spec §3 "ExpressionNode",
// "QueryColumn", "QueryModel", "CreateTableModel", "InsertModel",
// "CopyModel"). Every node lives in a pool.Arena owned by the compiler
// and is invalid after the arena's next Reset — see pool.Arena's
// generation check.
package sqlast

import (
	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/pool"
)

// Kind tags an ExpressionNode's shape.
type Kind int

const (
	Literal Kind = iota
	Constant
	Operator
	Function
	SetOperation
	Query
)

// ExpressionNode is a tagged node in an expression tree: `lhs OP rhs`,
// `fn(args...)`, a bare literal/constant, or (Kind == Query) a scalar
// sub-query. Nodes are allocated from an Arena[ExpressionNode] and
// addressed by pool.Ref everywhere else in this package so the whole
// tree can be invalidated by one Arena.Reset() between compiles.
type ExpressionNode struct {
	Kind     Kind
	Token    string
	Position int
	Lhs      pool.Ref
	Rhs      pool.Ref
	Args     []pool.Ref
	SubQuery *QueryModel // valid only when Kind == Query
}

// QueryColumn is one projected column of a SELECT list.
type QueryColumn struct {
	Alias    string // empty if unaliased
	Ast      pool.Ref
	Position int
}

// JoinKind enumerates the join forms the optimiser and code generator
// understand (spec's rule-based join reordering operates over these).
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinCross
)

// JoinClause attaches a joined QueryModel to its predicate.
type JoinClause struct {
	Kind      JoinKind
	Model     *QueryModel
	Predicate pool.Ref
	Context   string // join hint / disambiguation context, opaque to this layer
}

// OrderByColumn is one ORDER BY term.
type OrderByColumn struct {
	Ast        pool.Ref
	Descending bool
}

// SampleByClause models `SAMPLE BY <n><unit>` time-bucketing.
type SampleByClause struct {
	Amount int
	Unit   byte // 's','m','h','d','M','y'
}

// LimitClause models `LIMIT n[,m]`.
type LimitClause struct {
	Count  pool.Ref
	Offset pool.Ref // zero Ref (Valid()==false) if absent
}

// QueryModel is the composite AST of one SELECT, possibly wrapping a
// nested QueryModel as its source for sub-queries (spec §3).
type QueryModel struct {
	Columns []QueryColumn

	TableName string      // source table name; empty when SubQuery != nil
	SubQuery  *QueryModel // nested source model, nil when TableName != ""
	Alias     string

	Joins []JoinClause

	Where   pool.Ref
	GroupBy []pool.Ref

	SampleBy *SampleByClause
	OrderBy  []OrderByColumn
	Limit    *LimitClause
}

// PartitionMode is CREATE TABLE's PARTITION BY mode.
type PartitionMode int

const (
	PartitionNone PartitionMode = iota
	PartitionDay
	PartitionMonth
	PartitionYear
)

func (p PartitionMode) String() string {
	switch p {
	case PartitionDay:
		return "DAY"
	case PartitionMonth:
		return "MONTH"
	case PartitionYear:
		return "YEAR"
	default:
		return "NONE"
	}
}

// ColumnDef is one explicit CREATE TABLE column: name, type, and the
// SYMBOL-specific options that are rejected for every other type
// (spec §4.6).
type ColumnDef struct {
	Name                    string
	Type                    coltype.Type
	Position                int
	SymbolCapacity          int  // 0 = use configured default
	SymbolCacheEnabled      bool
	SymbolCacheSet          bool // whether CACHE/NOCACHE was explicit
	Indexed                 bool
	IndexValueBlockCapacity int // 0 = use configured default
}

// CreateTableModel is the model produced for both plain CREATE TABLE
// and CREATE TABLE AS SELECT (spec §3, §4.5).
type CreateTableModel struct {
	TableName       string
	Columns         []ColumnDef       // explicit column list; empty for CTAS
	CastMap         map[string]coltype.Type // ColumnCastModel: column name -> CAST target type
	TimestampColumn string            // empty if none designated
	PartitionBy     PartitionMode
	Query           *QueryModel // non-nil for CREATE TABLE AS SELECT
	Position        int
}

// InsertModel is the model for INSERT INTO t [(cols)] VALUES (...) and
// INSERT INTO t [(cols)] <query> (spec §3, §4.3, §4.4).
type InsertModel struct {
	TableName string
	Columns   []string // ordered column set; empty means "all table columns"
	Values    []pool.Ref // one expr per column, value-list form
	Query     *QueryModel // non-nil for INSERT ... SELECT
	Position  int
}

// CopyModel is the model for COPY 'file'|'stdin' INTO t (spec §3, §4.8).
type CopyModel struct {
	SourceFile pool.Ref
	DestTable  string
	Stdin      bool
	Position   int
}

// RenameModel models the legacy `RENAME TABLE old TO new` statement.
// The storage engine interface in §6.3 exposes no rename primitive, so
// the compiler parses this model but rejects it at dispatch time with a
// clear SemanticError rather than silently dropping support for the
// ExecutionModel kind the spec enumerates (see DESIGN.md "RENAME").
type RenameModel struct {
	OldName  string
	NewName  string
	Position int
}

// ExecutionKind tags which of the five model shapes a Parser call
// produced (spec §2 Parser: "QUERY, CREATE_TABLE, INSERT, COPY, RENAME").
type ExecutionKind int

const (
	ExecQuery ExecutionKind = iota
	ExecCreateTable
	ExecInsert
	ExecCopy
	ExecRename
)

// ExecutionModel is the parser's top-level output: exactly one of the
// typed model pointers is non-nil, selected by Kind.
type ExecutionModel struct {
	Kind         ExecutionKind
	Query        *QueryModel
	CreateTable  *CreateTableModel
	Insert       *InsertModel
	Copy         *CopyModel
	Rename       *RenameModel
}
