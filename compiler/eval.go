package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// schemaEntry is one column of a materialized row set: its source
// table/alias qualifier (for `t.col` resolution), name, declared type,
// and position in the combined row slice.
type schemaEntry struct {
	Qualifier string
	Name      string
	Type      coltype.Type
}

// resolveColumn finds token ("col" or "qualifier.col") in schema,
// preferring an exact qualifier+name match and falling back to an
// unqualified name match when unambiguous.
func resolveColumn(schema []schemaEntry, token string) (int, bool) {
	qualifier, name := "", token
	if i := strings.LastIndexByte(token, '.'); i >= 0 {
		qualifier, name = token[:i], token[i+1:]
	}
	if qualifier != "" {
		for i, e := range schema {
			if e.Qualifier == qualifier && e.Name == name {
				return i, true
			}
		}
		return -1, false
	}
	found := -1
	for i, e := range schema {
		if e.Name == name {
			if found >= 0 {
				return -1, false // ambiguous across join sources
			}
			found = i
		}
	}
	return found, found >= 0
}

// inferType determines ref's static result type against schema without
// needing an actual row: column refs resolve through schema, literal
// constants are classified from their token text, and operator/
// function calls resolve through funcreg's Bind (which only needs
// operand types, not values).
func (c *Compiler) inferType(ref pool.Ref, schema []schemaEntry) (coltype.Type, error) {
	node := c.exprs.Get(ref)
	switch node.Kind {
	case sqlast.Literal:
		if idx, ok := resolveColumn(schema, node.Token); ok {
			return schema[idx].Type, nil
		}
		return coltype.String, nil // unresolved literal: treated as a string constant
	case sqlast.Constant:
		return constantType(node.Token), nil
	case sqlast.Operator:
		return c.inferOperatorType(node, schema)
	case sqlast.Function:
		return c.inferFunctionType(node, schema)
	case sqlast.Query:
		return coltype.String, nil // scalar sub-query result type unknown until executed
	default:
		return 0, sqlerr.New(sqlerr.Internal, node.Position, "compiler: unhandled expression kind %d", node.Kind)
	}
}

func (c *Compiler) inferOperatorType(node *sqlast.ExpressionNode, schema []schemaEntry) (coltype.Type, error) {
	lt, err := c.inferType(node.Lhs, schema)
	if err != nil {
		return 0, err
	}
	argTypes := []coltype.Type{lt}
	if node.Token != "not" && node.Token != "neg" {
		rt, err := c.inferType(node.Rhs, schema)
		if err != nil {
			return 0, err
		}
		argTypes = append(argTypes, rt)
	}
	bound, err := c.Funcs.Bind(node.Token, argTypes, node.Position)
	if err != nil {
		return 0, err
	}
	return bound.Return, nil
}

func (c *Compiler) inferFunctionType(node *sqlast.ExpressionNode, schema []schemaEntry) (coltype.Type, error) {
	if node.Token == "cast" {
		operand, err := c.inferType(node.Lhs, schema)
		if err != nil {
			return 0, err
		}
		targetNode := c.exprs.Get(node.Rhs)
		bound, err := c.Funcs.BindCast(operand, targetNode.Token, node.Position)
		if err != nil {
			return 0, err
		}
		return bound.Return, nil
	}
	if isCountStar(node, c.exprs) {
		return coltype.Long, nil
	}
	argTypes := make([]coltype.Type, len(node.Args))
	for i, a := range node.Args {
		t, err := c.inferType(a, schema)
		if err != nil {
			return 0, err
		}
		argTypes[i] = t
	}
	bound, err := c.Funcs.Bind(node.Token, argTypes, node.Position)
	if err != nil {
		return 0, err
	}
	return bound.Return, nil
}

func constantType(token string) coltype.Type {
	switch strings.ToLower(token) {
	case "true", "false":
		return coltype.Boolean
	case "null":
		return coltype.String
	}
	if strings.ContainsAny(token, ".eE") {
		return coltype.Double
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
		return coltype.Int
	}
	return coltype.Long
}

// evaluateExpr evaluates ref against one combined row, returning the
// raw Value. It mirrors inferType's structure so a node's evaluated
// value and its statically-inferred type always agree.
func (c *Compiler) evaluateExpr(ref pool.Ref, schema []schemaEntry, row []Value) (Value, error) {
	node := c.exprs.Get(ref)
	switch node.Kind {
	case sqlast.Literal:
		if idx, ok := resolveColumn(schema, node.Token); ok {
			return row[idx], nil
		}
		return node.Token, nil

	case sqlast.Constant:
		return evaluateConstant(node.Token), nil

	case sqlast.Operator:
		return c.evaluateOperator(node, schema, row)

	case sqlast.Function:
		return c.evaluateFunction(node, schema, row)

	case sqlast.Query:
		return nil, sqlerr.New(sqlerr.Internal, node.Position, "compiler: scalar sub-queries are not yet executable")

	default:
		return nil, sqlerr.New(sqlerr.Internal, node.Position, "compiler: unhandled expression kind %d", node.Kind)
	}
}

func evaluateConstant(token string) Value {
	switch strings.ToLower(token) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if strings.ContainsAny(token, ".eE") {
		f, _ := strconv.ParseFloat(token, 64)
		return f
	}
	n, _ := strconv.ParseInt(token, 10, 64)
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return int32(n)
	}
	return n
}

func (c *Compiler) evaluateOperator(node *sqlast.ExpressionNode, schema []schemaEntry, row []Value) (Value, error) {
	lv, err := c.evaluateExpr(node.Lhs, schema, row)
	if err != nil {
		return nil, err
	}
	lt, err := c.inferType(node.Lhs, schema)
	if err != nil {
		return nil, err
	}
	args := []Value{lv}
	argTypes := []coltype.Type{lt}
	if node.Token != "not" && node.Token != "neg" {
		rv, err := c.evaluateExpr(node.Rhs, schema, row)
		if err != nil {
			return nil, err
		}
		rt, err := c.inferType(node.Rhs, schema)
		if err != nil {
			return nil, err
		}
		args = append(args, rv)
		argTypes = append(argTypes, rt)
	}
	bound, err := c.Funcs.Bind(node.Token, argTypes, node.Position)
	if err != nil {
		return nil, err
	}
	return bound.Evaluate(args)
}

// isCountStar reports whether node is the special count(*) call, whose
// single argument is a synthetic Literal carrying the token "*" rather
// than a real column reference.
func isCountStar(node *sqlast.ExpressionNode, exprs *pool.Arena[sqlast.ExpressionNode]) bool {
	if node.Token != "count" || len(node.Args) != 1 {
		return false
	}
	arg := exprs.Get(node.Args[0])
	return arg.Kind == sqlast.Literal && arg.Token == "*"
}

func (c *Compiler) evaluateFunction(node *sqlast.ExpressionNode, schema []schemaEntry, row []Value) (Value, error) {
	if isCountStar(node, c.exprs) {
		bound := c.Funcs.BindCountStar(node.Position)
		return bound.Evaluate(nil)
	}
	if node.Token == "cast" {
		operandType, err := c.inferType(node.Lhs, schema)
		if err != nil {
			return nil, err
		}
		operandVal, err := c.evaluateExpr(node.Lhs, schema, row)
		if err != nil {
			return nil, err
		}
		targetNode := c.exprs.Get(node.Rhs)
		bound, err := c.Funcs.BindCast(operandType, targetNode.Token, node.Position)
		if err != nil {
			return nil, err
		}
		return bound.Evaluate([]Value{operandVal})
	}

	args := make([]Value, len(node.Args))
	argTypes := make([]coltype.Type, len(node.Args))
	for i, a := range node.Args {
		v, err := c.evaluateExpr(a, schema, row)
		if err != nil {
			return nil, err
		}
		t, err := c.inferType(a, schema)
		if err != nil {
			return nil, err
		}
		args[i] = v
		argTypes[i] = t
	}
	bound, err := c.Funcs.Bind(node.Token, argTypes, node.Position)
	if err != nil {
		return nil, err
	}
	return bound.Evaluate(args)
}

// truthy interprets an evaluated WHERE/ON Value as a boolean predicate.
func truthy(v Value) bool {
	b, _ := v.(bool)
	return b
}
