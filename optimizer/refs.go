package optimizer

import (
	"strings"

	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
)

// unqualifiedMarker and subqueryMarker are sentinel alias names that can
// never legally name a join or table, used to flag "this expression
// touches something we can't attribute to a single source" so the
// push-down pass stays conservative rather than wrong.
const (
	unqualifiedMarker = "\x00unqualified"
	subqueryMarker    = "\x00subquery"
)

// collectAliases walks the expression tree rooted at ref and records,
// in out, every table alias/name a qualified column reference touches.
// A bare (unqualified) column name or a scalar sub-query adds one of
// the sentinel markers above instead of guessing which source it binds
// to — predicate push-down treats either as "don't move this".
func collectAliases(exprs *pool.Arena[sqlast.ExpressionNode], ref pool.Ref, out map[string]bool) {
	if !ref.Valid() {
		return
	}
	node := exprs.Get(ref)
	switch node.Kind {
	case sqlast.Literal:
		if node.Token == "*" {
			return
		}
		if dot := strings.IndexByte(node.Token, '.'); dot >= 0 {
			out[node.Token[:dot]] = true
		} else {
			out[unqualifiedMarker] = true
		}
	case sqlast.Constant:
		// no column references
	case sqlast.Operator:
		collectAliases(exprs, node.Lhs, out)
		collectAliases(exprs, node.Rhs, out)
	case sqlast.Function:
		if node.Token == "cast" {
			// Rhs is a synthetic type-name Constant, not a column ref.
			collectAliases(exprs, node.Lhs, out)
			return
		}
		for _, arg := range node.Args {
			collectAliases(exprs, arg, out)
		}
	case sqlast.Query:
		out[subqueryMarker] = true
	case sqlast.SetOperation:
		collectAliases(exprs, node.Lhs, out)
		collectAliases(exprs, node.Rhs, out)
	}
}

// sourceName returns the identifier other clauses would qualify a
// model's columns with: its alias if given, else its bare table name.
func sourceName(model *sqlast.QueryModel) string {
	if model == nil {
		return ""
	}
	if model.Alias != "" {
		return model.Alias
	}
	return model.TableName
}

// splitConjuncts flattens a top-level chain of AND operators into its
// individual conjuncts. Non-AND expressions return as a single-element
// slice.
func splitConjuncts(exprs *pool.Arena[sqlast.ExpressionNode], ref pool.Ref) []pool.Ref {
	if !ref.Valid() {
		return nil
	}
	node := exprs.Get(ref)
	if node.Kind == sqlast.Operator && node.Token == "and" {
		return append(splitConjuncts(exprs, node.Lhs), splitConjuncts(exprs, node.Rhs)...)
	}
	return []pool.Ref{ref}
}

// joinConjuncts rebuilds a single expression ANDing every ref together,
// in order. It returns the zero Ref if refs is empty.
func joinConjuncts(exprs *pool.Arena[sqlast.ExpressionNode], refs []pool.Ref) pool.Ref {
	if len(refs) == 0 {
		return pool.Ref{}
	}
	result := refs[0]
	for _, r := range refs[1:] {
		ref, node := exprs.Alloc()
		node.Kind = sqlast.Operator
		node.Token = "and"
		node.Lhs = result
		node.Rhs = r
		result = ref
	}
	return result
}
