package optimizer

import (
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
)

// pushDownPredicates moves WHERE conjuncts that reference exactly one
// join's source down onto that join's ON predicate, so the code
// generator can apply them while scanning that join's rows instead of
// after the whole row is assembled. Conjuncts that reference the base
// table, more than one source, or can't be attributed to a single
// source (an unqualified column, a correlated sub-query) stay in WHERE.
func pushDownPredicates(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) {
	if !model.Where.Valid() || len(model.Joins) == 0 {
		return
	}

	byName := make(map[string]int, len(model.Joins))
	for i, j := range model.Joins {
		if name := sourceName(j.Model); name != "" {
			byName[name] = i
		}
	}

	conjuncts := splitConjuncts(exprs, model.Where)
	var remaining []pool.Ref

	for _, c := range conjuncts {
		refs := map[string]bool{}
		collectAliases(exprs, c, refs)

		if len(refs) != 1 {
			remaining = append(remaining, c)
			continue
		}
		var only string
		for name := range refs {
			only = name
		}
		idx, ok := byName[only]
		if !ok {
			remaining = append(remaining, c)
			continue
		}
		if model.Joins[idx].Kind == sqlast.JoinCross {
			// A cross join has no ON clause to attach to; leave the
			// filter in WHERE rather than silently turning it into an
			// inner join's semantics.
			remaining = append(remaining, c)
			continue
		}

		existing := model.Joins[idx].Predicate
		if existing.Valid() {
			ref, node := exprs.Alloc()
			node.Kind = sqlast.Operator
			node.Token = "and"
			node.Lhs = existing
			node.Rhs = c
			model.Joins[idx].Predicate = ref
		} else {
			model.Joins[idx].Predicate = c
		}
	}

	model.Where = joinConjuncts(exprs, remaining)
}
