package optimizer

import (
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// reorderJoins topologically sorts model's join list so that every
// join's ON predicate only reaches sources already in scope (the base
// table plus earlier joins), the way the code generator's nested-loop
// plan expects to consume them (spec §4 "RecordCursorFactory"). A join
// whose predicate can't be resolved against anything already in scope
// (a cross join, or one this pass can't prove references an in-scope
// alias) keeps its original relative position.
//
// This mirrors the three-color DFS the teacher uses to order DDLs by
// dependency (schema/tsort.go's topologicalSort), specialised to a
// small, already-mostly-ordered list instead of a generic worklist.
func reorderJoins(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) error {
	if len(model.Joins) < 2 {
		return nil
	}

	base := sourceName(model)
	names := make([]string, len(model.Joins))
	deps := make(map[string][]string, len(model.Joins))
	byName := make(map[string]int, len(model.Joins))

	for i, j := range model.Joins {
		name := sourceName(j.Model)
		if name == "" {
			name = placeholderName(i)
		}
		names[i] = name
		byName[name] = i

		refs := map[string]bool{}
		collectAliases(exprs, j.Predicate, refs)
		delete(refs, base)
		delete(refs, name)
		delete(refs, unqualifiedMarker)
		delete(refs, subqueryMarker)
		for dep := range refs {
			deps[name] = append(deps[name], dep)
		}
	}

	order, ok := topologicalSortJoinNames(names, deps)
	if !ok {
		// Circular join dependency: leave the original order for the
		// code generator to fail on with a clearer, execution-time error.
		return nil
	}

	reordered := make([]sqlast.JoinClause, len(model.Joins))
	for i, name := range order {
		idx, found := byName[name]
		if !found {
			return sqlerr.New(sqlerr.Internal, 0, "optimizer: join reorder lost track of %q", name)
		}
		reordered[i] = model.Joins[idx]
	}
	model.Joins = reordered
	return nil
}

func placeholderName(i int) string {
	return "\x00join" + string(rune('0'+i))
}

// topologicalSortJoinNames orders names so every entry's deps (that are
// themselves in names) precede it, using the teacher's three-color DFS
// cycle check. ok is false on a circular dependency.
func topologicalSortJoinNames(names []string, deps map[string][]string) (order []string, ok bool) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) bool
	visit = func(n string) bool {
		if visiting[n] {
			return false
		}
		if visited[n] {
			return true
		}
		visiting[n] = true
		for _, dep := range deps[n] {
			if present[dep] && !visit(dep) {
				return false
			}
		}
		visiting[n] = false
		visited[n] = true
		order = append(order, n)
		return true
	}

	for _, n := range names {
		if !visited[n] {
			if !visit(n) {
				return nil, false
			}
		}
	}
	return order, true
}
