// Package optimizer rewrites a parsed sqlast.QueryModel into an
// equivalent, cheaper-to-execute shape before codegen builds the
// RecordCursorFactory tree (spec §2 "Optimiser"). Passes are rule-based
// rewrites over the AST, in the style of the teacher's GenerateIdempotentDDLs
// pipeline (schema/generator.go): each pass is a small, named, total
// function from model to model, run in a fixed order by Optimize.
//
// No pass here resolves column references against real table structure;
// that happens once, during funcreg/codegen binding, where the actual
// schema is available. Everything in this package is schema-agnostic
// AST surgery: join reordering, predicate push-down, and trivial
// sub-query inlining.
package optimizer

import (
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
)

// Optimizer applies the fixed rewrite pipeline to one QueryModel tree.
// It is stateless and safe to reuse across compiles; the Compiler keeps
// one instance alongside its pools (spec §5: single-threaded Compiler).
type Optimizer struct{}

// New builds an Optimizer.
func New() *Optimizer {
	return &Optimizer{}
}

// Optimize rewrites model and every nested sub-query/join source it
// reaches, returning the (possibly different) root model. exprs is the
// same expression arena the parser allocated model's nodes from; passes
// that synthesize new AND-conjunctions allocate from it too.
func (o *Optimizer) Optimize(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) (*sqlast.QueryModel, error) {
	if model == nil {
		return nil, nil
	}

	model = inlineTrivialSubqueries(model, exprs)

	for i := range model.Joins {
		rewritten, err := o.Optimize(model.Joins[i].Model, exprs)
		if err != nil {
			return nil, err
		}
		model.Joins[i].Model = rewritten
	}
	if model.SubQuery != nil {
		rewritten, err := o.Optimize(model.SubQuery, exprs)
		if err != nil {
			return nil, err
		}
		model.SubQuery = rewritten
	}

	if err := reorderJoins(model, exprs); err != nil {
		return nil, err
	}
	pushDownPredicates(model, exprs)

	return model, nil
}
