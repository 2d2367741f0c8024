// Package funcreg binds each Function/Operator ExpressionNode produced
// by sqlparser to a concrete overload: an argument-type signature and a
// return coltype.Type (spec §2 "Function binding"). The compiler calls
// Bind both to infer a call's static return type and, for every
// evaluated row, to obtain the Evaluator it runs.
//
// The registry itself is a name -> overload-list map populated by
// Register/init, the same pattern the database/sql package (and this
// dialect's teacher, which leans on it for every driver) uses to look
// up a driver by the name passed to sql.Open.
package funcreg

import (
	"fmt"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/sqlerr"
)

// Value is the runtime representation an Evaluator consumes and
// produces. It is deliberately engine-agnostic: codegen adapts a
// Row's typed getters into Values when wiring an Evaluator into a
// RecordCursorFactory, so this package never imports engine.
type Value = any

// Evaluator computes one function/operator call given its already-
// evaluated arguments.
type Evaluator func(args []Value) (Value, error)

// Overload is one concrete signature a function/operator name may
// resolve to.
type Overload struct {
	ArgTypes []coltype.Type
	Variadic bool // true if the last ArgTypes entry repeats 0+ times
	Return   func(args []coltype.Type) coltype.Type
	Build    func() Evaluator
}

func (o Overload) matches(argTypes []coltype.Type) bool {
	if o.Variadic {
		if len(argTypes) < len(o.ArgTypes)-1 {
			return false
		}
	} else if len(argTypes) != len(o.ArgTypes) {
		return false
	}
	for i, at := range argTypes {
		want := o.ArgTypes[i]
		if o.Variadic && i >= len(o.ArgTypes)-1 {
			want = o.ArgTypes[len(o.ArgTypes)-1]
		}
		if !coltype.IsAssignable(want, at) {
			return false
		}
	}
	return true
}

// Bound is the resolved output of Registry.Bind: the overload funcreg
// picked for a call, plus its computed return type.
type Bound struct {
	Name     string
	ArgTypes []coltype.Type
	Return   coltype.Type
	Evaluate Evaluator
}

// Registry holds every known function/operator name's overload set.
// A Registry is built once at process start and is safe for concurrent
// read-only use across compiles.
type Registry struct {
	byName map[string][]Overload
}

// New builds a Registry preloaded with the built-in operators and
// functions (arithmetic, comparison, boolean, cast, and the aggregate
// and scalar functions spec §6.1 requires: count, sum, avg, min, max).
func New() *Registry {
	r := &Registry{byName: make(map[string][]Overload)}
	registerArithmetic(r)
	registerComparison(r)
	registerBoolean(r)
	registerAggregates(r)
	return r
}

// Register adds an overload under name. Panics on an empty name, since
// this only ever runs at init time from this package's own
// registration functions.
func (r *Registry) Register(name string, o Overload) {
	if name == "" {
		panic("funcreg: empty function name")
	}
	r.byName[name] = append(r.byName[name], o)
}

// Bind resolves name against argTypes, returning the first matching
// overload. position is carried into the SemanticError so the compiler
// can report where in the source the unresolvable call was written.
func (r *Registry) Bind(name string, argTypes []coltype.Type, position int) (Bound, error) {
	overloads, ok := r.byName[name]
	if !ok {
		return Bound{}, sqlerr.SemanticAt(position, "unknown function or operator %q", name)
	}
	for _, o := range overloads {
		if o.matches(argTypes) {
			return Bound{
				Name:     name,
				ArgTypes: argTypes,
				Return:   o.Return(argTypes),
				Evaluate: o.Build(),
			}, nil
		}
	}
	return Bound{}, sqlerr.SemanticAt(position, "no overload of %q matches argument types %s", name, fmt.Sprint(argTypes))
}

// BindCountStar resolves the `count(*)` form, which has no real
// argument type to match an Overload against (codegen recognizes the
// literal "*" argument node and calls this instead of Bind).
func (r *Registry) BindCountStar(position int) Bound {
	return Bound{Name: "count", Return: coltype.Long, Evaluate: func(args []Value) (Value, error) {
		return int64(1), nil
	}}
}

// Has reports whether name has at least one registered overload,
// letting the optimiser/parser distinguish a function call from a bare
// identifier without needing a full Bind.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}
