package funcreg

import "github.com/vertsql/vertsql/coltype"

// registerAggregates wires the scalar-over-groups functions spec §6.1
// lists: count, sum, avg, min, max. Their Evaluator is a placeholder
// identity step — the real accumulation happens in the compiler's
// evaluateAggregate (compiler/select.go), which reads each group's
// member rows directly; Bind is used only to learn each call's result
// type.
func registerAggregates(r *Registry) {
	for _, t := range numericTypes {
		t := t
		r.Register("count", Overload{
			ArgTypes: []coltype.Type{t},
			Return:   func([]coltype.Type) coltype.Type { return coltype.Long },
			Build:    func() Evaluator { return identityEvaluator },
		})
		r.Register("sum", Overload{
			ArgTypes: []coltype.Type{t},
			Return:   func(argTypes []coltype.Type) coltype.Type { return widerNumeric(argTypes[0], coltype.Long) },
			Build:    func() Evaluator { return identityEvaluator },
		})
		r.Register("avg", Overload{
			ArgTypes: []coltype.Type{t},
			Return:   func([]coltype.Type) coltype.Type { return coltype.Double },
			Build:    func() Evaluator { return identityEvaluator },
		})
		r.Register("min", Overload{
			ArgTypes: []coltype.Type{t},
			Return:   func(argTypes []coltype.Type) coltype.Type { return argTypes[0] },
			Build:    func() Evaluator { return identityEvaluator },
		})
		r.Register("max", Overload{
			ArgTypes: []coltype.Type{t},
			Return:   func(argTypes []coltype.Type) coltype.Type { return argTypes[0] },
			Build:    func() Evaluator { return identityEvaluator },
		})
	}
}

func identityEvaluator(args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}
