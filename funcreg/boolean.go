package funcreg

import "github.com/vertsql/vertsql/coltype"

func registerBoolean(r *Registry) {
	r.Register("and", Overload{
		ArgTypes: []coltype.Type{coltype.Boolean, coltype.Boolean},
		Return:   func([]coltype.Type) coltype.Type { return coltype.Boolean },
		Build: func() Evaluator {
			return func(args []Value) (Value, error) {
				return asBool(args[0]) && asBool(args[1]), nil
			}
		},
	})
	r.Register("or", Overload{
		ArgTypes: []coltype.Type{coltype.Boolean, coltype.Boolean},
		Return:   func([]coltype.Type) coltype.Type { return coltype.Boolean },
		Build: func() Evaluator {
			return func(args []Value) (Value, error) {
				return asBool(args[0]) || asBool(args[1]), nil
			}
		},
	})
	r.Register("not", Overload{
		ArgTypes: []coltype.Type{coltype.Boolean},
		Return:   func([]coltype.Type) coltype.Type { return coltype.Boolean },
		Build: func() Evaluator {
			return func(args []Value) (Value, error) {
				return !asBool(args[0]), nil
			}
		},
	})
}

func asBool(v Value) bool {
	b, _ := v.(bool)
	return b
}
