package funcreg

import "github.com/vertsql/vertsql/coltype"

var comparisonTypes = append(append([]coltype.Type{}, numericTypes...),
	coltype.String, coltype.Symbol, coltype.Char, coltype.Boolean, coltype.Date, coltype.Timestamp)

func registerComparison(r *Registry) {
	for _, op := range []string{"=", "<>", "!=", "<", ">", "<=", ">="} {
		op := op
		for _, t := range comparisonTypes {
			t := t
			r.Register(op, Overload{
				ArgTypes: []coltype.Type{t, t},
				Return:   func([]coltype.Type) coltype.Type { return coltype.Boolean },
				Build:    func() Evaluator { return comparisonEvaluator(op) },
			})
			// Numeric operands are also comparable cross-type thanks to
			// widening (spec §3); register every numeric pair explicitly
			// since Overload.matches requires an exact/assignable match
			// per argument, not a shared wider type.
			if _, ok := coltype.NumericRank(t); ok {
				for _, u := range numericTypes {
					u := u
					if u == t {
						continue
					}
					r.Register(op, Overload{
						ArgTypes: []coltype.Type{t, u},
						Return:   func([]coltype.Type) coltype.Type { return coltype.Boolean },
						Build:    func() Evaluator { return comparisonEvaluator(op) },
					})
				}
			}
		}
	}
}

func comparisonEvaluator(op string) Evaluator {
	return func(args []Value) (Value, error) {
		a, b := args[0], args[1]
		if af, aok := asFloat(a); aok {
			bf, _ := asFloat(b)
			return compareFloats(op, af, bf), nil
		}
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return compareStrings(op, as, bs), nil
		}
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if aok && bok {
			return compareBools(op, ab, bb), nil
		}
		return false, nil
	}
}

func asFloat(v Value) (float64, bool) {
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

func compareFloats(op string, a, b float64) bool {
	switch op {
	case "=":
		return a == b
	case "<>", "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func compareStrings(op string, a, b string) bool {
	switch op {
	case "=":
		return a == b
	case "<>", "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func compareBools(op string, a, b bool) bool {
	switch op {
	case "=":
		return a == b
	case "<>", "!=":
		return a != b
	default:
		return false
	}
}
