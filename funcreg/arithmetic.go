package funcreg

import "github.com/vertsql/vertsql/coltype"

var numericTypes = []coltype.Type{
	coltype.Byte, coltype.Short, coltype.Int, coltype.Long, coltype.Float, coltype.Double,
}

// widerNumeric returns whichever of a, b ranks higher in the
// BYTE..DOUBLE widening chain (spec §3 "numeric widening").
func widerNumeric(a, b coltype.Type) coltype.Type {
	ra, aok := coltype.NumericRank(a)
	rb, bok := coltype.NumericRank(b)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	if ra >= rb {
		return a
	}
	return b
}

func registerArithmetic(r *Registry) {
	for _, op := range []string{"+", "-", "*", "/", "%", "neg"} {
		op := op
		for _, lt := range numericTypes {
			for _, rt := range numericTypes {
				lt, rt := lt, rt
				args := []coltype.Type{lt, rt}
				if op == "neg" {
					args = []coltype.Type{lt}
				}
				r.Register(op, Overload{
					ArgTypes: args,
					Return: func(argTypes []coltype.Type) coltype.Type {
						if len(argTypes) == 1 {
							return argTypes[0]
						}
						return widerNumeric(argTypes[0], argTypes[1])
					},
					Build: func() Evaluator {
						return arithmeticEvaluator(op)
					},
				})
			}
		}
	}
}

func arithmeticEvaluator(op string) Evaluator {
	return func(args []Value) (Value, error) {
		if op == "neg" {
			return negate(args[0]), nil
		}
		a, b := toFloat64(args[0]), toFloat64(args[1])
		switch op {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		case "*":
			return a * b, nil
		case "/":
			return a / b, nil
		case "%":
			return float64(int64(a) % int64(b)), nil
		}
		return nil, nil
	}
}

func negate(v Value) Value {
	return -toFloat64(v)
}

func toFloat64(v Value) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int16:
		return float64(n)
	case int8:
		return float64(n)
	case uint8:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
