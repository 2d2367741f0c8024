package funcreg

import (
	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/sqlerr"
)

// BindCast resolves a CAST(expr AS typeName) node (spec §4.5 step 4).
// The target type name arrives as a string because the parser stashes
// it as a synthetic Constant rather than threading a side channel
// through sqlast.ExpressionNode (see sqlparser.parseCast). Cast
// legality follows coltype's cast-group rule, not IsAssignable: a
// CAST is an explicit request to convert, so narrowing and truncating
// conversions within the same group are allowed, and rowcopy's
// conversion table supplies the actual runtime behavior.
func (r *Registry) BindCast(operand coltype.Type, typeName string, position int) (Bound, error) {
	target, ok := coltype.ParseName(typeName)
	if !ok {
		return Bound{}, sqlerr.SemanticAt(position, "invalid CAST target type %q", typeName)
	}
	if !coltype.CastCompatible(operand, target) {
		return Bound{}, sqlerr.SemanticAt(position, "cannot CAST %s to %s: incompatible types", operand, target)
	}
	return Bound{
		Name:     "cast",
		ArgTypes: []coltype.Type{operand},
		Return:   target,
		Evaluate: func(args []Value) (Value, error) { return args[0], nil },
	}, nil
}
