package optimize

import "github.com/crisp-lang/crisp/internal/ir"

// fuseConverts implements spec.md §4.8 pass 4: Convert(Convert(x, T), T)
// collapses to Convert(x, T); Convert(Literal(v, Int), Float) becomes
// Literal(v as Float, Float). The only lossless literal pair the
// lowering ever produces a Convert for is Int→Float (spec.md §4.7's
// numeric unification never wraps a Float operand), so that is the one
// literal fusion implemented here; see DESIGN.md for the sibling pairs
// spec.md's "symmetrically" leaves unspecified.
func fuseConverts(n *ir.Node) (*ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	rewritten, structChanged := rewriteChildren(n, fuseConverts)

	if rewritten.Kind != ir.KConvert || rewritten.Operand == nil {
		return rewritten, structChanged
	}
	inner := rewritten.Operand

	if inner.Kind == ir.KConvert && inner.ToType == rewritten.ToType {
		clone := *rewritten
		clone.Operand = inner.Operand
		return &clone, true
	}

	if inner.Kind == ir.KLiteral && inner.Type == ir.TypeInt && rewritten.ToType == ir.TypeFloat {
		lit := &ir.Node{
			Kind: ir.KLiteral, Id: rewritten.Id, Origin: rewritten.Origin,
			Type: ir.TypeFloat, FloatValue: float32(inner.IntValue),
		}
		return lit, true
	}

	return rewritten, structChanged
}
