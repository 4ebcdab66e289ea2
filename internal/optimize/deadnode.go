package optimize

import "github.com/crisp-lang/crisp/internal/ir"

// eliminateDeadNodes implements spec.md §4.8 pass 2: inside an
// IrSequence, a Condition(Literal false) child short-circuits everything
// after it; inside an IrSelector, a Condition(Literal true) child does
// the same. Nested composites get the same treatment via the recursive
// rewriteChildren call before this node's own children are scanned.
func eliminateDeadNodes(n *ir.Node) (*ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	rewritten, structChanged := rewriteChildren(n, eliminateDeadNodes)

	switch rewritten.Kind {
	case ir.KSequence:
		if kept, ok := truncateAfterShortCircuit(rewritten.Children, false); ok {
			clone := *rewritten
			clone.Children = kept
			return &clone, true
		}
	case ir.KSelector:
		if kept, ok := truncateAfterShortCircuit(rewritten.Children, true); ok {
			clone := *rewritten
			clone.Children = kept
			return &clone, true
		}
	}
	return rewritten, structChanged
}

func isConditionLiteralBool(n *ir.Node, value bool) bool {
	return n != nil && n.Kind == ir.KCondition &&
		n.Cond != nil && n.Cond.Kind == ir.KLiteral &&
		n.Cond.Type == ir.TypeBool && n.Cond.BoolValue == value
}

func truncateAfterShortCircuit(children []*ir.Node, shortCircuitValue bool) ([]*ir.Node, bool) {
	for i, c := range children {
		if isConditionLiteralBool(c, shortCircuitValue) {
			if i+1 == len(children) {
				return children, false
			}
			return children[:i+1], true
		}
	}
	return children, false
}
