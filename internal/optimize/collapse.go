package optimize

import "github.com/crisp-lang/crisp/internal/ir"

// collapseSingleChild implements spec.md §4.8 pass 3: a Selector or
// Sequence with exactly one child is replaced by that child; a double
// Invert(Invert(x)) is replaced by x.
func collapseSingleChild(n *ir.Node) (*ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	rewritten, structChanged := rewriteChildren(n, collapseSingleChild)

	switch rewritten.Kind {
	case ir.KSelector, ir.KSequence:
		if len(rewritten.Children) == 1 {
			return rewritten.Children[0], true
		}
	case ir.KInvert:
		if rewritten.Target != nil && rewritten.Target.Kind == ir.KInvert {
			return rewritten.Target.Target, true
		}
	}
	return rewritten, structChanged
}
