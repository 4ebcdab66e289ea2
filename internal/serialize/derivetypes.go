package serialize

import "github.com/crisp-lang/crisp/internal/ir"

var comparisonOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "=": true, "!=": true,
}

// deriveTypes fills in the Type field for node kinds the serializer omits
// :type from — every statement/control kind always carries BtStatus
// (spec.md §4.7's node-to-IR rules), and BinaryOp/UnaryOp/LogicOp/Convert
// are mechanically recomputable from their already-typed children using
// the same rules AST→IR lowering applies (internal/ir/lower.go), so
// reserializing the result byte-matches the original without ever writing
// a redundant :type suffix the example in spec.md §6 doesn't show either.
func deriveTypes(n *ir.Node) {
	if n == nil {
		return
	}
	deriveTypes(n.Cond)
	deriveTypes(n.Body)
	deriveTypes(n.Then)
	deriveTypes(n.Else)
	deriveTypes(n.Target)
	deriveTypes(n.Left)
	deriveTypes(n.Right)
	deriveTypes(n.Operand)
	for _, c := range n.Children {
		deriveTypes(c)
	}
	for _, o := range n.Operands {
		deriveTypes(o)
	}
	for _, a := range n.Args {
		deriveTypes(a)
	}

	switch n.Kind {
	case ir.KConvert:
		n.Type = n.ToType
	case ir.KBinaryOp:
		switch {
		case comparisonOps[n.Operator]:
			n.Type = ir.TypeBool
		case n.Left != nil:
			n.Type = n.Left.Type
		default:
			n.Type = ir.TypeUnknown
		}
	case ir.KUnaryOp:
		switch {
		case n.Operator == "not":
			n.Type = ir.TypeBool
		case n.Operand != nil:
			n.Type = n.Operand.Type
		default:
			n.Type = ir.TypeUnknown
		}
	case ir.KLogicOp:
		n.Type = ir.TypeBool
	case ir.KSelector, ir.KSequence, ir.KParallel, ir.KGuard, ir.KIf, ir.KInvert,
		ir.KRepeat, ir.KTimeout, ir.KCooldown, ir.KWhile, ir.KReactive,
		ir.KReactiveSelect, ir.KTreeRef, ir.KCondition, ir.KTree:
		n.Type = ir.TypeBtStatus
	}
}
