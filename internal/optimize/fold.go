package optimize

import "github.com/crisp-lang/crisp/internal/ir"

// foldConstants recursively evaluates pure binary and unary operations
// whose operands are literals (spec.md §4.8 pass 1). Integer arithmetic
// uses Go's native two's-complement int32 semantics; float arithmetic
// uses Go's native IEEE-754 float32 semantics. Division/modulo by zero is
// deliberately left unfolded so runtime semantics decide (spec.md §9
// "Numeric semantics").
func foldConstants(n *ir.Node) (*ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	rewritten, structChanged := rewriteChildren(n, foldConstants)

	switch rewritten.Kind {
	case ir.KBinaryOp:
		if folded, ok := foldBinary(rewritten); ok {
			return folded, true
		}
	case ir.KUnaryOp:
		if folded, ok := foldUnary(rewritten); ok {
			return folded, true
		}
	}
	return rewritten, structChanged
}

func isLiteral(n *ir.Node) bool {
	return n != nil && n.Kind == ir.KLiteral
}

func foldBinary(n *ir.Node) (*ir.Node, bool) {
	l, r := n.Left, n.Right
	if !isLiteral(l) || !isLiteral(r) {
		return nil, false
	}

	switch n.Operator {
	case "+", "-", "*", "/", "%":
		return foldArithmetic(n, l, r)
	case "<", ">", "<=", ">=", "=", "!=":
		return foldComparison(n, l, r)
	}
	return nil, false
}

func foldArithmetic(n, l, r *ir.Node) (*ir.Node, bool) {
	switch {
	case l.Type == ir.TypeInt && r.Type == ir.TypeInt:
		a, b := l.IntValue, r.IntValue
		var v int32
		switch n.Operator {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return nil, false
			}
			v = a / b
		case "%":
			if b == 0 {
				return nil, false
			}
			v = a % b
		}
		return literalFrom(n, ir.TypeInt, func(out *ir.Node) { out.IntValue = v }), true

	case l.Type == ir.TypeFloat && r.Type == ir.TypeFloat:
		a, b := l.FloatValue, r.FloatValue
		var v float32
		switch n.Operator {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return nil, false
			}
			v = a / b
		case "%":
			return nil, false
		}
		return literalFrom(n, ir.TypeFloat, func(out *ir.Node) { out.FloatValue = v }), true
	}
	return nil, false
}

func foldComparison(n, l, r *ir.Node) (*ir.Node, bool) {
	var result bool
	switch {
	case l.Type == ir.TypeInt && r.Type == ir.TypeInt:
		result = compareOrdered(n.Operator, float64(l.IntValue), float64(r.IntValue))
	case l.Type == ir.TypeFloat && r.Type == ir.TypeFloat:
		result = compareOrdered(n.Operator, float64(l.FloatValue), float64(r.FloatValue))
	case l.Type == ir.TypeBool && r.Type == ir.TypeBool && (n.Operator == "=" || n.Operator == "!="):
		eq := l.BoolValue == r.BoolValue
		result = eq == (n.Operator == "=")
	case l.Type == ir.TypeString && r.Type == ir.TypeString && (n.Operator == "=" || n.Operator == "!="):
		eq := l.StringValue == r.StringValue
		result = eq == (n.Operator == "=")
	case l.Type == ir.TypeNull && r.Type == ir.TypeNull && (n.Operator == "=" || n.Operator == "!="):
		result = n.Operator == "="
	default:
		return nil, false
	}
	return literalFrom(n, ir.TypeBool, func(out *ir.Node) { out.BoolValue = result }), true
}

func compareOrdered(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "=":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

func foldUnary(n *ir.Node) (*ir.Node, bool) {
	operand := n.Operand
	if !isLiteral(operand) {
		return nil, false
	}
	switch n.Operator {
	case "not":
		if operand.Type != ir.TypeBool {
			return nil, false
		}
		return literalFrom(n, ir.TypeBool, func(out *ir.Node) { out.BoolValue = !operand.BoolValue }), true
	case "negate":
		switch operand.Type {
		case ir.TypeInt:
			return literalFrom(n, ir.TypeInt, func(out *ir.Node) { out.IntValue = -operand.IntValue }), true
		case ir.TypeFloat:
			return literalFrom(n, ir.TypeFloat, func(out *ir.Node) { out.FloatValue = -operand.FloatValue }), true
		}
	}
	return nil, false
}

// literalFrom builds a folded Literal that carries the outer expression's
// Id and Origin, per spec.md §4.8's "ids and origins are carried from the
// source node when rewriting preserves semantic identity (e.g., literal
// folding carries the outer expression's id and origin)".
func literalFrom(outer *ir.Node, typ string, set func(*ir.Node)) *ir.Node {
	lit := &ir.Node{Kind: ir.KLiteral, Id: outer.Id, Origin: outer.Origin, Type: typ}
	set(lit)
	return lit
}
