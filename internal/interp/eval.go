package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/crisp-lang/crisp/internal/ir"
)

// Value is an evaluated expression result: its dynamic payload plus the
// IR TypeRef it carries, mirroring the teacher's tagged-union
// bytecode.Value{Data, Type} pattern (internal/bytecode) that the rest of
// this compiler's own Node types already follow.
type Value struct {
	Data any
	Type string
}

func intVal(v int32) Value   { return Value{Data: v, Type: ir.TypeInt} }
func floatVal(v float32) Value { return Value{Data: v, Type: ir.TypeFloat} }
func boolVal(v bool) Value   { return Value{Data: v, Type: ir.TypeBool} }

func asFloat(v Value) float32 {
	switch d := v.Data.(type) {
	case float32:
		return d
	case int32:
		return float32(d)
	default:
		return 0
	}
}

// eval evaluates an IR expression node against the host context and
// optional blackboard (spec.md §4.11's "Member access" and the operator
// semantics implied by the IR node kinds BinaryOp/UnaryOp/LogicOp/Convert).
func (it *Interpreter) eval(n *ir.Node, ctx, bb any) (Value, error) {
	switch n.Kind {
	case ir.KLiteral:
		return evalLiteral(n), nil

	case ir.KMemberLoad:
		v, ok := lookupChain(ctx, n.Chain)
		if !ok {
			return Value{}, missingMemberError(n.Id, strings.Join(n.Chain, "."))
		}
		return Value{Data: v, Type: n.Type}, nil

	case ir.KBlackboardLoad:
		v, ok := lookupChain(bb, n.Chain)
		if !ok {
			return Value{}, missingMemberError(n.Id, strings.Join(n.Chain, "."))
		}
		return Value{Data: v, Type: n.Type}, nil

	case ir.KBinaryOp:
		l, err := it.eval(n.Left, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		r, err := it.eval(n.Right, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		return evalBinary(n.Operator, l, r)

	case ir.KUnaryOp:
		v, err := it.eval(n.Operand, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		return evalUnary(n.Operator, v)

	case ir.KLogicOp:
		return it.evalLogic(n, ctx, bb)

	case ir.KConvert:
		v, err := it.eval(n.Operand, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		return evalConvert(n, v), nil

	case ir.KCall:
		result, err := it.invokeMember(n, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		return Value{Data: result, Type: n.Type}, nil

	default:
		return Value{}, fmt.Errorf("interp: unsupported expression kind %d", n.Kind)
	}
}

// evalCond evaluates a Condition/Guard/If/While/Reactive test expression.
// Non-bool conditions are a semantic error caught by an earlier,
// out-of-scope pass (spec.md §4.11); the interpreter trusts the IR here.
func (it *Interpreter) evalCond(n *ir.Node, ctx, bb any) (bool, error) {
	v, err := it.eval(n, ctx, bb)
	if err != nil {
		return false, err
	}
	b, _ := v.Data.(bool)
	return b, nil
}

func evalLiteral(n *ir.Node) Value {
	switch n.Type {
	case ir.TypeInt:
		return intVal(n.IntValue)
	case ir.TypeFloat:
		return floatVal(n.FloatValue)
	case ir.TypeBool:
		return boolVal(n.BoolValue)
	case ir.TypeString:
		return Value{Data: n.StringValue, Type: ir.TypeString}
	case ir.TypeNull:
		return Value{Data: nil, Type: ir.TypeNull}
	default:
		// An enum literal: n.Type holds "unknown" pre-host-binding, so the
		// enum's own type name is the more useful Value.Type here.
		return Value{Data: n.EnumMember, Type: n.EnumType}
	}
}

// evalConvert applies the only conversion AST→IR lowering ever inserts
// (internal/optimize's Convert-fusion doc comment notes the same fact):
// Int widened to Float. Any other pairing passes the operand through
// unchanged rather than guessing at a conversion rule spec.md doesn't give.
func evalConvert(n *ir.Node, v Value) Value {
	if n.ToType == ir.TypeFloat && v.Type == ir.TypeInt {
		return floatVal(asFloat(v))
	}
	return v
}

func evalUnary(op string, v Value) (Value, error) {
	switch op {
	case "not":
		b, _ := v.Data.(bool)
		return boolVal(!b), nil
	case "negate":
		if v.Type == ir.TypeInt {
			return intVal(-v.Data.(int32)), nil
		}
		return floatVal(-asFloat(v)), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown unary operator %q", op)
	}
}

func (it *Interpreter) evalLogic(n *ir.Node, ctx, bb any) (Value, error) {
	isOr := n.Operator == "or"
	for _, o := range n.Operands {
		v, err := it.eval(o, ctx, bb)
		if err != nil {
			return Value{}, err
		}
		b, _ := v.Data.(bool)
		if isOr == b {
			return boolVal(b), nil
		}
	}
	return boolVal(!isOr), nil
}

func evalBinary(op string, l, r Value) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		return evalArith(op, l, r)
	case "<", ">", "<=", ">=":
		return evalOrder(op, l, r)
	case "=", "!=":
		eq := valuesEqual(l, r)
		if op == "!=" {
			eq = !eq
		}
		return boolVal(eq), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown binary operator %q", op)
	}
}

func evalArith(op string, l, r Value) (Value, error) {
	if l.Type == ir.TypeInt && r.Type == ir.TypeInt {
		li, ri := l.Data.(int32), r.Data.(int32)
		switch op {
		case "+":
			return intVal(li + ri), nil
		case "-":
			return intVal(li - ri), nil
		case "*":
			return intVal(li * ri), nil
		case "/":
			if ri == 0 {
				return Value{}, fmt.Errorf("interp: integer division by zero")
			}
			return intVal(li / ri), nil
		case "%":
			if ri == 0 {
				return Value{}, fmt.Errorf("interp: integer modulo by zero")
			}
			return intVal(li % ri), nil
		}
	}
	lf, rf := asFloat(l), asFloat(r)
	switch op {
	case "+":
		return floatVal(lf + rf), nil
	case "-":
		return floatVal(lf - rf), nil
	case "*":
		return floatVal(lf * rf), nil
	case "/":
		return floatVal(lf / rf), nil
	case "%":
		return floatVal(float32(math.Mod(float64(lf), float64(rf)))), nil
	}
	return Value{}, fmt.Errorf("interp: unknown arithmetic operator %q", op)
}

func evalOrder(op string, l, r Value) (Value, error) {
	var cmp int
	if l.Type == ir.TypeInt && r.Type == ir.TypeInt {
		li, ri := l.Data.(int32), r.Data.(int32)
		switch {
		case li < ri:
			cmp = -1
		case li > ri:
			cmp = 1
		}
	} else {
		lf, rf := asFloat(l), asFloat(r)
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	}
	switch op {
	case "<":
		return boolVal(cmp < 0), nil
	case ">":
		return boolVal(cmp > 0), nil
	case "<=":
		return boolVal(cmp <= 0), nil
	case ">=":
		return boolVal(cmp >= 0), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown comparison operator %q", op)
	}
}

func valuesEqual(l, r Value) bool {
	if (l.Type == ir.TypeInt || l.Type == ir.TypeFloat) && (r.Type == ir.TypeInt || r.Type == ir.TypeFloat) {
		if l.Type == ir.TypeInt && r.Type == ir.TypeInt {
			return l.Data.(int32) == r.Data.(int32)
		}
		return asFloat(l) == asFloat(r)
	}
	if l.Type == ir.TypeNull || r.Type == ir.TypeNull {
		return l.Type == r.Type
	}
	return l.Data == r.Data
}
