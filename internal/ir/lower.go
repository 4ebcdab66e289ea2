package ir

import (
	"strings"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/diag"
)

// Lower produces one IR tree per AST tree (spec.md §4.7), assigning types
// and inserting IrConvert nodes where numeric operand types differ, then
// assigns pre-order, monotonically increasing Ids over each finished tree.
func Lower(trees []*ast.Node, bag *diag.Bag) []*Node {
	out := make([]*Node, len(trees))
	for i, t := range trees {
		l := &lowerer{bag: bag}
		root := &Node{Kind: KTree, Name: t.Name, Origin: t, Type: TypeBtStatus}
		root.Body = l.lowerNode(t.Body)
		assignIds(root)
		out[i] = root
	}
	return out
}

type lowerer struct {
	bag *diag.Bag
}

func (l *lowerer) unexpanded(origin *ast.Node, what string) *Node {
	l.bag.Add("BS0036", origin.Span(), what)
	return &Node{Kind: KLiteral, Origin: origin, Type: TypeUnknown, IsNull: true}
}

// lowerNode lowers an AST node occupying node (tick-able) position: a
// Selector/Sequence/Parallel child, a Guard/While/Reactive/Repeat/Timeout/
// Cooldown/If body slot, or a tree body.
func (l *lowerer) lowerNode(n *ast.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KSelector:
		return &Node{Kind: KSelector, Origin: n, Type: TypeBtStatus, Children: l.lowerNodeList(n.Children)}
	case ast.KSequence:
		return &Node{Kind: KSequence, Origin: n, Type: TypeBtStatus, Children: l.lowerNodeList(n.Children)}
	case ast.KReactiveSelect:
		return &Node{Kind: KReactiveSelect, Origin: n, Type: TypeBtStatus, Children: l.lowerNodeList(n.Children)}
	case ast.KParallel:
		return &Node{
			Kind: KParallel, Origin: n, Type: TypeBtStatus,
			Policy: n.Policy, PolicyN: n.PolicyN,
			Children: l.lowerNodeList(n.Children),
		}
	case ast.KCheck:
		return &Node{Kind: KCondition, Origin: n, Type: TypeBtStatus, Cond: l.lowerExpr(n.Cond)}
	case ast.KGuard:
		return &Node{Kind: KGuard, Origin: n, Type: TypeBtStatus, Cond: l.lowerExpr(n.Cond), Body: l.lowerNode(n.Body)}
	case ast.KWhile:
		return &Node{Kind: KWhile, Origin: n, Type: TypeBtStatus, Cond: l.lowerExpr(n.Cond), Body: l.lowerNode(n.Body)}
	case ast.KReactive:
		return &Node{Kind: KReactive, Origin: n, Type: TypeBtStatus, Cond: l.lowerExpr(n.Cond), Body: l.lowerNode(n.Body)}
	case ast.KIf:
		return &Node{
			Kind: KIf, Origin: n, Type: TypeBtStatus,
			Cond: l.lowerExpr(n.Cond), Then: l.lowerNode(n.Then), Else: l.lowerNode(n.Else),
		}
	case ast.KInvert:
		return &Node{Kind: KInvert, Origin: n, Type: TypeBtStatus, Target: l.lowerNode(n.Target)}
	case ast.KRepeat:
		if n.CountExpr != nil {
			return l.unexpanded(n, "repeat count parameter")
		}
		return &Node{Kind: KRepeat, Origin: n, Type: TypeBtStatus, Count: n.Count, Body: l.lowerNode(n.Body)}
	case ast.KTimeout:
		if n.DurationExpr != nil {
			return l.unexpanded(n, "timeout duration parameter")
		}
		return &Node{Kind: KTimeout, Origin: n, Type: TypeBtStatus, Seconds: n.Seconds, Body: l.lowerNode(n.Body)}
	case ast.KCooldown:
		if n.DurationExpr != nil {
			return l.unexpanded(n, "cooldown duration parameter")
		}
		return &Node{Kind: KCooldown, Origin: n, Type: TypeBtStatus, Seconds: n.Seconds, Body: l.lowerNode(n.Body)}
	case ast.KRef:
		name := n.RefName
		if n.ResolvedTree != nil {
			name = n.ResolvedTree.Name
		}
		return &Node{Kind: KTreeRef, Origin: n, Type: TypeBtStatus, Name: name}
	case ast.KActionCall:
		declType, member := splitMemberPath(n.Path)
		return &Node{
			Kind: KAction, Origin: n, Type: TypeBtStatus,
			DeclaringType: declType, MemberName: member, Args: l.lowerExprList(n.Args),
		}
	case ast.KDefdecCall:
		return l.unexpanded(n, "unresolved decorator/macro call \""+n.Name+"\"")
	case ast.KBodyPlaceholder:
		return l.unexpanded(n, "body placeholder")
	case ast.KParamRef:
		return l.unexpanded(n, "parameter \""+n.Name+"\"")
	default:
		return l.unexpanded(n, "unsupported node-position form")
	}
}

func (l *lowerer) lowerNodeList(list []*ast.Node) []*Node {
	if list == nil {
		return nil
	}
	out := make([]*Node, 0, len(list))
	for _, c := range list {
		if lc := l.lowerNode(c); lc != nil {
			out = append(out, lc)
		}
	}
	return out
}

// lowerExpr lowers an AST node occupying expression position, assigning
// each resulting node its TypeRef per spec.md §4.7's inference rules.
func (l *lowerer) lowerExpr(n *ast.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KIntLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: TypeInt, IntValue: n.IntValue}
	case ast.KFloatLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: TypeFloat, FloatValue: n.FloatValue}
	case ast.KStringLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: TypeString, StringValue: n.StringValue}
	case ast.KBoolLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: TypeBool, BoolValue: n.BoolValue}
	case ast.KNullLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: TypeNull, IsNull: true}
	case ast.KEnumLiteral:
		return &Node{Kind: KLiteral, Origin: n, Type: n.EnumType, EnumType: n.EnumType, EnumMember: n.EnumMember}
	case ast.KMemberAccess:
		return &Node{Kind: KMemberLoad, Origin: n, Type: TypeUnknown, Chain: splitPath(n.Path)}
	case ast.KBlackboardAccess:
		return &Node{Kind: KBlackboardLoad, Origin: n, Type: TypeUnknown, Chain: splitPath(n.Path)}
	case ast.KCallExpr:
		declType, member := splitMemberPath(n.Path)
		return &Node{
			Kind: KCall, Origin: n, Type: TypeUnknown,
			DeclaringType: declType, MemberName: member, Args: l.lowerExprList(n.Args),
		}
	case ast.KDefdecCall:
		return l.unexpanded(n, "unresolved decorator/macro call \""+n.Name+"\"")
	case ast.KBinaryExpr:
		return l.lowerBinary(n)
	case ast.KUnaryExpr:
		return l.lowerUnary(n)
	case ast.KLogicExpr:
		return l.lowerLogic(n)
	case ast.KParamRef:
		return l.unexpanded(n, "parameter \""+n.Name+"\"")
	case ast.KBodyPlaceholder:
		return l.unexpanded(n, "body placeholder")
	default:
		return l.unexpanded(n, "unsupported expression-position form")
	}
}

func (l *lowerer) lowerExprList(list []*ast.Node) []*Node {
	if list == nil {
		return nil
	}
	out := make([]*Node, 0, len(list))
	for _, a := range list {
		if la := l.lowerExpr(a); la != nil {
			out = append(out, la)
		}
	}
	return out
}

var comparisonOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "=": true, "!=": true,
}

// lowerBinary applies spec.md §4.7's numeric unification: an {Int, Float}
// operand pair gets its Int side wrapped in IrConvert(_, Float); same-type
// or unknown operands are left alone. The outer type is Bool for
// comparisons, or the common numeric type (post-unification, the left
// operand's type) for arithmetic.
func (l *lowerer) lowerBinary(n *ast.Node) *Node {
	left := l.lowerExpr(n.Left)
	right := l.lowerExpr(n.Right)
	left, right = unifyNumeric(left, right)

	result := &Node{Kind: KBinaryOp, Origin: n, Operator: n.Operator, Left: left, Right: right}
	if comparisonOps[n.Operator] {
		result.Type = TypeBool
	} else if left != nil {
		result.Type = left.Type
	} else {
		result.Type = TypeUnknown
	}
	return result
}

func unifyNumeric(left, right *Node) (*Node, *Node) {
	if left == nil || right == nil {
		return left, right
	}
	if left.Type == TypeInt && right.Type == TypeFloat {
		return convert(left, TypeFloat), right
	}
	if left.Type == TypeFloat && right.Type == TypeInt {
		return left, convert(right, TypeFloat)
	}
	return left, right
}

func convert(operand *Node, to string) *Node {
	return &Node{Kind: KConvert, Origin: operand.Origin, Type: to, ToType: to, Operand: operand}
}

// lowerUnary: Not produces Bool; Negate keeps the operand's own type.
func (l *lowerer) lowerUnary(n *ast.Node) *Node {
	operand := l.lowerExpr(n.Operand)
	result := &Node{Kind: KUnaryOp, Origin: n, Operator: n.Operator, Operand: operand}
	if n.Operator == "not" {
		result.Type = TypeBool
	} else if operand != nil {
		result.Type = operand.Type
	} else {
		result.Type = TypeUnknown
	}
	return result
}

func (l *lowerer) lowerLogic(n *ast.Node) *Node {
	return &Node{
		Kind: KLogicOp, Origin: n, Type: TypeBool, Operator: n.Operator,
		Operands: l.lowerExprList(n.Operands),
	}
}

// splitMemberPath implements spec.md §4.7's Action/Call DeclaringType
// rule: a single-segment path declares on "this"; a multi-segment path's
// first segment is the declaring type and the remainder the member name.
func splitMemberPath(path string) (declaringType, memberName string) {
	segs := splitPath(path)
	if len(segs) <= 1 {
		if len(segs) == 1 {
			return "this", segs[0]
		}
		return "this", ""
	}
	return segs[0], strings.Join(segs[1:], ".")
}

func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

// assignIds walks root pre-order, assigning each node a monotonically
// increasing Id starting from 0 (spec.md §4.7 "Id assignment"), as a
// distinct final step over the fully-built, fully-converted tree so that
// inserted IrConvert nodes participate in the same numbering as everything
// else.
// AssignIds re-numbers a tree's ids pre-order (spec.md §4.7 "Id
// assignment"). Exported so the deserializer can restore stable ids on a
// tree rebuilt from text, since serialized form carries no :id field.
func AssignIds(root *Node) {
	assignIds(root)
}

func assignIds(root *Node) {
	next := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		n.Id = next
		next++
		for _, c := range n.Children {
			walk(c)
		}
		for _, o := range n.Operands {
			walk(o)
		}
		walk(n.Cond)
		walk(n.Body)
		walk(n.Then)
		walk(n.Else)
		walk(n.Target)
		walk(n.Left)
		walk(n.Right)
		walk(n.Operand)
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(root)
}
