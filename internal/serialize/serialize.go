// Package serialize implements the IR's textual S-expression form and its
// inverse (spec.md §4.9): a symmetric, tag-per-kind printer and a reader
// built on the same token.Kind vocabulary the surface lexer already uses,
// since the serialized form is itself an S-expression dialect.
package serialize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/ir"
)

// Serialize renders a single IR tree as canonical S-expression text
// (spec.md §4.9). The output is a pure function of the tree: no map
// iteration or nondeterministic ordering, so repeated calls on an
// unchanged tree are byte-identical.
func Serialize(n *ir.Node) string {
	return render(n, 0)
}

func render(n *ir.Node, depth int) string {
	if n == nil {
		return "()"
	}
	head, children := nodeHead(n)
	if len(children) == 0 {
		return "(" + head + ")"
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(head)
	indent := strings.Repeat("  ", depth+1)
	for _, c := range children {
		sb.WriteString("\n")
		sb.WriteString(indent)
		sb.WriteString(render(c, depth+1))
	}
	sb.WriteString(")")
	return sb.String()
}

// renderFlat collapses a node to single-line text, used for argument
// expressions in Action/Call positions (spec.md §4.9 gives no example of a
// multi-line argument; flattening keeps the position unambiguous to parse).
func renderFlat(n *ir.Node) string {
	head, children := nodeHead(n)
	if len(children) == 0 {
		return "(" + head + ")"
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = renderFlat(c)
	}
	return "(" + head + " " + strings.Join(parts, " ") + ")"
}

// nodeHead returns the node's tag plus any inline (same-line) tokens, and
// the list of child Nodes that each get their own indented line.
func nodeHead(n *ir.Node) (string, []*ir.Node) {
	switch n.Kind {
	case ir.KTree:
		return "ir-tree " + quote(n.Name), nonNil(n.Body)

	case ir.KSelector:
		return "ir-selector", n.Children
	case ir.KSequence:
		return "ir-sequence", n.Children
	case ir.KReactiveSelect:
		return "ir-reactive-select", n.Children

	case ir.KParallel:
		return "ir-parallel " + policyToken(n), n.Children

	case ir.KCondition:
		return "ir-condition", nonNil(n.Cond)

	case ir.KGuard:
		return "ir-guard", nonNil(n.Cond, n.Body)
	case ir.KWhile:
		return "ir-while", nonNil(n.Cond, n.Body)
	case ir.KReactive:
		return "ir-reactive", nonNil(n.Cond, n.Body)
	case ir.KIf:
		return "ir-if", nonNil(n.Cond, n.Then, n.Else)

	case ir.KInvert:
		return "ir-invert", nonNil(n.Target)

	case ir.KRepeat:
		return fmt.Sprintf("ir-repeat %d", n.Count), nonNil(n.Body)
	case ir.KTimeout:
		return "ir-timeout " + formatFloat(n.Seconds), nonNil(n.Body)
	case ir.KCooldown:
		return "ir-cooldown " + formatFloat(n.Seconds), nonNil(n.Body)

	case ir.KTreeRef:
		return "ir-tree-ref " + quote(n.Name), nil

	case ir.KAction:
		return fmt.Sprintf("ir-action %s %s %s :type %s",
			quote(n.DeclaringType), quote(n.MemberName), argsInline(n.Args), quote(n.Type)), nil
	case ir.KCall:
		return fmt.Sprintf("ir-call %s %s %s :type %s",
			quote(n.DeclaringType), quote(n.MemberName), argsInline(n.Args), quote(n.Type)), nil

	case ir.KBinaryOp:
		return "ir-binary-op " + binaryOpKeyword(n.Operator), nonNil(n.Left, n.Right)
	case ir.KUnaryOp:
		return "ir-unary-op " + unaryOpKeyword(n.Operator), nonNil(n.Operand)
	case ir.KLogicOp:
		return "ir-logic-op " + logicOpKeyword(n.Operator), n.Operands

	case ir.KConvert:
		return "ir-convert :to " + quote(n.ToType), nonNil(n.Operand)

	case ir.KMemberLoad:
		return fmt.Sprintf("ir-member-load %s :type %s", chainInline(n.Chain), quote(n.Type)), nil
	case ir.KBlackboardLoad:
		return fmt.Sprintf("ir-blackboard-load %s :type %s", chainInline(n.Chain), quote(n.Type)), nil

	case ir.KLiteral:
		return "ir-literal " + literalInline(n), nil

	default:
		return "ir-unknown", nil
	}
}

func nonNil(nodes ...*ir.Node) []*ir.Node {
	out := make([]*ir.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func argsInline(args []*ir.Node) string {
	if len(args) == 0 {
		return "()"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderFlat(a)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func chainInline(chain []string) string {
	parts := make([]string, len(chain))
	for i, c := range chain {
		parts[i] = quote(c)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func policyToken(n *ir.Node) string {
	switch n.Policy {
	case ast.PolicyAny:
		return ":any"
	case ast.PolicyN:
		return fmt.Sprintf(":n %d", n.PolicyN)
	default:
		return ":all"
	}
}

func literalInline(n *ir.Node) string {
	switch n.Type {
	case ir.TypeInt:
		return fmt.Sprintf("%d :int", n.IntValue)
	case ir.TypeFloat:
		return formatFloat(n.FloatValue) + " :float"
	case ir.TypeBool:
		return strconv.FormatBool(n.BoolValue) + " :bool"
	case ir.TypeString:
		return quote(n.StringValue) + " :string"
	case ir.TypeNull:
		return "null :null"
	default:
		if n.EnumType != "" {
			return "::" + n.EnumType + "." + n.EnumMember
		}
		return "null :null"
	}
}

func quote(s string) string {
	return strconv.Quote(s)
}

func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var binaryOpKeywords = map[string]string{
	"<": ":lt", ">": ":gt", "<=": ":le", ">=": ":ge", "=": ":eq", "!=": ":ne",
	"+": ":add", "-": ":sub", "*": ":mul", "/": ":div", "%": ":mod",
}

var binaryKeywordOps = reverseMap(binaryOpKeywords)

func binaryOpKeyword(op string) string {
	if kw, ok := binaryOpKeywords[op]; ok {
		return kw
	}
	return ":" + op
}

var unaryOpKeywords = map[string]string{"not": ":not", "negate": ":neg"}
var unaryKeywordOps = reverseMap(unaryOpKeywords)

func unaryOpKeyword(op string) string {
	if kw, ok := unaryOpKeywords[op]; ok {
		return kw
	}
	return ":" + op
}

var logicOpKeywords = map[string]string{"and": ":and", "or": ":or"}
var logicKeywordOps = reverseMap(logicOpKeywords)

func logicOpKeyword(op string) string {
	if kw, ok := logicOpKeywords[op]; ok {
		return kw
	}
	return ":" + op
}

func reverseMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
