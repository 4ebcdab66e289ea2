package ast

import (
	"strconv"
	"strings"

	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/token"
)

// Lower walks a parsed Program CST node and produces its AST (spec.md §4.3).
// It never returns nil; parse-time Error/Missing nodes are simply elided
// from the result, since the parser already recorded their diagnostics.
func Lower(prog *cst.Node, bag *diag.Bag) *Node {
	root := &Node{Kind: KProgram, Origin: prog}
	if prog == nil {
		return root
	}
	for _, c := range prog.Children {
		switch c.Kind {
		case cst.KTree:
			root.Trees = append(root.Trees, lowerTree(c, bag))
		case cst.KDefdec:
			root.Defdecs = append(root.Defdecs, lowerDefLike(KDefdec, c, bag))
		case cst.KDefmacro:
			root.Defmacros = append(root.Defmacros, lowerDefLike(KDefmacro, c, bag))
		}
	}
	return root
}

func lowerTree(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KTree, Origin: c, Name: c.Name, BlackboardType: c.BlackboardType}
	switch len(c.Children) {
	case 0:
	case 1:
		n.Body = LowerNodeForm(c.Children[0], bag)
	default:
		// spec.md's tree grammar is written as "body..." even though every
		// worked example supplies exactly one root form; an implicit
		// Sequence wrap keeps multi-form bodies meaningful rather than
		// silently dropping all but the first (Open Question, see
		// DESIGN.md).
		seq := &Node{Kind: KSequence, Origin: c}
		for _, ch := range c.Children {
			if lc := LowerNodeForm(ch, bag); lc != nil {
				seq.Children = append(seq.Children, lc)
			}
		}
		n.Body = seq
	}
	return n
}

func lowerDefLike(kind Kind, c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: kind, Origin: c, Name: c.Name, Params: c.Params}
	if len(c.Children) > 0 {
		n.Body = LowerNodeForm(c.Children[0], bag)
	}
	return n
}

// LowerNodeForm lowers a CST form occupying node position: a select/seq/
// parallel/reactive-select child, a guard/if/while/reactive/repeat/timeout/
// cooldown body slot, or a tree body. A bare member access here denotes a
// zero-argument action call (spec.md §4.3).
func LowerNodeForm(c *cst.Node, bag *diag.Bag) *Node {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case cst.KSelect:
		return lowerVariadic(KSelector, c, bag)
	case cst.KSequence:
		return lowerVariadic(KSequence, c, bag)
	case cst.KReactiveSelect:
		return lowerVariadic(KReactiveSelect, c, bag)
	case cst.KParallel:
		return lowerParallel(c, bag)
	case cst.KCheck:
		return lowerCheck(c, bag)
	case cst.KGuard:
		return lowerCondBody(KGuard, c, bag)
	case cst.KWhile:
		return lowerCondBody(KWhile, c, bag)
	case cst.KReactive:
		return lowerCondBody(KReactive, c, bag)
	case cst.KIf:
		return lowerIf(c, bag)
	case cst.KInvert:
		return lowerInvert(c, bag)
	case cst.KRepeat:
		return lowerRepeat(c, bag)
	case cst.KTimeout:
		return lowerDuration(KTimeout, c, bag)
	case cst.KCooldown:
		return lowerDuration(KCooldown, c, bag)
	case cst.KRef:
		return &Node{Kind: KRef, Origin: c, Name: c.Name, RefName: c.Name}
	case cst.KDefdecCall:
		return lowerDefdecCall(c, bag)
	case cst.KCall:
		return lowerCall(KActionCall, c, bag)
	case cst.KMemberAccess:
		return &Node{Kind: KActionCall, Origin: c, Name: c.Name, Path: c.Name}
	case cst.KBlackboardAccess:
		return &Node{Kind: KBlackboardAccess, Origin: c, Path: c.Name}
	case cst.KParamRef:
		return &Node{Kind: KParamRef, Origin: c, Name: c.Name}
	case cst.KBodyPlaceholder:
		return &Node{Kind: KBodyPlaceholder, Origin: c}
	case cst.KMissing, cst.KError:
		return nil
	default:
		// Literals and operator expressions never appear grammatically at
		// node position, but lower them anyway rather than dropping the
		// subtree silently.
		return LowerExpr(c, bag)
	}
}

// LowerExpr lowers a CST form occupying expression position: a check/guard/
// if/while/reactive condition, a call argument, or a binary/unary/logic
// operand. A bare member access here denotes a value read, not a call
// (spec.md §4.3).
func LowerExpr(c *cst.Node, bag *diag.Bag) *Node {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case cst.KIntLiteral, cst.KFloatLiteral, cst.KStringLiteral,
		cst.KBoolLiteral, cst.KNullLiteral, cst.KEnumLiteral:
		return lowerLiteral(c)
	case cst.KMemberAccess:
		return &Node{Kind: KMemberAccess, Origin: c, Path: c.Name}
	case cst.KBlackboardAccess:
		return &Node{Kind: KBlackboardAccess, Origin: c, Path: c.Name}
	case cst.KCall:
		return lowerCall(KCallExpr, c, bag)
	case cst.KDefdecCall:
		return lowerDefdecCall(c, bag)
	case cst.KBinaryExpr:
		return lowerBinary(c, bag)
	case cst.KUnaryExpr:
		return lowerUnary(c, bag)
	case cst.KLogicExpr:
		return lowerLogic(c, bag)
	case cst.KParamRef:
		return &Node{Kind: KParamRef, Origin: c, Name: c.Name}
	case cst.KBodyPlaceholder:
		return &Node{Kind: KBodyPlaceholder, Origin: c}
	case cst.KMissing, cst.KError:
		return nil
	default:
		return LowerNodeForm(c, bag)
	}
}

func lowerVariadic(kind Kind, c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: kind, Origin: c}
	for _, ch := range c.Children {
		if lc := LowerNodeForm(ch, bag); lc != nil {
			n.Children = append(n.Children, lc)
		}
	}
	return n
}

func lowerParallel(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KParallel, Origin: c}
	switch c.Policy {
	case "any":
		n.Policy = PolicyAny
	case "n":
		n.Policy = PolicyN
		n.PolicyN = c.PolicyN
	default:
		n.Policy = PolicyAll
	}
	for _, ch := range c.Children {
		if n.Policy == PolicyN && n.PolicyN == 0 && ch.Kind == cst.KParamRef {
			// A ":n <param>" count used inside a macro/decorator body is
			// resolved by expansion, not here; we simply don't count it as
			// one of the parallel's branches (deferred simplification, see
			// DESIGN.md).
			continue
		}
		if lc := LowerNodeForm(ch, bag); lc != nil {
			n.Children = append(n.Children, lc)
		}
	}
	return n
}

func lowerCheck(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KCheck, Origin: c}
	if len(c.Children) > 0 {
		n.Cond = LowerExpr(c.Children[0], bag)
	}
	return n
}

func lowerCondBody(kind Kind, c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: kind, Origin: c}
	if len(c.Children) > 0 {
		n.Cond = LowerExpr(c.Children[0], bag)
	}
	if len(c.Children) > 1 {
		n.Body = LowerNodeForm(c.Children[1], bag)
	}
	return n
}

func lowerIf(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KIf, Origin: c}
	if len(c.Children) > 0 {
		n.Cond = LowerExpr(c.Children[0], bag)
	}
	if len(c.Children) > 1 {
		n.Then = LowerNodeForm(c.Children[1], bag)
	}
	if len(c.Children) > 2 {
		n.Else = LowerNodeForm(c.Children[2], bag)
	} else {
		bag.Add("BS0302", c.Span())
	}
	return n
}

func lowerInvert(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KInvert, Origin: c}
	if len(c.Children) > 0 {
		n.Target = LowerNodeForm(c.Children[0], bag)
	}
	return n
}

func lowerRepeat(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KRepeat, Origin: c}
	if len(c.Children) > 0 {
		count := c.Children[0]
		if count.Kind == cst.KIntLiteral {
			if v, err := strconv.ParseInt(count.Tokens[0].Text, 10, 32); err == nil {
				n.Count = int(v)
			}
		} else {
			n.CountExpr = LowerExpr(count, bag)
		}
	}
	if len(c.Children) > 1 {
		n.Body = LowerNodeForm(c.Children[1], bag)
	}
	return n
}

func lowerDuration(kind Kind, c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: kind, Origin: c}
	if len(c.Children) > 0 {
		dur := c.Children[0]
		switch dur.Kind {
		case cst.KIntLiteral:
			if v, err := strconv.ParseInt(dur.Tokens[0].Text, 10, 32); err == nil {
				n.Seconds = float32(v)
			}
		case cst.KFloatLiteral:
			if v, err := strconv.ParseFloat(dur.Tokens[0].Text, 32); err == nil {
				n.Seconds = float32(v)
			}
		default:
			n.DurationExpr = LowerExpr(dur, bag)
		}
	}
	if len(c.Children) > 1 {
		n.Body = LowerNodeForm(c.Children[1], bag)
	}
	return n
}

func lowerDefdecCall(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KDefdecCall, Origin: c, Name: c.Name}
	for _, a := range c.Children {
		if la := LowerExpr(a, bag); la != nil {
			n.Args = append(n.Args, la)
		}
	}
	return n
}

func lowerCall(kind Kind, c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: kind, Origin: c, Path: c.Name}
	for _, a := range c.Children {
		if la := LowerExpr(a, bag); la != nil {
			n.Args = append(n.Args, la)
		}
	}
	return n
}

func lowerBinary(c *cst.Node, bag *diag.Bag) *Node {
	n := &Node{Kind: KBinaryExpr, Origin: c, Operator: operatorString(c.Operator)}
	if len(c.Children) > 0 {
		n.Left = LowerExpr(c.Children[0], bag)
	}
	if len(c.Children) > 1 {
		n.Right = LowerExpr(c.Children[1], bag)
	}
	return n
}

func lowerUnary(c *cst.Node, bag *diag.Bag) *Node {
	op := "negate"
	if c.Operator == cst.NotOperator {
		op = "not"
	}
	n := &Node{Kind: KUnaryExpr, Origin: c, Operator: op}
	if len(c.Children) > 0 {
		n.Operand = LowerExpr(c.Children[0], bag)
	}
	return n
}

func lowerLogic(c *cst.Node, bag *diag.Bag) *Node {
	op := "or"
	if c.Operator == cst.AndOperator {
		op = "and"
	}
	n := &Node{Kind: KLogicExpr, Origin: c, Operator: op}
	for _, ch := range c.Children {
		if lc := LowerExpr(ch, bag); lc != nil {
			n.Operands = append(n.Operands, lc)
		}
	}
	return n
}

func operatorString(k token.Kind) string {
	switch k {
	case token.Plus:
		return "+"
	case token.Minus:
		return "-"
	case token.Star:
		return "*"
	case token.Slash:
		return "/"
	case token.Percent:
		return "%"
	case token.LessThan:
		return "<"
	case token.GreaterThan:
		return ">"
	case token.LessEqual:
		return "<="
	case token.GreaterEqual:
		return ">="
	case token.Equal:
		return "="
	case token.NotEqual:
		return "!="
	default:
		return "?"
	}
}

func lowerLiteral(c *cst.Node) *Node {
	switch c.Kind {
	case cst.KIntLiteral:
		v, _ := strconv.ParseInt(c.Tokens[0].Text, 10, 32)
		return &Node{Kind: KIntLiteral, Origin: c, IntValue: int32(v)}
	case cst.KFloatLiteral:
		v, _ := strconv.ParseFloat(c.Tokens[0].Text, 32)
		return &Node{Kind: KFloatLiteral, Origin: c, FloatValue: float32(v)}
	case cst.KStringLiteral:
		return &Node{Kind: KStringLiteral, Origin: c, StringValue: unescapeString(c.Tokens[0].Text)}
	case cst.KBoolLiteral:
		return &Node{Kind: KBoolLiteral, Origin: c, BoolValue: c.Tokens[0].Kind == token.BoolTrue}
	case cst.KNullLiteral:
		return &Node{Kind: KNullLiteral, Origin: c}
	case cst.KEnumLiteral:
		typ, member := splitEnumPath(c.Name)
		return &Node{Kind: KEnumLiteral, Origin: c, EnumType: typ, EnumMember: member}
	default:
		return nil
	}
}

// splitEnumPath splits the raw "::TypeName.MemberName" token text (prefix
// included verbatim by the lexer) into its type and member parts.
func splitEnumPath(s string) (string, string) {
	s = strings.TrimPrefix(s, "::")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// unescapeString strips the surrounding quotes from a string literal's raw
// token text and decodes its backslash escapes (spec.md §3's string literal
// grammar: \", \\, \n, \t, \r).
func unescapeString(raw string) string {
	if len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(raw[i])
			}
			continue
		}
		sb.WriteByte(raw[i])
	}
	return sb.String()
}
