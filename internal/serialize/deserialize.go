package serialize

import (
	"strconv"
	"strings"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/ir"
	"github.com/crisp-lang/crisp/internal/lexer"
	"github.com/crisp-lang/crisp/internal/token"
)

// Deserialize parses the textual S-expression form (spec.md §4.9) back
// into an IR tree. Unknown tags and structurally malformed input are
// reported through bag as BS2001/BS2002 rather than panicking; a
// best-effort tree is still returned so callers can keep going, matching
// every other stage's "errors are values" contract (spec.md §7).
//
// The serialized form carries no :id field, so ids are reassigned by the
// same pre-order pass AST→IR lowering uses (ir.AssignIds), and :type is
// omitted for node kinds whose type is mechanically re-derivable from
// already-typed children (see deriveTypes).
func Deserialize(text string, bag *diag.Bag) *ir.Node {
	p := &parser{toks: lexer.Lex(text), bag: bag}
	n := p.parseNode()
	deriveTypes(n)
	ir.AssignIds(n)
	return n
}

type parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind token.Kind, what string) token.Token {
	t := p.peek()
	if t.Kind != kind {
		p.bag.Add("BS2002", t.Span, "expected "+what)
		return t
	}
	return p.next()
}

func (p *parser) expectKeyword(text string) {
	t := p.peek()
	if t.Kind != token.Keyword || t.Text != text {
		p.bag.Add("BS2002", t.Span, "expected keyword "+text)
		return
	}
	p.next()
}

func unquote(tok token.Token) string {
	s, err := strconv.Unquote(tok.Text)
	if err != nil {
		return strings.Trim(tok.Text, "\"")
	}
	return s
}

// parseNode parses one fully-parenthesized `(ir-<kind> ...)` form.
func (p *parser) parseNode() *ir.Node {
	open := p.expect(token.LeftParen, "'('")
	tagTok := p.expect(token.Identifier, "ir-<kind> tag")
	tag := tagTok.Text

	var n *ir.Node
	switch tag {
	case "ir-tree":
		n = p.parseTree()
	case "ir-selector":
		n = &ir.Node{Kind: ir.KSelector, Children: p.parseNodeListUntilClose()}
	case "ir-sequence":
		n = &ir.Node{Kind: ir.KSequence, Children: p.parseNodeListUntilClose()}
	case "ir-reactive-select":
		n = &ir.Node{Kind: ir.KReactiveSelect, Children: p.parseNodeListUntilClose()}
	case "ir-parallel":
		n = p.parseParallel()
	case "ir-condition":
		cond := p.parseNode()
		n = &ir.Node{Kind: ir.KCondition, Cond: cond}
		p.closeParen(open)
	case "ir-guard":
		cond, body := p.parseNode(), p.parseNode()
		n = &ir.Node{Kind: ir.KGuard, Cond: cond, Body: body}
		p.closeParen(open)
	case "ir-while":
		cond, body := p.parseNode(), p.parseNode()
		n = &ir.Node{Kind: ir.KWhile, Cond: cond, Body: body}
		p.closeParen(open)
	case "ir-reactive":
		cond, body := p.parseNode(), p.parseNode()
		n = &ir.Node{Kind: ir.KReactive, Cond: cond, Body: body}
		p.closeParen(open)
	case "ir-if":
		cond, then := p.parseNode(), p.parseNode()
		var els *ir.Node
		if p.peek().Kind != token.RightParen {
			els = p.parseNode()
		}
		n = &ir.Node{Kind: ir.KIf, Cond: cond, Then: then, Else: els}
		p.closeParen(open)
	case "ir-invert":
		target := p.parseNode()
		n = &ir.Node{Kind: ir.KInvert, Target: target}
		p.closeParen(open)
	case "ir-repeat":
		count := p.parseInt()
		body := p.parseNode()
		n = &ir.Node{Kind: ir.KRepeat, Count: count, Body: body}
		p.closeParen(open)
	case "ir-timeout":
		seconds := p.parseFloat()
		body := p.parseNode()
		n = &ir.Node{Kind: ir.KTimeout, Seconds: seconds, Body: body}
		p.closeParen(open)
	case "ir-cooldown":
		seconds := p.parseFloat()
		body := p.parseNode()
		n = &ir.Node{Kind: ir.KCooldown, Seconds: seconds, Body: body}
		p.closeParen(open)
	case "ir-tree-ref":
		name := unquote(p.expect(token.StringLiteral, "tree name string"))
		n = &ir.Node{Kind: ir.KTreeRef, Name: name}
		p.closeParen(open)
	case "ir-action":
		n = p.parseActionOrCall(ir.KAction)
		p.closeParen(open)
	case "ir-call":
		n = p.parseActionOrCall(ir.KCall)
		p.closeParen(open)
	case "ir-binary-op":
		kw := p.expect(token.Keyword, "binary operator keyword")
		op, ok := binaryKeywordOps[kw.Text]
		if !ok {
			p.bag.Add("BS2002", kw.Span, "unknown binary operator "+kw.Text)
		}
		left, right := p.parseNode(), p.parseNode()
		n = &ir.Node{Kind: ir.KBinaryOp, Operator: op, Left: left, Right: right}
		p.closeParen(open)
	case "ir-unary-op":
		kw := p.expect(token.Keyword, "unary operator keyword")
		op, ok := unaryKeywordOps[kw.Text]
		if !ok {
			p.bag.Add("BS2002", kw.Span, "unknown unary operator "+kw.Text)
		}
		operand := p.parseNode()
		n = &ir.Node{Kind: ir.KUnaryOp, Operator: op, Operand: operand}
		p.closeParen(open)
	case "ir-logic-op":
		kw := p.expect(token.Keyword, "logic operator keyword")
		op, ok := logicKeywordOps[kw.Text]
		if !ok {
			p.bag.Add("BS2002", kw.Span, "unknown logic operator "+kw.Text)
		}
		n = &ir.Node{Kind: ir.KLogicOp, Operator: op, Operands: p.parseNodeListUntilClose()}
	case "ir-convert":
		p.expectKeyword(":to")
		toType := unquote(p.expect(token.StringLiteral, "convert target type string"))
		operand := p.parseNode()
		n = &ir.Node{Kind: ir.KConvert, ToType: toType, Operand: operand}
		p.closeParen(open)
	case "ir-member-load":
		chain := p.parseStringList()
		p.expectKeyword(":type")
		typ := unquote(p.expect(token.StringLiteral, "type string"))
		n = &ir.Node{Kind: ir.KMemberLoad, Chain: chain, Type: typ}
		p.closeParen(open)
	case "ir-blackboard-load":
		chain := p.parseStringList()
		p.expectKeyword(":type")
		typ := unquote(p.expect(token.StringLiteral, "type string"))
		n = &ir.Node{Kind: ir.KBlackboardLoad, Chain: chain, Type: typ}
		p.closeParen(open)
	case "ir-literal":
		n = p.parseLiteral()
		p.closeParen(open)
	default:
		p.bag.Add("BS2001", tagTok.Span, tag)
		p.skipToMatchingClose()
		n = &ir.Node{Kind: ir.KLiteral, Type: ir.TypeNull, IsNull: true}
	}
	return n
}

// closeParen consumes this node's own closing paren. open is unused beyond
// documenting intent (the span of an unbalanced form is reported at the
// mismatched token itself, not at the opening paren).
func (p *parser) closeParen(open token.Token) {
	_ = open
	p.expect(token.RightParen, "')'")
}

func (p *parser) parseTree() *ir.Node {
	name := unquote(p.expect(token.StringLiteral, "tree name string"))
	body := p.parseNode()
	n := &ir.Node{Kind: ir.KTree, Name: name, Body: body, Type: ir.TypeBtStatus}
	p.expect(token.RightParen, "')'")
	return n
}

func (p *parser) parseParallel() *ir.Node {
	n := &ir.Node{Kind: ir.KParallel}
	kw := p.peek()
	if kw.Kind == token.Keyword {
		switch kw.Text {
		case ":any":
			n.Policy = ast.PolicyAny
			p.next()
		case ":all":
			n.Policy = ast.PolicyAll
			p.next()
		case ":n":
			n.Policy = ast.PolicyN
			p.next()
			n.PolicyN = p.parseInt()
		}
	}
	n.Children = p.parseNodeListUntilClose()
	return n
}

func (p *parser) parseActionOrCall(kind ir.Kind) *ir.Node {
	decl := unquote(p.expect(token.StringLiteral, "declaring type string"))
	member := unquote(p.expect(token.StringLiteral, "member name string"))
	args := p.parseArgsList()
	p.expectKeyword(":type")
	typ := unquote(p.expect(token.StringLiteral, "type string"))
	return &ir.Node{Kind: kind, DeclaringType: decl, MemberName: member, Args: args, Type: typ}
}

func (p *parser) parseArgsList() []*ir.Node {
	p.expect(token.LeftParen, "'(' starting args list")
	var args []*ir.Node
	for p.peek().Kind != token.RightParen && p.peek().Kind != token.EOF {
		args = append(args, p.parseNode())
	}
	p.expect(token.RightParen, "')' closing args list")
	return args
}

func (p *parser) parseStringList() []string {
	p.expect(token.LeftParen, "'(' starting path list")
	var out []string
	for p.peek().Kind != token.RightParen && p.peek().Kind != token.EOF {
		out = append(out, unquote(p.expect(token.StringLiteral, "path segment string")))
	}
	p.expect(token.RightParen, "')' closing path list")
	return out
}

func (p *parser) parseNodeListUntilClose() []*ir.Node {
	var out []*ir.Node
	for p.peek().Kind != token.RightParen && p.peek().Kind != token.EOF {
		out = append(out, p.parseNode())
	}
	p.expect(token.RightParen, "')'")
	return out
}

func (p *parser) parseLiteral() *ir.Node {
	t := p.peek()
	kind := t.Kind
	if kind == token.Minus {
		kind = p.peekKindAfterMinus()
	}
	switch kind {
	case token.EnumLiteral:
		p.next()
		typ, member := splitEnumLiteral(t.Text)
		return &ir.Node{Kind: ir.KLiteral, Type: typ, EnumType: typ, EnumMember: member}
	case token.IntLiteral:
		v := p.parseInt()
		p.expectKeyword(":int")
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeInt, IntValue: int32(v)}
	case token.FloatLiteral:
		v := p.parseFloat()
		p.expectKeyword(":float")
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeFloat, FloatValue: v}
	case token.BoolTrue, token.BoolFalse:
		p.next()
		p.expectKeyword(":bool")
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeBool, BoolValue: t.Kind == token.BoolTrue}
	case token.StringLiteral:
		p.next()
		p.expectKeyword(":string")
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeString, StringValue: unquote(t)}
	case token.NullLiteral:
		p.next()
		p.expectKeyword(":null")
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeNull, IsNull: true}
	default:
		p.bag.Add("BS2002", t.Span, "expected a literal value")
		p.next()
		return &ir.Node{Kind: ir.KLiteral, Type: ir.TypeNull, IsNull: true}
	}
}

func splitEnumLiteral(text string) (typ, member string) {
	body := strings.TrimPrefix(text, "::")
	idx := strings.LastIndex(body, ".")
	if idx < 0 {
		return body, ""
	}
	return body[:idx], body[idx+1:]
}

// peekKindAfterMinus looks one token past a Minus to decide whether it
// introduces a negative Int or Float literal, without consuming either
// token.
func (p *parser) peekKindAfterMinus() token.Kind {
	if p.pos+1 >= len(p.toks) {
		return token.EOF
	}
	return p.toks[p.pos+1].Kind
}

// negativeSign reports and consumes a leading Minus token. The shared
// lexer folds the sign into the literal whenever whitespace separates it
// from the preceding "ir-literal"/"ir-repeat"/"ir-timeout" tag, so the
// serializer's own output never reaches this branch; a sign written with no
// whitespace before it still lexes as a separate Minus token, which this
// parser recombines by hand.
func (p *parser) negativeSign() bool {
	if p.peek().Kind == token.Minus {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseInt() int {
	neg := p.negativeSign()
	t := p.expect(token.IntLiteral, "integer literal")
	v, _ := strconv.ParseInt(t.Text, 10, 32)
	if neg {
		v = -v
	}
	return int(v)
}

func (p *parser) parseFloat() float32 {
	neg := p.negativeSign()
	t := p.peek()
	if t.Kind != token.IntLiteral && t.Kind != token.FloatLiteral {
		p.bag.Add("BS2002", t.Span, "expected a numeric literal")
		return 0
	}
	p.next()
	v, _ := strconv.ParseFloat(t.Text, 32)
	if neg {
		v = -v
	}
	return float32(v)
}

// skipToMatchingClose discards tokens after an unrecognized tag until its
// balancing right paren, so one bad form doesn't desync the rest of the
// parse.
func (p *parser) skipToMatchingClose() {
	depth := 1
	for depth > 0 {
		t := p.next()
		switch t.Kind {
		case token.LeftParen:
			depth++
		case token.RightParen:
			depth--
		case token.EOF:
			return
		}
	}
}
