package cst

import (
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/lexer"
	"github.com/crisp-lang/crisp/internal/token"
)

// reservedNodeForms is the set of identifiers that select a built-in
// composite node form at node position (spec.md §4.2, "Node position
// recognition"). Any other leading identifier is a user-defined decorator
// or macro call, disambiguated in later stages.
var reservedNodeForms = map[string]bool{
	"select": true, "seq": true, "parallel": true, "check": true,
	"guard": true, "if": true, "invert": true, "repeat": true,
	"timeout": true, "cooldown": true, "while": true, "reactive": true,
	"reactive-select": true, "ref": true,
}

// Parser is a recursive-descent parser over a token sequence. It never
// aborts: on a mismatch it records a diagnostic, synthesizes a Missing or
// Error node, and resynchronizes by paren counting (spec.md §4.2).
type Parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
}

// Parse lexes and parses src into a Program CST node plus any diagnostics
// recorded along the way.
func Parse(src string) (*Node, *diag.Bag) {
	return ParseTokens(lexer.Lex(src))
}

// ParseTokens parses an already-lexed token sequence.
func ParseTokens(toks []token.Token) (*Node, *diag.Bag) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF})
	}
	p := &Parser{toks: toks, bag: diag.NewBag()}
	return p.parseProgram(), p.bag
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) peek(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool      { return p.cur().Kind == token.EOF }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atIdent(text string) bool {
	return p.at(token.Identifier) && p.cur().Text == text
}

// atBodyPlaceholder recognizes the three-token "<body>" sequence the lexer
// scans as LessThan, Identifier("body"), GreaterThan (spec.md §9: the
// placeholder is "simplified" — Crisp spells it with angle brackets rather
// than as a single reserved identifier token).
func (p *Parser) atBodyPlaceholder() bool {
	return p.at(token.LessThan) && p.peek(1).Kind == token.Identifier &&
		p.peek(1).Text == "body" && p.peek(2).Kind == token.GreaterThan
}

func (p *Parser) parseBodyPlaceholder() *Node {
	lt := p.advance()
	id := p.advance()
	gt := p.advance()
	return NewComposite(KBodyPlaceholder, Tok(lt), Tok(id), Tok(gt))
}

func (p *Parser) expect(k token.Kind, code string) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.bag.Add(code, p.cur().Span, p.cur().Kind.String(), k.String())
	return token.Token{}
}

// expectRParen consumes a RightParen, or on mismatch reports BS1001/BS1002
// and resynchronizes by paren counting, per spec.md §4.2's recovery rule.
func (p *Parser) expectRParen() token.Token {
	if p.at(token.RightParen) {
		return p.advance()
	}
	if p.atEOF() {
		p.bag.Add("BS1002", p.cur().Span)
		return token.Token{}
	}
	bad := p.cur()
	p.bag.Add("BS1001", bad.Span, bad.Kind.String(), token.RightParen.String())
	depth := 0
	for !p.atEOF() {
		switch {
		case p.at(token.LeftParen):
			depth++
			p.advance()
		case p.at(token.RightParen):
			if depth == 0 {
				return p.advance()
			}
			depth--
			p.advance()
		default:
			p.advance()
		}
	}
	return token.Token{}
}

// ---- Program / top level ----

func (p *Parser) parseProgram() *Node {
	var elems []Element
	for !p.atEOF() {
		switch {
		case p.at(token.LeftParen) && p.peek(1).Kind == token.Identifier && p.peek(1).Text == "tree":
			elems = append(elems, Child(p.parseTree()))
		case p.at(token.LeftParen) && p.peek(1).Kind == token.Identifier && p.peek(1).Text == "defdec":
			elems = append(elems, Child(p.parseDefdec()))
		case p.at(token.LeftParen) && p.peek(1).Kind == token.Identifier && p.peek(1).Text == "defmacro":
			elems = append(elems, Child(p.parseDefmacro()))
		case p.at(token.LeftParen) && p.peek(1).Kind == token.Identifier && p.peek(1).Text == "import":
			elems = append(elems, Child(p.parseImport()))
		default:
			elems = append(elems, Child(p.recoverUnknownTopForm()))
		}
	}
	elems = append(elems, Tok(p.advance())) // EOF
	return NewComposite(KProgram, elems...)
}

// recoverUnknownTopForm consumes one unrecognized top-level form (by paren
// counting if it starts with '(', otherwise a single token) and records
// BS1003, per spec.md §4.2's top-level recovery rule.
func (p *Parser) recoverUnknownTopForm() *Node {
	start := p.cur()
	p.bag.Add("BS1003", start.Span)
	var toks []token.Token
	if p.at(token.LeftParen) {
		depth := 0
		for !p.atEOF() {
			t := p.advance()
			toks = append(toks, t)
			if t.Kind == token.LeftParen {
				depth++
			} else if t.Kind == token.RightParen {
				depth--
				if depth == 0 {
					break
				}
			}
		}
	} else {
		toks = append(toks, p.advance())
	}
	n := &Node{Kind: KError}
	for _, t := range toks {
		n.appendToken(t)
	}
	return n
}

func (p *Parser) parseTree() *Node {
	lp := p.advance()        // '('
	kw := p.advance()        // 'tree'
	name := p.expect(token.Identifier, "BS1001")
	n := &Node{Kind: KTree, Name: name.Text}
	n.appendToken(lp)
	n.appendToken(kw)
	n.appendToken(name)

	if p.at(token.Keyword) && p.cur().Text == ":blackboard" {
		kwTok := p.advance()
		typeTok := p.expect(token.Identifier, "BS1001")
		n.BlackboardType = typeTok.Text
		n.appendToken(kwTok)
		n.appendToken(typeTok)
	}

	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseDefdec() *Node   { return p.parseDefLike(KDefdec) }
func (p *Parser) parseDefmacro() *Node { return p.parseDefLike(KDefmacro) }

func (p *Parser) parseDefLike(kind Kind) *Node {
	lp := p.advance()
	kw := p.advance()
	name := p.expect(token.Identifier, "BS1001")
	n := &Node{Kind: kind, Name: name.Text}
	n.appendToken(lp)
	n.appendToken(kw)
	n.appendToken(name)

	// Parameter list tokens are recorded directly on this node (no
	// dedicated CST variant for a param list per spec.md §3); Params is
	// derived for convenient access.
	paramLP := p.expect(token.LeftParen, "BS1001")
	n.appendToken(paramLP)
	for !p.at(token.RightParen) && !p.atEOF() {
		id := p.expect(token.Identifier, "BS1001")
		n.appendToken(id)
		if id.Text != "" {
			n.Params = append(n.Params, id.Text)
		}
	}
	n.appendToken(p.expect(token.RightParen, "BS1002"))

	if !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseImport() *Node {
	lp := p.advance()
	kw := p.advance()
	path := p.expect(token.StringLiteral, "BS1001")
	n := NewComposite(KImport, Tok(lp), Tok(kw), Tok(path))
	n.appendToken(p.expectRParen())
	return n
}

// ---- Node-and-expression forms ----

// parseForm parses one parenthesized or atomic form. Because Crisp reuses
// identical grammar productions (literals, member access, calls) at both
// node position and expression position, the CST does not distinguish
// them: spec.md §4.3 performs that disambiguation during CST→AST lowering,
// based on which field of the parent the result is stored in.
func (p *Parser) parseForm() *Node {
	if p.atBodyPlaceholder() {
		return p.parseBodyPlaceholder()
	}
	if !p.at(token.LeftParen) {
		return p.parseAtom()
	}

	lp := p.advance()
	switch {
	case p.at(token.Identifier) && reservedNodeForms[p.cur().Text]:
		return p.parseReservedForm(lp)
	case p.atIdent("not"):
		kw := p.advance()
		operand := p.parseForm()
		n := NewComposite(KUnaryExpr, Tok(lp), Tok(kw), Child(operand))
		n.Operator = NotOperator
		n.appendToken(p.expectRParen())
		return n
	case p.atIdent("and") || p.atIdent("or"):
		return p.parseLogic(lp)
	case p.at(token.Identifier):
		return p.parseDefdecCall(lp)
	case isExprOperator(p.cur().Kind):
		return p.parseOperatorForm(lp)
	case p.at(token.MemberAccess):
		return p.parseCallForm(lp)
	default:
		bad := p.cur()
		p.bag.Add("BS1001", bad.Span, bad.Kind.String(), "a node or expression form")
		n := &Node{Kind: KError}
		n.appendToken(lp)
		for !p.at(token.RightParen) && !p.atEOF() {
			n.appendToken(p.advance())
		}
		n.appendToken(p.expectRParen())
		return n
	}
}

// NotOperator is a synthetic marker (no lexical token represents "not"
// as an operator kind) used so IrUnaryOp can distinguish Not from Negate.
const NotOperator = token.Kind(-1)

// NegateOperator marks unary minus.
const NegateOperator = token.Kind(-2)

func isExprOperator(k token.Kind) bool {
	switch k {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.LessThan, token.GreaterThan, token.LessEqual, token.GreaterEqual,
		token.Equal, token.NotEqual:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtom() *Node {
	switch p.cur().Kind {
	case token.IntLiteral:
		return NewLeaf(KIntLiteral, p.advance())
	case token.FloatLiteral:
		return NewLeaf(KFloatLiteral, p.advance())
	case token.StringLiteral:
		return NewLeaf(KStringLiteral, p.advance())
	case token.BoolTrue, token.BoolFalse:
		return NewLeaf(KBoolLiteral, p.advance())
	case token.NullLiteral:
		return NewLeaf(KNullLiteral, p.advance())
	case token.MemberAccess:
		n := NewLeaf(KMemberAccess, p.advance())
		n.Name = n.Tokens[0].Text
		return n
	case token.BlackboardAccess:
		n := NewLeaf(KBlackboardAccess, p.advance())
		n.Name = n.Tokens[0].Text
		return n
	case token.EnumLiteral:
		n := NewLeaf(KEnumLiteral, p.advance())
		n.Name = n.Tokens[0].Text
		return n
	case token.Identifier:
		// A bare identifier in argument position (not a reserved keyword,
		// not wrapped in its own form) names a defdec/defmacro parameter;
		// macro/decorator expansion substitutes it with the matching
		// argument's CST (spec.md §9's "simplified" substitution).
		n := NewLeaf(KParamRef, p.advance())
		n.Name = n.Tokens[0].Text
		return n
	default:
		bad := p.cur()
		p.bag.Add("BS1001", bad.Span, bad.Kind.String(), "a value")
		// Consume the offending token so callers looping until ')' or EOF
		// always make progress.
		return NewLeaf(KMissing, p.advance())
	}
}

func (p *Parser) parseReservedForm(lp token.Token) *Node {
	kw := p.advance()
	switch kw.Text {
	case "select":
		return p.finishVariadic(KSelect, lp, kw)
	case "seq":
		return p.finishVariadic(KSequence, lp, kw)
	case "reactive-select":
		return p.finishVariadic(KReactiveSelect, lp, kw)
	case "parallel":
		return p.finishParallel(lp, kw)
	case "check":
		return p.finishUnarySlot(KCheck, lp, kw)
	case "invert":
		return p.finishUnarySlot(KInvert, lp, kw)
	case "guard":
		return p.finishBinarySlot(KGuard, lp, kw)
	case "while":
		return p.finishBinarySlot(KWhile, lp, kw)
	case "reactive":
		return p.finishBinarySlot(KReactive, lp, kw)
	case "if":
		return p.finishIf(lp, kw)
	case "repeat":
		return p.finishRepeat(lp, kw)
	case "timeout":
		return p.finishDuration(KTimeout, lp, kw)
	case "cooldown":
		return p.finishDuration(KCooldown, lp, kw)
	case "ref":
		return p.finishRef(lp, kw)
	}
	panic("unreachable: reservedNodeForms out of sync with parseReservedForm")
}

func (p *Parser) finishVariadic(kind Kind, lp, kw token.Token) *Node {
	n := &Node{Kind: kind}
	n.appendToken(lp)
	n.appendToken(kw)
	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishUnarySlot(kind Kind, lp, kw token.Token) *Node {
	n := &Node{Kind: kind}
	n.appendToken(lp)
	n.appendToken(kw)
	n.appendChild(p.parseForm())
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishBinarySlot(kind Kind, lp, kw token.Token) *Node {
	n := &Node{Kind: kind}
	n.appendToken(lp)
	n.appendToken(kw)
	n.appendChild(p.parseForm())
	n.appendChild(p.parseForm())
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishIf(lp, kw token.Token) *Node {
	n := &Node{Kind: KIf}
	n.appendToken(lp)
	n.appendToken(kw)
	n.appendChild(p.parseForm()) // cond
	n.appendChild(p.parseForm()) // then
	if !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm()) // else
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishRepeat(lp, kw token.Token) *Node {
	n := &Node{Kind: KRepeat}
	n.appendToken(lp)
	n.appendToken(kw)
	// A macro/decorator body may use a parameter reference or <body> in
	// this slot in place of a literal count; any other token that is not an
	// integer literal is flagged here (spec.md §4.2).
	if !p.at(token.IntLiteral) && !p.at(token.Identifier) && !p.atBodyPlaceholder() {
		p.bag.Add("BS1004", p.cur().Span)
	}
	n.appendChild(p.parseForm())
	n.appendChild(p.parseForm())
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishDuration(kind Kind, lp, kw token.Token) *Node {
	n := &Node{Kind: kind}
	n.appendToken(lp)
	n.appendToken(kw)
	if !p.at(token.IntLiteral) && !p.at(token.FloatLiteral) && !p.at(token.Identifier) && !p.atBodyPlaceholder() {
		p.bag.Add("BS1005", p.cur().Span)
	}
	n.appendChild(p.parseForm())
	n.appendChild(p.parseForm())
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishParallel(lp, kw token.Token) *Node {
	n := &Node{Kind: KParallel, Policy: "all"}
	n.appendToken(lp)
	n.appendToken(kw)
	if p.at(token.Keyword) {
		polTok := p.advance()
		n.appendToken(polTok)
		switch polTok.Text {
		case ":any":
			n.Policy = "any"
		case ":all":
			n.Policy = "all"
		case ":n":
			n.Policy = "n"
			if p.at(token.IntLiteral) {
				countTok := p.advance()
				n.appendToken(countTok)
				n.PolicyN = parseDecimalInt(countTok.Text)
			} else if p.at(token.Identifier) {
				// Parameter reference inside a macro/decorator body;
				// resolved during expansion, not at parse time.
				ref := p.parseForm()
				n.appendChild(ref)
			} else {
				p.bag.Add("BS1004", p.cur().Span)
			}
		default:
			p.bag.Add("BS1006", polTok.Span, polTok.Text)
		}
	} else {
		p.bag.Add("BS1006", p.cur().Span, "")
	}
	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) finishRef(lp, kw token.Token) *Node {
	name := p.expect(token.Identifier, "BS1001")
	n := NewComposite(KRef, Tok(lp), Tok(kw), Tok(name))
	n.Name = name.Text
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseDefdecCall(lp token.Token) *Node {
	nameTok := p.advance()
	n := &Node{Kind: KDefdecCall, Name: nameTok.Text}
	n.appendToken(lp)
	n.appendToken(nameTok)
	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseCallForm(lp token.Token) *Node {
	memberTok := p.advance()
	n := &Node{Kind: KCall, Name: memberTok.Text}
	n.appendToken(lp)
	n.appendToken(memberTok)
	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseOperatorForm(lp token.Token) *Node {
	opTok := p.advance()
	lhs := p.parseForm()
	if opTok.Kind == token.Minus && p.at(token.RightParen) {
		n := NewComposite(KUnaryExpr, Tok(lp), Tok(opTok), Child(lhs))
		n.Operator = NegateOperator
		n.appendToken(p.expectRParen())
		return n
	}
	rhs := p.parseForm()
	n := NewComposite(KBinaryExpr, Tok(lp), Tok(opTok), Child(lhs), Child(rhs))
	n.Operator = opTok.Kind
	n.appendToken(p.expectRParen())
	return n
}

func (p *Parser) parseLogic(lp token.Token) *Node {
	kw := p.advance()
	n := &Node{Kind: KLogicExpr}
	n.appendToken(lp)
	n.appendToken(kw)
	n.Operator = logicOperatorKind(kw.Text)
	for !p.at(token.RightParen) && !p.atEOF() {
		n.appendChild(p.parseForm())
	}
	n.appendToken(p.expectRParen())
	return n
}

// AndOperator / OrOperator are synthetic markers, like
// NotOperator/NegateOperator, for operators the lexer doesn't
// tokenize distinctly (they're plain identifiers "and"/"or").
const AndOperator = token.Kind(-3)
const OrOperator = token.Kind(-4)

func logicOperatorKind(text string) token.Kind {
	if text == "and" {
		return AndOperator
	}
	return OrOperator
}

func parseDecimalInt(s string) int {
	neg := false
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	n := 0
	for ; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}
