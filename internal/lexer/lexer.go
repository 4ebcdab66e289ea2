// Package lexer turns Crisp source text into a token sequence with
// attached trivia, as described in spec.md §4.1. The lexer is a
// deterministic scanner over Unicode scalar values; it never fails —
// unrecognized characters become Illegal tokens rather than errors, so
// later stages decide what to do with them.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/crisp-lang/crisp/internal/token"
)

// Lexer scans a fixed input buffer into a token sequence.
//
// Like the teacher's scanner, position tracking is rune-based: "column"
// counts Unicode scalar values from the start of the line, not bytes or
// display width, so multi-byte identifiers (if ever allowed) stay
// consistent across platforms.
type Lexer struct {
	input        string
	pos          int // byte offset of ch
	readPos      int // byte offset after ch
	ch           rune
	atEOF        bool
	lastKind     token.Kind
	haveLast     bool
	sawWhitespaceSinceLast bool
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readRune()
	return l
}

// Lex scans the entire input and returns the token sequence terminated by
// an EOF token. It never returns an error.
func Lex(input string) []token.Token {
	return New(input).Tokens()
}

// Tokens scans the whole buffer and returns every token, EOF-terminated.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token

	leading := l.scanTrivia()
	for {
		tok := l.scanToken()
		tok.Leading = leading

		gap := l.scanTrivia()
		trailing, nextLeading := splitTrivia(gap)
		tok.Trailing = trailing
		leading = nextLeading

		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
		l.haveLast = true
		l.lastKind = tok.Kind
		l.sawWhitespaceSinceLast = hasWhitespace(gap)
	}
	return toks
}

func hasWhitespace(pieces []token.TriviaPiece) bool {
	for _, p := range pieces {
		if p.Kind == token.Whitespace {
			return true
		}
	}
	return false
}

// splitTrivia partitions a gap's trivia pieces into the trailing trivia of
// the preceding token and the leading trivia of the following token: trivia
// up to the first newline (exclusive) is trailing; the newline and
// everything after it is leading. See spec.md §3 ("Trivia partitioning rule").
func splitTrivia(gap []token.TriviaPiece) (trailing, leading []token.TriviaPiece) {
	for i, p := range gap {
		if p.Kind == token.Newline {
			return gap[:i], gap[i:]
		}
	}
	return gap, nil
}

func (l *Lexer) readRune() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		l.atEOF = true
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += w
}

func (l *Lexer) peekRune() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// scanTrivia consumes a run of whitespace/newline/comment and returns each
// as a separate TriviaPiece in document order.
func (l *Lexer) scanTrivia() []token.TriviaPiece {
	var out []token.TriviaPiece
	for !l.atEOF {
		switch {
		case l.ch == ' ' || l.ch == '\t':
			start := l.pos
			for !l.atEOF && (l.ch == ' ' || l.ch == '\t') {
				l.readRune()
			}
			out = append(out, token.TriviaPiece{Kind: token.Whitespace, Text: l.input[start:l.pos]})
		case l.ch == '\r' && l.peekRune() == '\n':
			start := l.pos
			l.readRune()
			l.readRune()
			out = append(out, token.TriviaPiece{Kind: token.Newline, Text: l.input[start:l.pos]})
		case l.ch == '\n':
			start := l.pos
			l.readRune()
			out = append(out, token.TriviaPiece{Kind: token.Newline, Text: l.input[start:l.pos]})
		case l.ch == ';' && l.peekRune() == ';':
			start := l.pos
			for !l.atEOF && l.ch != '\n' && !(l.ch == '\r' && l.peekRune() == '\n') {
				l.readRune()
			}
			out = append(out, token.TriviaPiece{Kind: token.Comment, Text: l.input[start:l.pos]})
		default:
			return out
		}
	}
	return out
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// scanToken recognizes exactly one significant token at the current
// position (trivia already consumed by the caller).
func (l *Lexer) scanToken() token.Token {
	if l.atEOF {
		return token.Token{Kind: token.EOF, Span: token.Span{Start: l.pos, Length: 0}}
	}

	start := l.pos

	switch {
	case l.ch == '(':
		l.readRune()
		return l.finish(token.LeftParen, start)
	case l.ch == ')':
		l.readRune()
		return l.finish(token.RightParen, start)
	case l.ch == '"':
		return l.scanString(start)
	case l.ch == '$':
		return l.scanBlackboard(start)
	case l.ch == '.' && isIdentStart(l.peekRune()):
		return l.scanMemberAccess(start)
	case l.ch == ':' && l.peekRune() == ':':
		return l.scanEnumLiteral(start)
	case l.ch == ':' && isIdentStart(l.peekRune()):
		return l.scanKeyword(start)
	case l.ch == '-' && l.canStartNegativeNumber() && (isDigit(l.peekRune())):
		return l.scanNumber(start)
	case isDigit(l.ch):
		return l.scanNumber(start)
	case isIdentStart(l.ch):
		return l.scanIdentifier(start)
	}

	return l.scanOperatorOrIllegal(start)
}

func (l *Lexer) finish(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Text: l.input[start:l.pos], Span: token.Span{Start: start, Length: l.pos - start}}
}

// canStartNegativeNumber implements the lexer's sole disambiguation rule
// (spec.md §4.1): a leading '-' belongs to a numeric literal when it starts
// the input, when the preceding significant token is an operator or a
// keyword, or when whitespace separates it from any other preceding token
// (so the `-1` in `(> .Health -1)` is one literal). A '-' directly after
// '(' or glued to the previous token is the Minus operator.
func (l *Lexer) canStartNegativeNumber() bool {
	if !l.haveLast {
		return true
	}
	switch l.lastKind {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.LessThan, token.GreaterThan, token.LessEqual, token.GreaterEqual,
		token.Equal, token.NotEqual, token.Keyword:
		return true
	default:
		return l.sawWhitespaceSinceLast
	}
}

func (l *Lexer) scanNumber(start int) token.Token {
	if l.ch == '-' {
		l.readRune()
	}
	for isDigit(l.ch) {
		l.readRune()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekRune()) {
		isFloat = true
		l.readRune()
		for isDigit(l.ch) {
			l.readRune()
		}
	}
	if isFloat {
		return l.finish(token.FloatLiteral, start)
	}
	return l.finish(token.IntLiteral, start)
}

func (l *Lexer) scanIdentifier(start int) token.Token {
	for isIdentPart(l.ch) {
		l.readRune()
	}
	text := l.input[start:l.pos]
	switch text {
	case "true":
		return token.Token{Kind: token.BoolTrue, Text: text, Span: token.Span{Start: start, Length: len(text)}}
	case "false":
		return token.Token{Kind: token.BoolFalse, Text: text, Span: token.Span{Start: start, Length: len(text)}}
	case "null":
		return token.Token{Kind: token.NullLiteral, Text: text, Span: token.Span{Start: start, Length: len(text)}}
	default:
		return token.Token{Kind: token.Identifier, Text: text, Span: token.Span{Start: start, Length: len(text)}}
	}
}

func (l *Lexer) scanString(start int) token.Token {
	l.readRune() // consume opening quote
	var sb strings.Builder
	sb.WriteByte('"')
	for !l.atEOF && l.ch != '"' {
		if l.ch == '\\' {
			sb.WriteRune(l.ch)
			l.readRune()
			if !l.atEOF {
				sb.WriteRune(l.ch)
				l.readRune()
			}
			continue
		}
		sb.WriteRune(l.ch)
		l.readRune()
	}
	if l.ch == '"' {
		sb.WriteByte('"')
		l.readRune()
	}
	return token.Token{Kind: token.StringLiteral, Text: sb.String(), Span: token.Span{Start: start, Length: l.pos - start}}
}

func (l *Lexer) scanMemberAccessPath() {
	for l.ch == '.' && isIdentStart(l.peekRune()) {
		l.readRune() // '.'
		for isIdentPart(l.ch) {
			l.readRune()
		}
	}
}

func (l *Lexer) scanMemberAccess(start int) token.Token {
	l.scanMemberAccessPath()
	return l.finish(token.MemberAccess, start)
}

func (l *Lexer) scanBlackboard(start int) token.Token {
	l.readRune() // '$'
	if isIdentStart(l.ch) {
		for isIdentPart(l.ch) {
			l.readRune()
		}
		l.scanMemberAccessPath()
		return l.finish(token.BlackboardAccess, start)
	}
	return l.finish(token.Illegal, start)
}

func (l *Lexer) scanEnumLiteral(start int) token.Token {
	l.readRune() // first ':'
	l.readRune() // second ':'
	if isIdentStart(l.ch) {
		for isIdentPart(l.ch) {
			l.readRune()
		}
	}
	if l.ch == '.' {
		l.readRune()
		for isIdentPart(l.ch) {
			l.readRune()
		}
	}
	return l.finish(token.EnumLiteral, start)
}

func (l *Lexer) scanKeyword(start int) token.Token {
	l.readRune() // ':'
	for isIdentPart(l.ch) {
		l.readRune()
	}
	return l.finish(token.Keyword, start)
}

func (l *Lexer) scanOperatorOrIllegal(start int) token.Token {
	ch := l.ch
	l.readRune()
	switch ch {
	case '+':
		return l.finish(token.Plus, start)
	case '-':
		return l.finish(token.Minus, start)
	case '*':
		return l.finish(token.Star, start)
	case '/':
		return l.finish(token.Slash, start)
	case '%':
		return l.finish(token.Percent, start)
	case '<':
		if l.ch == '=' {
			l.readRune()
			return l.finish(token.LessEqual, start)
		}
		return l.finish(token.LessThan, start)
	case '>':
		if l.ch == '=' {
			l.readRune()
			return l.finish(token.GreaterEqual, start)
		}
		return l.finish(token.GreaterThan, start)
	case '=':
		return l.finish(token.Equal, start)
	case '!':
		if l.ch == '=' {
			l.readRune()
			return l.finish(token.NotEqual, start)
		}
		return l.finish(token.Illegal, start)
	default:
		return l.finish(token.Illegal, start)
	}
}
