// Package token defines the lexical tokens of the Crisp surface language
// and the trivia (whitespace, newlines, comments) attached to them so that
// a token sequence can be rendered back into its original source text.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Illegal Kind = iota
	EOF

	LeftParen
	RightParen

	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral
	BoolTrue
	BoolFalse
	NullLiteral
	MemberAccess
	BlackboardAccess
	EnumLiteral
	Keyword

	Plus
	Minus
	Star
	Slash
	Percent
	LessThan
	GreaterThan
	LessEqual
	GreaterEqual
	Equal
	NotEqual
)

// String renders a Kind as a human-readable name, used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Illegal:
		return "Illegal"
	case EOF:
		return "EOF"
	case LeftParen:
		return "LeftParen"
	case RightParen:
		return "RightParen"
	case Identifier:
		return "Identifier"
	case IntLiteral:
		return "IntLiteral"
	case FloatLiteral:
		return "FloatLiteral"
	case StringLiteral:
		return "StringLiteral"
	case BoolTrue:
		return "BoolTrue"
	case BoolFalse:
		return "BoolFalse"
	case NullLiteral:
		return "NullLiteral"
	case MemberAccess:
		return "MemberAccess"
	case BlackboardAccess:
		return "BlackboardAccess"
	case EnumLiteral:
		return "EnumLiteral"
	case Keyword:
		return "Keyword"
	case Plus:
		return "Plus"
	case Minus:
		return "Minus"
	case Star:
		return "Star"
	case Slash:
		return "Slash"
	case Percent:
		return "Percent"
	case LessThan:
		return "LessThan"
	case GreaterThan:
		return "GreaterThan"
	case LessEqual:
		return "LessEqual"
	case GreaterEqual:
		return "GreaterEqual"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	default:
		return "Unknown"
	}
}

// Span is a half-open [Start, Start+Length) byte range into the source text.
type Span struct {
	Start  int
	Length int
}

// End returns the exclusive end offset of the span.
func (s Span) End() int { return s.Start + s.Length }

// String renders the span as "[start,end)" for diagnostics.
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End())
}

// TriviaKind categorizes insignificant source content attached to a Token.
type TriviaKind int

const (
	Whitespace TriviaKind = iota
	Newline
	Comment
)

// TriviaPiece is a single run of insignificant source text (whitespace, a
// newline, or a line comment) attached to a Token's leading or trailing side.
type TriviaPiece struct {
	Kind TriviaKind
	Text string
}

// Token is a single lexical unit: its kind, raw source text, span, and the
// leading/trailing trivia runs accumulated around it. Concatenating every
// token's (leading trivia + Text + trailing trivia) in document order
// reproduces the original source byte-for-byte — this is the lossless
// round-trip invariant the CST layer depends on.
type Token struct {
	Kind     Kind
	Text     string
	Span     Span
	Leading  []TriviaPiece
	Trailing []TriviaPiece
}

// FullText renders the token together with its surrounding trivia.
func (t Token) FullText() string {
	var out string
	for _, tr := range t.Leading {
		out += tr.Text
	}
	out += t.Text
	for _, tr := range t.Trailing {
		out += tr.Text
	}
	return out
}

// IsMissing reports whether this token was synthesized by error recovery
// rather than scanned from source (empty span, empty text).
func (t Token) IsMissing() bool {
	return t.Text == "" && t.Span.Length == 0
}
