// Package cst implements the lossless concrete syntax tree described in
// spec.md §3/§4.2: a node holds its constituent tokens verbatim (including
// parentheses and keyword identifiers) plus ordered child nodes, such that
// concatenating every token's full text in document order reproduces the
// original source byte-for-byte.
package cst

import "github.com/crisp-lang/crisp/internal/token"

// Kind identifies which surface-syntax production a Node represents.
type Kind int

const (
	KProgram Kind = iota
	KTree
	KSelect
	KSequence
	KParallel
	KCheck
	KGuard
	KIf
	KInvert
	KRepeat
	KTimeout
	KCooldown
	KWhile
	KReactive
	KReactiveSelect
	KRef
	KDefdec
	KDefmacro
	KDefdecCall
	KBodyPlaceholder
	KImport
	KCall
	KMemberAccess
	KBlackboardAccess
	KIntLiteral
	KFloatLiteral
	KStringLiteral
	KBoolLiteral
	KNullLiteral
	KEnumLiteral
	KBinaryExpr
	KUnaryExpr
	KLogicExpr
	KParamRef
	KMissing
	KError
)

// Element is one ordered constituent of a Node: either a verbatim Token or
// a child Node. Storing both kinds of constituent in one ordered sequence
// is what makes FullText a trivial concatenation (the "green tree" shape
// behind Roslyn/rust-analyzer-style lossless trees).
type Element struct {
	Tok   *token.Token
	Child *Node
}

// Node is a single CST node: its syntactic Kind, the ordered sequence of
// tokens and children that reconstructs it byte-for-byte, plus a handful of
// kind-specific convenience fields so downstream passes don't need to
// re-scan Elements to find "the name" or "the operator".
type Node struct {
	Kind     Kind
	Elements []Element

	// Convenience views, derived at construction time from Elements.
	Name           string        // Tree/Defdec/Defmacro/DefdecCall/Ref name; dotted path text for MemberAccess/BlackboardAccess
	Operator       token.Kind    // BinaryExpr/UnaryExpr/LogicExpr operator token kind
	Policy         string        // Parallel policy: "any", "all", or "n"
	PolicyN        int           // Parallel :n count, valid when Policy == "n"
	BlackboardType string        // Tree's optional ":blackboard TYPE" annotation
	Params         []string      // Defdec/Defmacro parameter names
	Children       []*Node       // every child Node, in order (subset of Elements)
	Tokens         []token.Token // every token owned directly by this node, in order (subset of Elements)
}

// NewLeaf builds a token-only node (a literal, a bare member access, a
// blackboard access, a ref target identifier).
func NewLeaf(kind Kind, tok token.Token) *Node {
	n := &Node{Kind: kind}
	n.appendToken(tok)
	return n
}

// NewComposite builds a node from an ordered list of elements.
func NewComposite(kind Kind, elements ...Element) *Node {
	n := &Node{Kind: kind}
	for _, e := range elements {
		if e.Tok != nil {
			n.appendToken(*e.Tok)
		} else if e.Child != nil {
			n.appendChild(e.Child)
		}
	}
	return n
}

func (n *Node) appendToken(t token.Token) {
	n.Elements = append(n.Elements, Element{Tok: &t})
	n.Tokens = append(n.Tokens, t)
}

func (n *Node) appendChild(c *Node) {
	n.Elements = append(n.Elements, Element{Child: c})
	n.Children = append(n.Children, c)
}

// Tok is a convenience constructor for an Element wrapping a token.
func Tok(t token.Token) Element { return Element{Tok: &t} }

// Child is a convenience constructor for an Element wrapping a child node.
func Child(n *Node) Element { return Element{Child: n} }

// FullText reconstructs this node's exact source text, including all
// leading/trailing trivia of every token it (directly or transitively)
// owns. parse(text).Program.FullText() == text is the CST round-trip
// invariant (spec.md §3, §8).
func (n *Node) FullText() string {
	if n == nil {
		return ""
	}
	var out string
	for _, e := range n.Elements {
		if e.Tok != nil {
			out += e.Tok.FullText()
		} else if e.Child != nil {
			out += e.Child.FullText()
		}
	}
	return out
}

// Span returns the byte range covered by this node's own tokens (not
// trivia), from the first token's start to the last token's end. Used to
// anchor diagnostics and AST back-pointers.
func (n *Node) Span() token.Span {
	first, ok := n.firstToken()
	if !ok {
		return token.Span{}
	}
	last, _ := n.lastToken()
	return token.Span{Start: first.Span.Start, Length: last.Span.End() - first.Span.Start}
}

func (n *Node) firstToken() (token.Token, bool) {
	for _, e := range n.Elements {
		if e.Tok != nil {
			return *e.Tok, true
		}
		if e.Child != nil {
			if t, ok := e.Child.firstToken(); ok {
				return t, true
			}
		}
	}
	return token.Token{}, false
}

func (n *Node) lastToken() (token.Token, bool) {
	for i := len(n.Elements) - 1; i >= 0; i-- {
		e := n.Elements[i]
		if e.Tok != nil {
			return *e.Tok, true
		}
		if e.Child != nil {
			if t, ok := e.Child.lastToken(); ok {
				return t, true
			}
		}
	}
	return token.Token{}, false
}
