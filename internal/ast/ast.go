// Package ast defines the abstract syntax tree produced by lowering a CST
// (spec.md §3 "AST"). Node variants form a closed set, so — mirroring the
// teacher's bytecode.Value tagged-union ({Data interface{}, Type ValueType})
// rather than an open class hierarchy — a single Node struct carries a Kind
// tag plus only the fields its kind uses, and callers exhaustively switch on
// Kind instead of type-asserting through an open interface set.
package ast

import (
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/token"
)

// Kind identifies which AST production a Node represents.
type Kind int

const (
	KProgram Kind = iota
	KTree
	KSelector
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
	KActionCall // node-position call (bare member access or parenthesized)
	KCallExpr   // expression-position call
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
)

// ParallelPolicy is the resolved Parallel success policy (spec.md §3).
type ParallelPolicy int

const (
	PolicyAll ParallelPolicy = iota
	PolicyAny
	PolicyN
)

func (p ParallelPolicy) String() string {
	switch p {
	case PolicyAny:
		return "Any"
	case PolicyN:
		return "N"
	default:
		return "All"
	}
}

// Node is a single AST node. Origin is a non-nil back-pointer to the CST
// node it was lowered from, used to anchor later-stage diagnostics to a
// source span (spec.md §3, §9 "Back-pointers").
type Node struct {
	Kind   Kind
	Origin *cst.Node

	Name           string // Tree/Defdec/Defmacro/DefdecCall/Ref/ActionCall/ParamRef name
	BlackboardType string

	// Program only.
	Trees     []*Node
	Defdecs   []*Node
	Defmacros []*Node

	// Variadic composites: Select/Sequence/ReactiveSelect/Parallel children.
	// DefdecCall/ActionCall/CallExpr arguments live in Args.
	Children []*Node

	// Defdec/Defmacro.
	Params []string
	Body   *Node // Defdec/Defmacro body, or the single node-position child of
	             // Guard/While/Reactive/Repeat/Timeout/Cooldown; contains
	             // BodyPlaceholder node(s) pre-expansion in a macro/decorator

	// Single/double/triple fixed-arity slots.
	Cond   *Node // Check/Guard/If/While/Reactive
	Then   *Node // If
	Else   *Node // If, optional
	Target *Node // Invert's child

	Count       int     // Repeat, when the count is a literal
	CountExpr   *Node   // Repeat, when the count is a ParamRef/BodyPlaceholder
	Seconds     float32 // Timeout/Cooldown, when the duration is a literal
	DurationExpr *Node  // Timeout/Cooldown, when the duration is a ParamRef/BodyPlaceholder

	Policy  ParallelPolicy
	PolicyN int

	// Ref.
	RefName      string
	ResolvedTree *Node // populated by the reference resolver (spec.md §4.6, §9)

	// Binary/Unary/Logic operator, using the CST's surface spelling
	// ("<", ">", "<=", ">=", "=", "!=", "+", "-", "*", "/", "%", "not",
	// "negate", "and", "or").
	Operator string
	Left     *Node
	Right    *Node
	Operand  *Node
	Operands []*Node // LogicExpr (and/or take 2+ operands)

	// Call (ActionCall/CallExpr): member path split into DeclaringType +
	// MemberName by AST→IR lowering; here just the raw dotted path.
	Path string
	Args []*Node

	// Literal values.
	IntValue    int32
	FloatValue  float32
	StringValue string
	BoolValue   bool
	EnumType    string
	EnumMember  string
}

// Span exposes the originating CST node's source span, for diagnostics.
func (n *Node) Span() token.Span {
	if n == nil || n.Origin == nil {
		return token.Span{}
	}
	return n.Origin.Span()
}
