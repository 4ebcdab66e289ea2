// Package ir defines the typed intermediate representation produced by
// AST→IR lowering (spec.md §3 "IR", §4.7). Like internal/ast and
// internal/cst, node variants form a closed set carried by a single
// tagged-union Node struct rather than an open class hierarchy.
package ir

import "github.com/crisp-lang/crisp/internal/ast"

// Kind identifies which IR production a Node represents.
type Kind int

const (
	KTree Kind = iota
	KSelector
	KSequence
	KParallel
	KGuard
	KIf
	KInvert
	KRepeat
	KTimeout
	KCooldown
	KWhile
	KReactive
	KReactiveSelect
	KTreeRef
	KCondition
	KAction
	KCall
	KBinaryOp
	KUnaryOp
	KLogicOp
	KLiteral
	KMemberLoad
	KBlackboardLoad
	KConvert
)

// Well-known TypeRef spellings (spec.md §3, §4.7). TypeRef is otherwise an
// open string (an opaque host type name is valid too), so these are just
// the names the lowering itself ever produces.
const (
	TypeInt      = "Int"
	TypeFloat    = "Float"
	TypeBool     = "Bool"
	TypeString   = "String"
	TypeNull     = "Null"
	TypeBtStatus = "BtStatus"
	TypeUnknown  = "unknown"
)

// Node is a single IR node. Id is assigned pre-order by the lowering
// (spec.md §4.7 "Id assignment"); the serialized form carries no ids, and
// deserialization renumbers with the same pre-order walk, so an
// unoptimized tree gets its ids back while gaps the optimizer left are
// closed up. Origin threads back to the AST node the IR node was
// lowered from, carried through optimizer rewrites where semantic
// identity survives (spec.md §4.8).
type Node struct {
	Kind   Kind
	Id     int
	Type   string // TypeRef; spec.md §3 "every node carries a TypeRef"
	Origin *ast.Node

	// Tree.
	Name string // Tree name, TreeRef target name

	// Variadic composites: Selector/Sequence/Parallel/LogicOp.
	Children []*Node
	Operands []*Node

	// Single/double/triple fixed-arity slots.
	Cond   *Node // Guard/If/While/Reactive condition, or Condition's expr
	Body   *Node // Guard/While/Reactive/Repeat/Timeout/Cooldown body
	Then   *Node // If
	Else   *Node // If, optional
	Target *Node // Invert's child

	Count   int     // Repeat
	Seconds float32 // Timeout/Cooldown

	Policy  ast.ParallelPolicy
	PolicyN int

	// Action/Call.
	DeclaringType string // "this" for a single-segment member path
	MemberName    string
	Args          []*Node

	// BinaryOp/UnaryOp/LogicOp. Operator keeps the AST's surface spelling.
	Operator string
	Left     *Node
	Right    *Node
	Operand  *Node // UnaryOp operand, or Convert's source node

	// Convert.
	ToType string

	// MemberLoad/BlackboardLoad.
	Chain []string

	// Literal.
	IntValue    int32
	FloatValue  float32
	StringValue string
	BoolValue   bool
	IsNull      bool
	EnumType    string
	EnumMember  string
}
