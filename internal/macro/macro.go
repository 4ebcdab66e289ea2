// Package macro implements the macro expander (spec.md §4.4): AST-level
// substitution of defmacro call sites with their expanded bodies, run to a
// bounded depth with cycle detection.
package macro

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/diag"
)

// maxDepth bounds total macro expansion (spec.md §4.4's "depth counter").
const maxDepth = 64

// memoSize bounds the expansion memo cache (see expander.cache): large
// enough that a tree with a few hundred distinct call sites never evicts
// an entry it will need again within the same Expand call.
const memoSize = 256

// Expand replaces every AstDefdecCall whose name matches a defmacro with
// that macro's expanded body, recursively (macros may expand to other
// macros), and returns new trees with the substitutions applied. defdec
// calls (no matching defmacro) are left untouched for the decorator
// expander.
func Expand(trees []*ast.Node, defmacros []*ast.Node, bag *diag.Bag) []*ast.Node {
	table := make(map[string]*ast.Node, len(defmacros))
	for _, m := range defmacros {
		table[m.Name] = m
	}
	cache, _ := lru.New[string, *ast.Node](memoSize)
	e := &expander{table: table, bag: bag, cache: cache}
	out := make([]*ast.Node, len(trees))
	for i, t := range trees {
		out[i] = e.expandTree(t)
	}
	return out
}

type expander struct {
	table map[string]*ast.Node
	bag   *diag.Bag

	// cache memoizes a fully-expanded call site by (macro name, argument
	// source text) for the duration of one Expand call: a call site that
	// repeats an earlier one textually is served from the cache instead of
	// a full substitute-then-recurse walk of the macro body. Each Expand
	// call starts with an empty cache.
	cache *lru.Cache[string, *ast.Node]
}

func (e *expander) expandTree(t *ast.Node) *ast.Node {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Body = e.expandNode(t.Body, map[string]bool{}, 0)
	return &clone
}

// expandNode walks every AST node reachable from n, expanding any
// AstDefdecCall matching a known macro in place and recursing into the
// substituted result so nested macro calls also expand.
func (e *expander) expandNode(n *ast.Node, expanding map[string]bool, depth int) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KDefdecCall {
		if m, ok := e.table[n.Name]; ok {
			return e.expandCall(n, m, expanding, depth)
		}
	}
	clone := *n
	clone.Children = e.expandList(n.Children, expanding, depth)
	clone.Body = e.expandNode(n.Body, expanding, depth)
	clone.Cond = e.expandNode(n.Cond, expanding, depth)
	clone.Then = e.expandNode(n.Then, expanding, depth)
	clone.Else = e.expandNode(n.Else, expanding, depth)
	clone.Target = e.expandNode(n.Target, expanding, depth)
	clone.CountExpr = e.expandNode(n.CountExpr, expanding, depth)
	clone.DurationExpr = e.expandNode(n.DurationExpr, expanding, depth)
	clone.Left = e.expandNode(n.Left, expanding, depth)
	clone.Right = e.expandNode(n.Right, expanding, depth)
	clone.Operand = e.expandNode(n.Operand, expanding, depth)
	clone.Operands = e.expandList(n.Operands, expanding, depth)
	clone.Args = e.expandList(n.Args, expanding, depth)
	return &clone
}

func (e *expander) expandList(list []*ast.Node, expanding map[string]bool, depth int) []*ast.Node {
	if list == nil {
		return nil
	}
	out := make([]*ast.Node, len(list))
	for i, c := range list {
		out[i] = e.expandNode(c, expanding, depth)
	}
	return out
}

// expandCall binds a macro's declared parameters and its implicit trailing
// body argument, substitutes them into the macro body template, and
// recursively expands the result. The call convention is
// `(name param1 ... paramK body)`: every macro/decorator call supplies
// exactly one argument per declared parameter plus a final argument that
// fills the `<body>` placeholder (spec.md's worked examples consistently
// show this shape: a zero-param macro call like `(retry .Attack)` has a
// single argument that is entirely the body).
func (e *expander) expandCall(call, m *ast.Node, expanding map[string]bool, depth int) *ast.Node {
	if depth >= maxDepth {
		e.bag.Add("BS0033", call.Span(), maxDepth)
		return call
	}
	if expanding[m.Name] {
		e.bag.Add("BS0034", call.Span(), m.Name)
		return call
	}
	key := memoKey(m.Name, call.Args)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return deepClone(cached)
		}
	}
	nParams := len(m.Params)
	if len(call.Args) != nParams+1 {
		got := len(call.Args) - 1
		if got < 0 {
			got = 0
		}
		e.bag.Add("BS0032", call.Span(), m.Name, nParams, got)
		return call
	}
	bindings := make(map[string]*ast.Node, nParams)
	for i, p := range m.Params {
		bindings[p] = call.Args[i]
	}
	substituted := substituteNode(m.Body, bindings, bodyArgFor(call.Args[nParams], e.bag))
	if substituted == nil {
		e.bag.Add("BS0035", call.Span(), m.Name)
		return call
	}
	next := make(map[string]bool, len(expanding)+1)
	for k := range expanding {
		next[k] = true
	}
	next[m.Name] = true
	result := e.expandNode(substituted, next, depth+1)
	if e.cache != nil {
		e.cache.Add(key, result)
	}
	return result
}

// memoKey fingerprints a call site by macro name plus each argument's
// original source text, so two call sites that pass textually identical
// arguments share one expansion result.
func memoKey(name string, args []*ast.Node) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte('\x1f')
		if a != nil && a.Origin != nil {
			sb.WriteString(a.Origin.FullText())
		}
	}
	return sb.String()
}

// bodyArgFor re-lowers the call's trailing argument at node position. Call
// arguments always lower through LowerExpr (spec.md §4.3: "every call
// argument... lowers via lowerExpr", see internal/ast), so a bare member
// access like `.Attack` is an AstMemberAccess there; once substituted for
// `<body>` it occupies a node-position slot (a Repeat's body, an Invert's
// target...) and must read back as an AstActionCall instead. Re-lowering
// its originating CST node, rather than reinterpreting the already-lowered
// AST node in place, keeps the two lowering functions as the single source
// of truth for the position disambiguation rule.
func bodyArgFor(arg *ast.Node, bag *diag.Bag) *ast.Node {
	if arg == nil || arg.Origin == nil {
		return arg
	}
	return ast.LowerNodeForm(arg.Origin, bag)
}

// substituteNode deep-clones body, replacing each ParamRef bound in
// bindings with a clone of its argument and each BodyPlaceholder with a
// clone of bodyArg. A ParamRef with no binding is left as-is: spec.md §9
// documents this substitution as deliberately simplified, so an
// unresolvable parameter survives rather than being treated as an error
// here (a later stage can flag one that reaches IR unexpanded).
func substituteNode(n *ast.Node, bindings map[string]*ast.Node, bodyArg *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.KParamRef:
		if arg, ok := bindings[n.Name]; ok {
			return deepClone(arg)
		}
		return n
	case ast.KBodyPlaceholder:
		if bodyArg != nil {
			return deepClone(bodyArg)
		}
		return n
	}
	clone := *n
	clone.Children = substituteList(n.Children, bindings, bodyArg)
	clone.Body = substituteNode(n.Body, bindings, bodyArg)
	clone.Cond = substituteNode(n.Cond, bindings, bodyArg)
	clone.Then = substituteNode(n.Then, bindings, bodyArg)
	clone.Else = substituteNode(n.Else, bindings, bodyArg)
	clone.Target = substituteNode(n.Target, bindings, bodyArg)
	clone.CountExpr = substituteNode(n.CountExpr, bindings, bodyArg)
	clone.DurationExpr = substituteNode(n.DurationExpr, bindings, bodyArg)
	clone.Left = substituteNode(n.Left, bindings, bodyArg)
	clone.Right = substituteNode(n.Right, bindings, bodyArg)
	clone.Operand = substituteNode(n.Operand, bindings, bodyArg)
	clone.Operands = substituteList(n.Operands, bindings, bodyArg)
	clone.Args = substituteList(n.Args, bindings, bodyArg)
	resolveLiteralSlots(&clone)
	return &clone
}

// resolveLiteralSlots folds a Repeat/Timeout/Cooldown's dynamic count or
// duration expression back into its literal field once substitution has
// turned a ParamRef into a concrete literal (e.g. `(capped 5 .Attack)`
// binding a Repeat's count parameter to the literal 5).
func resolveLiteralSlots(n *ast.Node) {
	if n.Kind == ast.KRepeat && n.CountExpr != nil && n.CountExpr.Kind == ast.KIntLiteral {
		n.Count = int(n.CountExpr.IntValue)
		n.CountExpr = nil
	}
	if (n.Kind == ast.KTimeout || n.Kind == ast.KCooldown) && n.DurationExpr != nil {
		switch n.DurationExpr.Kind {
		case ast.KIntLiteral:
			n.Seconds = float32(n.DurationExpr.IntValue)
			n.DurationExpr = nil
		case ast.KFloatLiteral:
			n.Seconds = n.DurationExpr.FloatValue
			n.DurationExpr = nil
		}
	}
}

func substituteList(list []*ast.Node, bindings map[string]*ast.Node, bodyArg *ast.Node) []*ast.Node {
	if list == nil {
		return nil
	}
	out := make([]*ast.Node, len(list))
	for i, c := range list {
		out[i] = substituteNode(c, bindings, bodyArg)
	}
	return out
}

func deepClone(n *ast.Node) *ast.Node {
	return substituteNode(n, nil, nil)
}
