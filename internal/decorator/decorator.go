// Package decorator implements the decorator expander (spec.md §4.5):
// AST-level inlining of AstDefdecCall sites against their defdec
// declarations. It runs after macro expansion, against whatever
// AstDefdecCall nodes the macro expander left untouched.
package decorator

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/diag"
)

// memoSize bounds the expansion memo cache, mirroring internal/macro's.
const memoSize = 256

// Expand replaces every AstDefdecCall whose name matches a defdec with
// that defdec's expanded body, recursively (a defdec body may itself call
// another defdec). A call naming neither a defdec is reported as BS0023
// and left as-is; spec.md's decorator stage has no depth-cap diagnostic
// of its own, so the expanding name-set is the only recursion guard.
func Expand(trees []*ast.Node, defdecs []*ast.Node, bag *diag.Bag) []*ast.Node {
	table := make(map[string]*ast.Node, len(defdecs))
	for _, d := range defdecs {
		table[d.Name] = d
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

	// cache memoizes a fully-expanded call site by (defdec name, argument
	// source text) for the duration of one Expand call, the same
	// memoization internal/macro applies to defmacro calls.
	cache *lru.Cache[string, *ast.Node]
}

func (e *expander) expandTree(t *ast.Node) *ast.Node {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Body = e.expandNode(t.Body, map[string]bool{})
	return &clone
}

// expandNode walks every AST node reachable from n, expanding any
// AstDefdecCall matching a known defdec in place and recursing into the
// substituted result so nested decorator calls also expand.
func (e *expander) expandNode(n *ast.Node, expanding map[string]bool) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ast.KDefdecCall {
		d, ok := e.table[n.Name]
		if !ok {
			e.bag.Add("BS0023", n.Span(), n.Name)
			return e.expandChildren(n, expanding)
		}
		return e.expandCall(n, d, expanding)
	}
	return e.expandChildren(n, expanding)
}

func (e *expander) expandChildren(n *ast.Node, expanding map[string]bool) *ast.Node {
	clone := *n
	clone.Children = e.expandList(n.Children, expanding)
	clone.Body = e.expandNode(n.Body, expanding)
	clone.Cond = e.expandNode(n.Cond, expanding)
	clone.Then = e.expandNode(n.Then, expanding)
	clone.Else = e.expandNode(n.Else, expanding)
	clone.Target = e.expandNode(n.Target, expanding)
	clone.CountExpr = e.expandNode(n.CountExpr, expanding)
	clone.DurationExpr = e.expandNode(n.DurationExpr, expanding)
	clone.Left = e.expandNode(n.Left, expanding)
	clone.Right = e.expandNode(n.Right, expanding)
	clone.Operand = e.expandNode(n.Operand, expanding)
	clone.Operands = e.expandList(n.Operands, expanding)
	clone.Args = e.expandList(n.Args, expanding)
	return &clone
}

func (e *expander) expandList(list []*ast.Node, expanding map[string]bool) []*ast.Node {
	if list == nil {
		return nil
	}
	out := make([]*ast.Node, len(list))
	for i, c := range list {
		out[i] = e.expandNode(c, expanding)
	}
	return out
}

// expandCall binds a defdec's declared parameters and its implicit
// trailing body argument, substitutes them into the defdec body template,
// and recursively expands the result, following the same
// `(name param1 ... paramK body)` call convention as internal/macro.
func (e *expander) expandCall(call, d *ast.Node, expanding map[string]bool) *ast.Node {
	if expanding[d.Name] {
		e.bag.Add("BS0025", call.Span(), d.Name)
		return call
	}
	key := memoKey(d.Name, call.Args)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return deepClone(cached)
		}
	}
	nParams := len(d.Params)
	if len(call.Args) != nParams+1 {
		got := len(call.Args) - 1
		if got < 0 {
			got = 0
		}
		e.bag.Add("BS0024", call.Span(), d.Name, nParams, got)
		return call
	}
	bindings := make(map[string]*ast.Node, nParams)
	for i, p := range d.Params {
		bindings[p] = call.Args[i]
	}
	substituted := substituteNode(d.Body, bindings, bodyArgFor(call.Args[nParams], e.bag))
	next := make(map[string]bool, len(expanding)+1)
	for k := range expanding {
		next[k] = true
	}
	next[d.Name] = true
	result := e.expandNode(substituted, next)
	if e.cache != nil {
		e.cache.Add(key, result)
	}
	return result
}

// memoKey fingerprints a call site by defdec name plus each argument's
// original source text, mirroring internal/macro's memoKey.
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

// bodyArgFor re-lowers the call's trailing argument at node position, for
// the same reason internal/macro does: call arguments lower via LowerExpr,
// so a bare member access like `.Attack` is an AstMemberAccess there, but
// once substituted for `<body>` it occupies a node-position slot and must
// read back as an AstActionCall.
func bodyArgFor(arg *ast.Node, bag *diag.Bag) *ast.Node {
	if arg == nil || arg.Origin == nil {
		return arg
	}
	return ast.LowerNodeForm(arg.Origin, bag)
}

// substituteNode deep-clones body, replacing each ParamRef bound in
// bindings with a clone of its argument and each BodyPlaceholder with a
// clone of bodyArg.
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

// resolveLiteralSlots mirrors internal/macro's literal-folding step: once
// substitution turns a Repeat/Timeout/Cooldown's dynamic count or duration
// into a concrete literal, fold it back into the literal field.
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
