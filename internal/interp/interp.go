// Package interp implements the tree-walking interpreter used for
// hot-reload execution (spec.md §4.11): Tick(node, ctx) evaluates one IR
// tree one step, reading values from a host context object and an
// optional blackboard, and returns {Success, Failure, Running}.
package interp

import (
	"fmt"
	"reflect"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/ir"
)

// nodeState holds the per-node-id mutable state stateful decorators need
// across ticks (spec.md §4.11 "the interpreter maintains a per-node state
// map keyed by node identity"). One struct covers every decorator kind,
// the same tagged-fields-over-one-struct shape internal/ir.Node and its
// sibling packages already use for their own closed variant sets.
type nodeState struct {
	elapsed      float32 // Timeout: accumulated Running time
	remaining    float32 // Cooldown: remaining lockout time
	count        int     // Repeat: completed successful iterations
	bodyRunning  bool    // Reactive: whether the body was Running last tick
	runningIndex int     // ReactiveSelect: index of the child Running last tick, -1 if none
}

// Interpreter ticks IR trees and owns the state map that backs stateful
// decorators. Concurrent ticks of the same Interpreter are undefined
// behavior (spec.md §5); IR itself is immutable, so distinct Interpreter
// instances over the same tree are independent.
type Interpreter struct {
	states map[int]*nodeState
}

// New returns an Interpreter with an empty state map.
func New() *Interpreter {
	return &Interpreter{states: make(map[int]*nodeState)}
}

// Reset clears the per-node state map (spec.md §4.11), used for
// hot-reload and test isolation.
func (it *Interpreter) Reset() {
	it.states = make(map[int]*nodeState)
}

func (it *Interpreter) state(id int) *nodeState {
	s, ok := it.states[id]
	if !ok {
		s = &nodeState{runningIndex: -1}
		it.states[id] = s
	}
	return s
}

// resetSubtree clears the state of n and every node it contains,
// implementing the "abort invokes Reset on the aborted subtree" rule
// spec.md §5 describes for Reactive and Timeout.
func (it *Interpreter) resetSubtree(n *ir.Node) {
	if n == nil {
		return
	}
	delete(it.states, n.Id)
	it.resetSubtree(n.Cond)
	it.resetSubtree(n.Body)
	it.resetSubtree(n.Then)
	it.resetSubtree(n.Else)
	it.resetSubtree(n.Target)
	it.resetSubtree(n.Left)
	it.resetSubtree(n.Right)
	it.resetSubtree(n.Operand)
	for _, c := range n.Children {
		it.resetSubtree(c)
	}
	for _, o := range n.Operands {
		it.resetSubtree(o)
	}
	for _, a := range n.Args {
		it.resetSubtree(a)
	}
}

// Tick evaluates one node one step (spec.md §4.11's "Node semantics").
// ctx is the host behavior-tree agent; bb is an optional blackboard
// object (may be nil if the tree never uses blackboard access); dt is the
// delta-time since the previous tick, consumed by Timeout and Cooldown.
func (it *Interpreter) Tick(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	if n == nil {
		return Failure, nil
	}
	switch n.Kind {
	case ir.KTree:
		return it.Tick(n.Body, ctx, bb, dt)

	case ir.KSelector:
		for _, c := range n.Children {
			st, err := it.Tick(c, ctx, bb, dt)
			if err != nil {
				return Failure, err
			}
			if st != Failure {
				return st, nil
			}
		}
		return Failure, nil

	case ir.KSequence:
		for _, c := range n.Children {
			st, err := it.Tick(c, ctx, bb, dt)
			if err != nil {
				return Failure, err
			}
			if st != Success {
				return st, nil
			}
		}
		return Success, nil

	case ir.KParallel:
		return it.tickParallel(n, ctx, bb, dt)

	case ir.KInvert:
		st, err := it.Tick(n.Target, ctx, bb, dt)
		if err != nil {
			return Failure, err
		}
		switch st {
		case Success:
			return Failure, nil
		case Failure:
			return Success, nil
		default:
			return Running, nil
		}

	case ir.KGuard:
		ok, err := it.evalCond(n.Cond, ctx, bb)
		if err != nil {
			return Failure, err
		}
		if !ok {
			return Failure, nil
		}
		return it.Tick(n.Body, ctx, bb, dt)

	case ir.KIf:
		ok, err := it.evalCond(n.Cond, ctx, bb)
		if err != nil {
			return Failure, err
		}
		if ok {
			return it.Tick(n.Then, ctx, bb, dt)
		}
		if n.Else != nil {
			return it.Tick(n.Else, ctx, bb, dt)
		}
		return Failure, nil

	case ir.KWhile:
		ok, err := it.evalCond(n.Cond, ctx, bb)
		if err != nil {
			return Failure, err
		}
		if !ok {
			return Success, nil
		}
		return it.Tick(n.Body, ctx, bb, dt)

	case ir.KReactive:
		return it.tickReactive(n, ctx, bb, dt)

	case ir.KReactiveSelect:
		return it.tickReactiveSelect(n, ctx, bb, dt)

	case ir.KRepeat:
		return it.tickRepeat(n, ctx, bb, dt)

	case ir.KTimeout:
		return it.tickTimeout(n, ctx, bb, dt)

	case ir.KCooldown:
		return it.tickCooldown(n, ctx, bb, dt)

	case ir.KTreeRef:
		return Failure, treeRefError(n.Id)

	case ir.KCondition:
		ok, err := it.evalCond(n.Cond, ctx, bb)
		if err != nil {
			return Failure, err
		}
		if ok {
			return Success, nil
		}
		return Failure, nil

	case ir.KAction:
		return it.tickAction(n, ctx, bb)

	default:
		return Failure, fmt.Errorf("interp: node kind %d cannot be ticked", n.Kind)
	}
}

func (it *Interpreter) tickParallel(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	succeeded, failed, running := 0, 0, 0
	for _, c := range n.Children {
		st, err := it.Tick(c, ctx, bb, dt)
		if err != nil {
			return Failure, err
		}
		switch st {
		case Success:
			succeeded++
		case Failure:
			failed++
		case Running:
			running++
		}
	}
	switch n.Policy {
	case ast.PolicyAny:
		if succeeded > 0 {
			return Success, nil
		}
		if running > 0 {
			return Running, nil
		}
		return Failure, nil
	case ast.PolicyN:
		if succeeded >= n.PolicyN {
			return Success, nil
		}
		if len(n.Children)-failed < n.PolicyN {
			return Failure, nil
		}
		return Running, nil
	default: // PolicyAll
		if failed > 0 {
			return Failure, nil
		}
		if running > 0 {
			return Running, nil
		}
		return Success, nil
	}
}

func (it *Interpreter) tickReactive(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	ok, err := it.evalCond(n.Cond, ctx, bb)
	if err != nil {
		return Failure, err
	}
	st := it.state(n.Id)
	if !ok {
		if st.bodyRunning {
			it.resetSubtree(n.Body)
		}
		st.bodyRunning = false
		return Failure, nil
	}
	status, err := it.Tick(n.Body, ctx, bb, dt)
	if err != nil {
		return Failure, err
	}
	st.bodyRunning = status == Running
	return status, nil
}

func (it *Interpreter) tickReactiveSelect(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	st := it.state(n.Id)
	for i, c := range n.Children {
		status, err := it.Tick(c, ctx, bb, dt)
		if err != nil {
			return Failure, err
		}
		if status != Failure {
			if st.runningIndex >= 0 && st.runningIndex != i {
				it.resetSubtree(n.Children[st.runningIndex])
			}
			if status == Running {
				st.runningIndex = i
			} else {
				st.runningIndex = -1
			}
			return status, nil
		}
	}
	if st.runningIndex >= 0 {
		it.resetSubtree(n.Children[st.runningIndex])
	}
	st.runningIndex = -1
	return Failure, nil
}

func (it *Interpreter) tickRepeat(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	st := it.state(n.Id)
	status, err := it.Tick(n.Body, ctx, bb, dt)
	if err != nil {
		return Failure, err
	}
	switch status {
	case Failure:
		st.count = 0
		return Failure, nil
	case Running:
		return Running, nil
	default: // Success
		st.count++
		if st.count >= n.Count {
			st.count = 0
			return Success, nil
		}
		return Running, nil
	}
}

func (it *Interpreter) tickTimeout(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	st := it.state(n.Id)
	status, err := it.Tick(n.Body, ctx, bb, dt)
	if err != nil {
		return Failure, err
	}
	if status == Running {
		st.elapsed += dt
		if st.elapsed >= n.Seconds {
			it.resetSubtree(n.Body)
			st.elapsed = 0
			return Failure, nil
		}
		return Running, nil
	}
	st.elapsed = 0
	return status, nil
}

func (it *Interpreter) tickCooldown(n *ir.Node, ctx, bb any, dt float32) (Status, error) {
	st := it.state(n.Id)
	if st.remaining > 0 {
		st.remaining -= dt
		if st.remaining < 0 {
			st.remaining = 0
		}
		return Failure, nil
	}
	status, err := it.Tick(n.Body, ctx, bb, dt)
	if err != nil {
		return Failure, err
	}
	if status == Success {
		st.remaining = n.Seconds
	}
	return status, nil
}

// resolveTarget finds the Go value an Action/Call's DeclaringType names:
// "this" (or an empty declaring type) is the context itself; any other
// name is a single member-name hop off the context (spec.md §4.7's
// Action/Call DeclaringType rule).
func (it *Interpreter) resolveTarget(ctx any, declaringType string) (any, bool) {
	if declaringType == "" || declaringType == "this" {
		return ctx, true
	}
	return lookupField(ctx, declaringType)
}

func (it *Interpreter) invokeMember(n *ir.Node, ctx, bb any) (any, error) {
	target, ok := it.resolveTarget(ctx, n.DeclaringType)
	if !ok {
		return nil, missingMemberError(n.Id, n.DeclaringType)
	}
	args := make([]reflect.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := it.eval(a, ctx, bb)
		if err != nil {
			return nil, err
		}
		args[i] = reflect.ValueOf(v.Data)
	}
	result, ok := callMember(target, n.MemberName, args)
	if !ok {
		return nil, missingMemberError(n.Id, n.MemberName)
	}
	return result, nil
}

func (it *Interpreter) tickAction(n *ir.Node, ctx, bb any) (Status, error) {
	result, err := it.invokeMember(n, ctx, bb)
	if err != nil {
		return Failure, err
	}
	return coerceStatus(result), nil
}

// coerceStatus implements Action's "coerce the return to BtStatus"
// (spec.md §4.11): a host action method may return nothing (void, treated
// as Success), a bool (true/false), or a Status value directly.
func coerceStatus(v any) Status {
	switch t := v.(type) {
	case nil:
		return Success
	case Status:
		return t
	case bool:
		if t {
			return Success
		}
		return Failure
	case string:
		switch t {
		case "Running":
			return Running
		case "Failure":
			return Failure
		default:
			return Success
		}
	default:
		return Success
	}
}
