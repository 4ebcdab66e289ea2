package ast

import (
	"testing"

	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/diag"
)

func lowerSource(t *testing.T, src string) (*Node, *diag.Bag) {
	t.Helper()
	c, parseBag := cst.Parse(src)
	if parseBag.HasErrors() {
		t.Fatalf("unexpected parse diagnostics for %q: %+v", src, parseBag.All())
	}
	bag := diag.NewBag()
	return Lower(c, bag), bag
}

// spec.md worked example 1: minimal tree.
func TestLowerMinimalTree(t *testing.T) {
	prog, bag := lowerSource(t, `(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected lowering diagnostics: %+v", bag.All())
	}
	if len(prog.Trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(prog.Trees))
	}
	tree := prog.Trees[0]
	if tree.Name != "SimpleCombat" {
		t.Fatalf("expected tree named SimpleCombat, got %q", tree.Name)
	}
	sel := tree.Body
	if sel.Kind != KSelector || len(sel.Children) != 2 {
		t.Fatalf("expected Selector/2, got %v %d", sel.Kind, len(sel.Children))
	}
	seq := sel.Children[0]
	if seq.Kind != KSequence || len(seq.Children) != 2 {
		t.Fatalf("expected Sequence/2, got %v %d", seq.Kind, len(seq.Children))
	}
	check := seq.Children[0]
	if check.Kind != KCheck {
		t.Fatalf("expected Check, got %v", check.Kind)
	}
	cond := check.Cond
	if cond.Kind != KBinaryExpr || cond.Operator != "<" {
		t.Fatalf("expected BinaryExpr(<), got %v %q", cond.Kind, cond.Operator)
	}
	if cond.Left.Kind != KMemberAccess || cond.Left.Path != ".Health" {
		t.Fatalf("expected member access .Health, got %v %q", cond.Left.Kind, cond.Left.Path)
	}
	if cond.Right.Kind != KIntLiteral || cond.Right.IntValue != 30 {
		t.Fatalf("expected int literal 30, got %v %d", cond.Right.Kind, cond.Right.IntValue)
	}
	flee := seq.Children[1]
	if flee.Kind != KActionCall || flee.Path != ".Flee" || len(flee.Args) != 0 {
		t.Fatalf("expected zero-arg ActionCall .Flee, got %v %q %d", flee.Kind, flee.Path, len(flee.Args))
	}
	patrol := sel.Children[1]
	if patrol.Kind != KActionCall || patrol.Path != ".Patrol" {
		t.Fatalf("expected ActionCall .Patrol, got %v %q", patrol.Kind, patrol.Path)
	}
}

// A bare member access at node position lowers to a zero-arg ActionCall;
// the same member access inside an expression context lowers to a plain
// MemberAccess value read (spec.md §3, §4.3's tie-break example).
func TestLowerNodeVsExpressionPosition(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (seq (check (> .Ammo 0)) .Attack))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	seq := prog.Trees[0].Body
	cond := seq.Children[0].Cond
	if cond.Left.Kind != KMemberAccess {
		t.Fatalf("expected expression-position MemberAccess, got %v", cond.Left.Kind)
	}
	attack := seq.Children[1]
	if attack.Kind != KActionCall || attack.Path != ".Attack" {
		t.Fatalf("expected node-position ActionCall, got %v %q", attack.Kind, attack.Path)
	}
}

func TestLowerIfEmitsWarningWithoutElse(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (if (.IsAlive) (.Fight)))`)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0302" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0302 warning for if without else")
	}
	ifNode := prog.Trees[0].Body
	if ifNode.Kind != KIf || ifNode.Then == nil || ifNode.Else != nil {
		t.Fatalf("expected If with Then set and Else nil, got %+v", ifNode)
	}
}

func TestLowerRepeatTimeoutCooldownLiterals(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (repeat 3 (timeout 5 (cooldown 2.5 (.Attack)))))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	repeat := prog.Trees[0].Body
	if repeat.Kind != KRepeat || repeat.Count != 3 {
		t.Fatalf("expected Repeat(3), got %v %d", repeat.Kind, repeat.Count)
	}
	timeout := repeat.Body
	if timeout.Kind != KTimeout || timeout.Seconds != 5 {
		t.Fatalf("expected Timeout(5), got %v %v", timeout.Kind, timeout.Seconds)
	}
	cooldown := timeout.Body
	if cooldown.Kind != KCooldown || cooldown.Seconds != 2.5 {
		t.Fatalf("expected Cooldown(2.5), got %v %v", cooldown.Kind, cooldown.Seconds)
	}
	attack := cooldown.Body
	if attack.Kind != KActionCall || attack.Path != ".Attack" {
		t.Fatalf("expected ActionCall .Attack, got %v %q", attack.Kind, attack.Path)
	}
}

func TestLowerParallelPolicies(t *testing.T) {
	cases := []struct {
		src    string
		policy ParallelPolicy
		n      int
	}{
		{`(parallel :any (.A) (.B))`, PolicyAny, 0},
		{`(parallel :all (.A) (.B))`, PolicyAll, 0},
		{`(parallel :n 2 (.A) (.B) (.C))`, PolicyN, 2},
	}
	for _, c := range cases {
		prog, bag := lowerSource(t, `(tree T `+c.src+`)`)
		if bag.HasErrors() {
			t.Fatalf("%s: unexpected diagnostics: %+v", c.src, bag.All())
		}
		par := prog.Trees[0].Body
		if par.Kind != KParallel || par.Policy != c.policy || par.PolicyN != c.n {
			t.Fatalf("%s: expected policy %v/%d, got %v/%d", c.src, c.policy, c.n, par.Policy, par.PolicyN)
		}
	}
}

// spec.md worked example 5: macro expansion with a body placeholder. This
// test only exercises lowering of the macro definition itself (expansion is
// a later stage); the defmacro's repeat body holds an unexpanded
// BodyPlaceholder in its body slot.
func TestLowerMacroBodyPlaceholder(t *testing.T) {
	prog, bag := lowerSource(t, `(defmacro retry () (repeat 3 <body>))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	if len(prog.Defmacros) != 1 {
		t.Fatalf("expected 1 defmacro, got %d", len(prog.Defmacros))
	}
	macro := prog.Defmacros[0]
	repeat := macro.Body
	if repeat.Kind != KRepeat || repeat.Count != 3 {
		t.Fatalf("expected Repeat(3), got %v %d", repeat.Kind, repeat.Count)
	}
	if repeat.Body.Kind != KBodyPlaceholder {
		t.Fatalf("expected BodyPlaceholder body slot, got %v", repeat.Body.Kind)
	}
}

func TestLowerDefdecParamReferences(t *testing.T) {
	prog, bag := lowerSource(t, `(defdec retry (n) (repeat n <body>))
(tree T (retry 3 .Attack))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	defdec := prog.Defdecs[0]
	if defdec.Name != "retry" || len(defdec.Params) != 1 || defdec.Params[0] != "n" {
		t.Fatalf("unexpected defdec: %+v", defdec)
	}
	repeat := defdec.Body
	if repeat.Kind != KRepeat || repeat.CountExpr == nil || repeat.CountExpr.Kind != KParamRef || repeat.CountExpr.Name != "n" {
		t.Fatalf("expected ParamRef count, got %+v", repeat)
	}
	call := prog.Trees[0].Body
	if call.Kind != KDefdecCall || call.Name != "retry" || len(call.Args) != 2 {
		t.Fatalf("expected DefdecCall retry/2, got %v %q %d", call.Kind, call.Name, len(call.Args))
	}
	if call.Args[0].Kind != KIntLiteral || call.Args[0].IntValue != 3 {
		t.Fatalf("expected int literal arg 3, got %+v", call.Args[0])
	}
	if call.Args[1].Kind != KMemberAccess || call.Args[1].Path != ".Attack" {
		t.Fatalf("expected bare member access arg lowered as a value read, got %v %q", call.Args[1].Kind, call.Args[1].Path)
	}
}

func TestLowerLogicAndUnaryOperators(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (check (and (not (.IsDead)) (or (.HasAmmo) (.HasMelee)))))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	check := prog.Trees[0].Body
	and := check.Cond
	if and.Kind != KLogicExpr || and.Operator != "and" || len(and.Operands) != 2 {
		t.Fatalf("expected and/2, got %v %q %d", and.Kind, and.Operator, len(and.Operands))
	}
	not := and.Operands[0]
	if not.Kind != KUnaryExpr || not.Operator != "not" || not.Operand.Kind != KCallExpr {
		t.Fatalf("expected not(CallExpr), got %+v", not)
	}
	or := and.Operands[1]
	if or.Kind != KLogicExpr || or.Operator != "or" || len(or.Operands) != 2 {
		t.Fatalf("expected or/2, got %v %q %d", or.Kind, or.Operator, len(or.Operands))
	}
}

func TestLowerUnaryNegate(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (check (> .Health (- 5))))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	cmp := prog.Trees[0].Body.Cond
	neg := cmp.Right
	if neg.Kind != KUnaryExpr || neg.Operator != "negate" || neg.Operand.Kind != KIntLiteral || neg.Operand.IntValue != 5 {
		t.Fatalf("expected negate(5), got %+v", neg)
	}
}

func TestLowerStringEscapesAndEnumLiteral(t *testing.T) {
	prog, bag := lowerSource(t, `(tree T (seq (check (= .Name "a\nb")) (check (= .State ::Combat.Alert))))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	seq := prog.Trees[0].Body
	str := seq.Children[0].Cond.Right
	if str.Kind != KStringLiteral || str.StringValue != "a\nb" {
		t.Fatalf("expected decoded string literal, got %v %q", str.Kind, str.StringValue)
	}
	enum := seq.Children[1].Cond.Right
	if enum.Kind != KEnumLiteral || enum.EnumType != "Combat" || enum.EnumMember != "Alert" {
		t.Fatalf("expected enum literal Combat.Alert, got %+v", enum)
	}
}

func TestLowerBlackboardTreeAnnotation(t *testing.T) {
	prog, bag := lowerSource(t, `(tree WithBoard :blackboard Combat (seq))`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.All())
	}
	if prog.Trees[0].BlackboardType != "Combat" {
		t.Fatalf("expected blackboard type Combat, got %q", prog.Trees[0].BlackboardType)
	}
}
