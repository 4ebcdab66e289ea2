package ir

import (
	"testing"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/diag"
)

func lowerToIR(t *testing.T, src string) []*Node {
	t.Helper()
	c, parseBag := cst.Parse(src)
	if parseBag.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", parseBag.All())
	}
	bag := diag.NewBag()
	prog := ast.Lower(c, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected lowering diagnostics: %+v", bag.All())
	}
	irBag := diag.NewBag()
	out := Lower(prog.Trees, irBag)
	if irBag.HasErrors() {
		t.Fatalf("unexpected IR lowering diagnostics: %+v", irBag.All())
	}
	return out
}

// spec.md worked example 1: minimal tree, IR preserves AST structure.
func TestLowerMinimalTreePreservesStructure(t *testing.T) {
	trees := lowerToIR(t, `(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	tree := trees[0]
	if tree.Kind != KTree || tree.Name != "SimpleCombat" {
		t.Fatalf("expected IrTree SimpleCombat, got %v %q", tree.Kind, tree.Name)
	}
	sel := tree.Body
	if sel.Kind != KSelector || len(sel.Children) != 2 {
		t.Fatalf("expected IrSelector/2, got %v %d", sel.Kind, len(sel.Children))
	}
	seq := sel.Children[0]
	if seq.Kind != KSequence || len(seq.Children) != 2 {
		t.Fatalf("expected IrSequence/2, got %v %d", seq.Kind, len(seq.Children))
	}
	cond := seq.Children[0]
	if cond.Kind != KCondition || cond.Type != TypeBtStatus {
		t.Fatalf("expected IrCondition typed BtStatus, got %v %q", cond.Kind, cond.Type)
	}
	cmp := cond.Cond
	if cmp.Kind != KBinaryOp || cmp.Operator != "<" || cmp.Type != TypeBool {
		t.Fatalf("expected IrBinaryOp(<) typed Bool, got %v %q %q", cmp.Kind, cmp.Operator, cmp.Type)
	}
	load := cmp.Left
	if load.Kind != KMemberLoad || len(load.Chain) != 1 || load.Chain[0] != "Health" || load.Type != TypeUnknown {
		t.Fatalf("expected IrMemberLoad(Health) typed unknown, got %+v", load)
	}
	lit := cmp.Right
	if lit.Kind != KLiteral || lit.Type != TypeInt || lit.IntValue != 30 {
		t.Fatalf("expected IrLiteral(30, Int), got %+v", lit)
	}
	flee := seq.Children[1]
	if flee.Kind != KAction || flee.DeclaringType != "this" || flee.MemberName != "Flee" {
		t.Fatalf("expected IrAction(this, Flee), got %+v", flee)
	}
	patrol := sel.Children[1]
	if patrol.Kind != KAction || patrol.MemberName != "Patrol" {
		t.Fatalf("expected IrAction(this, Patrol), got %+v", patrol)
	}
}

// spec.md scenario 3: Int→Float promotion.
func TestLowerIntFloatPromotion(t *testing.T) {
	trees := lowerToIR(t, `(tree T (check (< (+ 1 2.0) 5.0)))`)
	lt := trees[0].Body.Cond
	if lt.Kind != KBinaryOp || lt.Operator != "<" || lt.Type != TypeBool {
		t.Fatalf("expected outer < typed Bool, got %v %q %q", lt.Kind, lt.Operator, lt.Type)
	}
	plus := lt.Left
	if plus.Kind != KBinaryOp || plus.Operator != "+" || plus.Type != TypeFloat {
		t.Fatalf("expected + typed Float, got %v %q %q", plus.Kind, plus.Operator, plus.Type)
	}
	convert := plus.Left
	if convert.Kind != KConvert || convert.ToType != TypeFloat {
		t.Fatalf("expected left operand wrapped in IrConvert(_, Float), got %v %q", convert.Kind, convert.ToType)
	}
	if convert.Operand.Kind != KLiteral || convert.Operand.Type != TypeInt || convert.Operand.IntValue != 1 {
		t.Fatalf("expected wrapped literal 1 (Int), got %+v", convert.Operand)
	}
	if plus.Right.Type != TypeFloat || plus.Right.FloatValue != 2.0 {
		t.Fatalf("expected right operand Float literal 2.0, got %+v", plus.Right)
	}
	if lt.Right.Type != TypeFloat || lt.Right.FloatValue != 5.0 {
		t.Fatalf("expected outer right operand Float literal 5.0, got %+v", lt.Right)
	}
}

func TestLowerActionCallMultiSegmentPath(t *testing.T) {
	trees := lowerToIR(t, `(tree T (.Weapon.Fire))`)
	action := trees[0].Body
	if action.Kind != KAction || action.DeclaringType != "Weapon" || action.MemberName != "Fire" {
		t.Fatalf("expected IrAction(Weapon, Fire), got %+v", action)
	}
}

func TestLowerParallelPolicyCarriedOver(t *testing.T) {
	trees := lowerToIR(t, `(tree T (parallel :n 2 (.A) (.B) (.C)))`)
	par := trees[0].Body
	if par.Kind != KParallel || par.Policy != ast.PolicyN || par.PolicyN != 2 || len(par.Children) != 3 {
		t.Fatalf("expected IrParallel policy N(2)/3, got %+v", par)
	}
}

func TestAssignIdsPreOrderMonotonic(t *testing.T) {
	trees := lowerToIR(t, `(tree T (seq (check (< .Health 30)) (.Flee)))`)
	tree := trees[0]
	seq := tree.Body
	cond := seq.Children[0]
	flee := seq.Children[1]
	if !(tree.Id < seq.Id && seq.Id < cond.Id && cond.Id < flee.Id) {
		t.Fatalf("expected strictly increasing pre-order ids, got tree=%d seq=%d cond=%d flee=%d",
			tree.Id, seq.Id, cond.Id, flee.Id)
	}
}
