package optimize

import (
	"strings"
	"testing"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/ir"
	"github.com/kr/pretty"
)

func lowerOneTree(t *testing.T, src string) *ir.Node {
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
	trees := ir.Lower(prog.Trees, irBag)
	if irBag.HasErrors() {
		t.Fatalf("unexpected IR lowering diagnostics: %+v", irBag.All())
	}
	return trees[0]
}

// spec.md scenario 4: constant folding, then dead-node elimination, then
// single-child collapse reduce a sequence down to a single Condition.
func TestOptimizeScenario4FoldDeadNodeCollapse(t *testing.T) {
	tree := lowerOneTree(t, `(tree T (seq (check (< 10 5)) (.Attack)))`)
	result := Optimize(tree)

	cond := result.Body
	if cond.Kind != ir.KCondition {
		t.Fatalf("expected Sequence to collapse to its Condition, got %v", cond.Kind)
	}
	lit := cond.Cond
	if lit.Kind != ir.KLiteral || lit.Type != ir.TypeBool || lit.BoolValue != false {
		t.Fatalf("expected folded Literal(false), got %+v", lit)
	}
}

// Constant folding and convert fusion compose across fixpoint iterations:
// the Convert(Literal(1, Int), Float) wrapping 1 fuses to Literal(1.0,
// Float) in one pass, which then lets the next iteration's fold pass
// evaluate `1.0 + 2.0` and finally `3.0 < 5.0` down to a single Bool.
func TestOptimizeFusedConvertThenFolds(t *testing.T) {
	tree := lowerOneTree(t, `(tree T (check (< (+ 1 2.0) 5.0)))`)
	result := Optimize(tree)

	lit := result.Body.Cond
	if lit.Kind != ir.KLiteral || lit.Type != ir.TypeBool || lit.BoolValue != true {
		t.Fatalf("expected folded Literal(true), got %+v", lit)
	}
}

func TestOptimizeDoubleInvertCollapses(t *testing.T) {
	tree := lowerOneTree(t, `(tree T (invert (invert (.Attack))))`)
	result := Optimize(tree)

	action := result.Body
	if action.Kind != ir.KAction || action.MemberName != "Attack" {
		t.Fatalf("expected double Invert to collapse to the Action, got %+v", action)
	}
}

func TestOptimizeDivisionByZeroNotFolded(t *testing.T) {
	tree := lowerOneTree(t, `(tree T (check (= (/ 1 0) 0)))`)
	result := Optimize(tree)

	eq := result.Body.Cond
	if eq.Kind != ir.KBinaryOp || eq.Operator != "=" {
		t.Fatalf("expected outer = to remain unfolded around a division by zero, got %+v", eq)
	}
	div := eq.Left
	if div.Kind != ir.KBinaryOp || div.Operator != "/" {
		t.Fatalf("expected division by zero left unfolded, got %+v", div)
	}
}

// spec.md §8: optimize(optimize(x)) == optimize(x) — a second full run
// over an already-fixpoint tree changes nothing.
func TestOptimizeIsIdempotent(t *testing.T) {
	tree := lowerOneTree(t, `(tree T (seq (check (< 10 5)) (select (.Flee) (invert (invert (.Patrol))))))`)
	once := Optimize(tree)
	twice := Optimize(once)

	if !sameShape(once, twice) {
		t.Fatalf("expected optimize(optimize(x)) == optimize(x), diff:\n%s", strings.Join(pretty.Diff(once, twice), "\n"))
	}
}

func sameShape(a, b *ir.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Type != b.Type || a.Operator != b.Operator ||
		a.MemberName != b.MemberName || a.DeclaringType != b.DeclaringType ||
		a.IntValue != b.IntValue || a.FloatValue != b.FloatValue || a.BoolValue != b.BoolValue {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameShape(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return sameShape(a.Cond, b.Cond) && sameShape(a.Body, b.Body) &&
		sameShape(a.Then, b.Then) && sameShape(a.Else, b.Else) &&
		sameShape(a.Target, b.Target) && sameShape(a.Left, b.Left) &&
		sameShape(a.Right, b.Right) && sameShape(a.Operand, b.Operand)
}
