package cmd

import (
	"testing"

	"github.com/crisp-lang/crisp/internal/ir"
)

func TestLowerToIRProducesOneTreePerTree(t *testing.T) {
	src := `
(tree First (.Attack))
(tree Second (check (.HasTarget)))
`
	trees, bag := lowerToIR(src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag)
	}
	if len(trees) != 2 {
		t.Fatalf("got %d trees, want 2", len(trees))
	}
	if trees[0].Name != "First" || trees[1].Name != "Second" {
		t.Errorf("tree names = %q, %q, want First, Second", trees[0].Name, trees[1].Name)
	}
}

func TestLowerToIRReportsUndefinedReference(t *testing.T) {
	src := `(tree Main (ref Missing))`
	trees, bag := lowerToIR(src)
	if !bag.HasErrors() {
		t.Fatalf("expected an error for an undefined tree reference")
	}
	if trees != nil {
		t.Errorf("expected nil trees on failure, got %v", trees)
	}
}

func TestOptimizeAllFoldsConstantCondition(t *testing.T) {
	src := `(tree Main (check (< 10 5)))`
	trees, bag := lowerToIR(src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag)
	}
	optimized := optimizeAll(trees)
	if len(optimized) != 1 {
		t.Fatalf("got %d trees, want 1", len(optimized))
	}
	body := optimized[0].Body
	if body.Kind != ir.KCondition || body.Cond.Kind != ir.KLiteral {
		t.Errorf("expected Condition over a constant-folded Literal, got %v", body.Kind)
	}
}
