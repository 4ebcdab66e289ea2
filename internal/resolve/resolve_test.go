package resolve

import (
	"strings"
	"testing"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/diag"
)

func lowerProgram(t *testing.T, src string) *ast.Node {
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
	return prog
}

func TestResolveLinksRefToTree(t *testing.T) {
	prog := lowerProgram(t, `(tree A (ref B))
(tree B (seq))`)
	bag := diag.NewBag()
	Resolve(prog.Trees, bag)
	for _, d := range bag.All() {
		if d.Code == "BS0038" {
			t.Fatalf("unexpected undefined-reference diagnostic: %+v", d)
		}
	}
	ref := prog.Trees[0].Body
	if ref.Kind != ast.KRef || ref.ResolvedTree == nil || ref.ResolvedTree.Name != "B" {
		t.Fatalf("expected Ref resolved to tree B, got %+v", ref)
	}
}

func TestResolveUndefinedReference(t *testing.T) {
	prog := lowerProgram(t, `(tree A (ref Missing))`)
	bag := diag.NewBag()
	Resolve(prog.Trees, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0038" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0038 undefined reference diagnostic")
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	prog := lowerProgram(t, `(tree A (ref B))
(tree B (ref A))`)
	bag := diag.NewBag()
	Resolve(prog.Trees, bag)
	var cycleMsg string
	for _, d := range bag.All() {
		if d.Code == "BS0037" {
			cycleMsg = d.Message
		}
	}
	if cycleMsg == "" {
		t.Fatal("expected BS0037 cycle diagnostic")
	}
	if !strings.Contains(cycleMsg, "A → B → A") && !strings.Contains(cycleMsg, "B → A → B") {
		t.Fatalf("expected rendered cycle A → B → A (or its rotation), got %q", cycleMsg)
	}
}

func TestResolveDetectsSelfReference(t *testing.T) {
	prog := lowerProgram(t, `(tree A (ref A))`)
	bag := diag.NewBag()
	Resolve(prog.Trees, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0037" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0037 self-reference cycle diagnostic")
	}
}

func TestResolveReportsUnusedTree(t *testing.T) {
	prog := lowerProgram(t, `(tree A (seq))
(tree B (ref A))`)
	bag := diag.NewBag()
	Resolve(prog.Trees, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0020" {
			found = true
			if !strings.Contains(d.Message, "B") {
				t.Fatalf("expected unused-tree diagnostic naming B, got %q", d.Message)
			}
		}
	}
	if !found {
		t.Fatal("expected BS0020 unused-tree diagnostic for B")
	}
}
