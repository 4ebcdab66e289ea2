package decorator

import (
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

func TestExpandDefdecBodyPlaceholderAndParam(t *testing.T) {
	prog := lowerProgram(t, `(defdec retry (n) (repeat n <body>))
(tree Main (retry 3 .Attack))`)
	bag := diag.NewBag()
	expanded := Expand(prog.Trees, prog.Defdecs, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected expansion diagnostics: %+v", bag.All())
	}
	repeat := expanded[0].Body
	if repeat.Kind != ast.KRepeat || repeat.Count != 3 {
		t.Fatalf("expected Repeat(3) from substituted parameter, got %v %d", repeat.Kind, repeat.Count)
	}
	attack := repeat.Body
	if attack.Kind != ast.KActionCall || attack.Path != ".Attack" {
		t.Fatalf("expected ActionCall .Attack substituted for <body>, got %v %q", attack.Kind, attack.Path)
	}
}

func TestExpandNestedDecorator(t *testing.T) {
	prog := lowerProgram(t, `(defdec guarded () (invert <body>))
(defdec retried (n) (repeat n (guarded <body>)))
(tree Main (retried 2 .Attack))`)
	bag := diag.NewBag()
	expanded := Expand(prog.Trees, prog.Defdecs, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected expansion diagnostics: %+v", bag.All())
	}
	repeat := expanded[0].Body
	if repeat.Kind != ast.KRepeat || repeat.Count != 2 {
		t.Fatalf("expected Repeat(2), got %v %d", repeat.Kind, repeat.Count)
	}
	invert := repeat.Body
	if invert.Kind != ast.KInvert {
		t.Fatalf("expected nested decorator to have expanded to Invert, got %v", invert.Kind)
	}
	if invert.Target.Kind != ast.KActionCall || invert.Target.Path != ".Attack" {
		t.Fatalf("expected Invert(ActionCall .Attack), got %+v", invert.Target)
	}
}

func TestExpandUnknownDecorator(t *testing.T) {
	prog := lowerProgram(t, `(tree Main (mystery 1 .Attack))`)
	bag := diag.NewBag()
	Expand(prog.Trees, prog.Defdecs, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0023" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0023 unknown decorator diagnostic")
	}
}

func TestExpandArityMismatch(t *testing.T) {
	prog := lowerProgram(t, `(defdec retry (n) (repeat n <body>))
(tree Main (retry .Attack))`)
	bag := diag.NewBag()
	Expand(prog.Trees, prog.Defdecs, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0024" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0024 arity mismatch diagnostic")
	}
}

func TestExpandReentrantDecorator(t *testing.T) {
	prog := lowerProgram(t, `(defdec loopy (n) (repeat n (loopy n <body>)))
(tree Main (loopy 1 .Attack))`)
	bag := diag.NewBag()
	Expand(prog.Trees, prog.Defdecs, bag)
	found := false
	for _, d := range bag.All() {
		if d.Code == "BS0025" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected BS0025 reentrancy diagnostic for self-recursive decorator")
	}
}
