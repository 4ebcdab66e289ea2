package cmd

import (
	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/decorator"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/ir"
	"github.com/crisp-lang/crisp/internal/macro"
	"github.com/crisp-lang/crisp/internal/optimize"
	"github.com/crisp-lang/crisp/internal/resolve"
)

// lowerToIR runs every stage through AST→IR lowering and returns the IR
// trees unoptimized, sharing one diagnostic bag across the whole run so
// the lower/optimize/serialize/run commands can hand it to printDiagnostics
// (diagnostics.go) and render failures from any stage uniformly.
func lowerToIR(src string) ([]*ir.Node, *diag.Bag) {
	bag := diag.NewBag()

	c, parseBag := cst.Parse(src)
	bag.Merge(parseBag)
	if parseBag.HasErrors() {
		return nil, bag
	}

	prog := ast.Lower(c, bag)
	if bag.HasErrors() {
		return nil, bag
	}

	expanded := macro.Expand(prog.Trees, prog.Defmacros, bag)
	expanded = decorator.Expand(expanded, prog.Defdecs, bag)
	resolve.Resolve(expanded, bag)
	if bag.HasErrors() {
		return nil, bag
	}

	trees := ir.Lower(expanded, bag)
	if bag.HasErrors() {
		return nil, bag
	}
	return trees, bag
}

// optimizeAll runs the IR optimizer over every tree and returns the
// optimized trees in a new slice; the input slice is left unchanged.
func optimizeAll(trees []*ir.Node) []*ir.Node {
	out := make([]*ir.Node, len(trees))
	for i, t := range trees {
		out[i] = optimize.Optimize(t)
	}
	return out
}
