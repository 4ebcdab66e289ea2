// Package crisp is the public facade over the Crisp compiler pipeline
// (spec.md §4): one Engine wires parsing, AST lowering, macro/decorator
// expansion, reference resolution, IR lowering and optimization,
// serialization, formatting, and interpretation behind a handful of
// methods, the same New(opts...)/Engine shape the teacher's pkg/dwscript
// facade presents to its own callers.
package crisp

import (
	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/decorator"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/format"
	"github.com/crisp-lang/crisp/internal/interp"
	"github.com/crisp-lang/crisp/internal/ir"
	"github.com/crisp-lang/crisp/internal/macro"
	"github.com/crisp-lang/crisp/internal/optimize"
	"github.com/crisp-lang/crisp/internal/resolve"
	"github.com/crisp-lang/crisp/internal/serialize"
)

// Option configures an Engine. The zero Engine (New with no options) uses
// DefaultConfig's formatter settings and optimizes every tree it lowers.
type Option func(*Engine)

// WithFormatConfig overrides the formatter settings Engine.Format uses.
func WithFormatConfig(cfg format.Config) Option {
	return func(e *Engine) { e.formatCfg = cfg }
}

// WithOptimize toggles whether Engine.Compile runs the IR optimizer over
// each lowered tree (spec.md §4.8). Disabling it is mainly useful for
// inspecting pre-optimization IR. (cmd/crisp's lower subcommand does not
// go through Engine; it calls its own lowerToIR pipeline.)
func WithOptimize(enable bool) Option {
	return func(e *Engine) { e.optimize = enable }
}

// Engine holds the configuration shared across pipeline runs. It carries
// no per-source state, so one Engine can compile many documents; state
// that tracks one running tree across ticks lives in a separate
// interp.Interpreter (see Engine.NewInterpreter).
type Engine struct {
	formatCfg format.Config
	optimize  bool
}

// New builds an Engine with DefaultConfig's formatter settings and
// optimization enabled, then applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{formatCfg: format.DefaultConfig(), optimize: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program is the fully-lowered result of compiling one source document:
// its parse tree, its def-expanded AST, and one optimized IR tree per
// top-level (tree ...) form, in source order.
type Program struct {
	CST   *cst.Node
	AST   *ast.Node
	Trees []*ir.Node
}

// Parse runs only the lexer/parser stage (spec.md §4.1-§4.2), the shape
// an editor integration or formatter-only caller needs without paying for
// the rest of the pipeline.
func (e *Engine) Parse(src string) (*cst.Node, *diag.Bag) {
	return cst.Parse(src)
}

// Compile runs the full pipeline (spec.md §4.3-§4.8): parse, lower to
// AST, expand macros then decorators, resolve references, lower to IR,
// and (unless WithOptimize(false) was given) optimize each tree. It
// stops at the first stage that reports an error and returns a nil
// Program, so the returned diag.Bag always explains why.
func (e *Engine) Compile(src string) (*Program, *diag.Bag) {
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
	if e.optimize {
		for i, t := range trees {
			trees[i] = optimize.Optimize(t)
		}
	}

	return &Program{CST: c, AST: prog, Trees: trees}, bag
}

// Format parses src and pretty-prints it (spec.md §4.10) using the
// Engine's formatter config, without running the rest of the pipeline.
func (e *Engine) Format(src string) (string, *diag.Bag) {
	c, bag := cst.Parse(src)
	if bag.HasErrors() {
		return "", bag
	}
	return format.Format(c, e.formatCfg), bag
}

// FormatNode formats a single already-parsed CST node, e.g. one tree
// pulled out of a larger Program.CST for display.
func (e *Engine) FormatNode(n *cst.Node) string {
	return format.FormatNode(n, e.formatCfg)
}

// Serialize renders one IR tree to its canonical text form (spec.md
// §4.9).
func (e *Engine) Serialize(tree *ir.Node) string {
	return serialize.Serialize(tree)
}

// Deserialize parses the canonical text form back into an IR tree
// (spec.md §4.9); ids are re-assigned internally since the text carries
// none.
func (e *Engine) Deserialize(text string) (*ir.Node, *diag.Bag) {
	bag := diag.NewBag()
	n := serialize.Deserialize(text, bag)
	return n, bag
}

// NewInterpreter returns a fresh interp.Interpreter (spec.md §4.11),
// independent of this Engine's configuration: ticking is stateful per
// interpreter instance, not per Engine.
func (e *Engine) NewInterpreter() *interp.Interpreter {
	return interp.New()
}
