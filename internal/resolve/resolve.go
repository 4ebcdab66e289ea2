// Package resolve implements the reference resolver (spec.md §4.6): linking
// cross-tree AstRef nodes to their target trees, detecting reference
// cycles, and flagging trees no (ref ...) ever reaches.
package resolve

import (
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/crisp-lang/crisp/internal/ast"
	"github.com/crisp-lang/crisp/internal/diag"
	"github.com/crisp-lang/crisp/internal/token"
)

// Resolve runs both resolver phases over trees in place: phase 1 links
// every AstRef's ResolvedTree (or reports BS0038 for an undefined name);
// phase 2 walks the resulting tree→tree adjacency looking for cycles
// (BS0037) and, finally, reports any tree no ref reaches (BS0020).
func Resolve(trees []*ast.Node, bag *diag.Bag) {
	byName := make(map[string]*ast.Node, len(trees))
	for _, t := range trees {
		byName[t.Name] = t
	}

	referenced := make(map[string]bool, len(trees))
	for _, t := range trees {
		walkRefs(t.Body, func(ref *ast.Node) {
			if target, ok := byName[ref.RefName]; ok {
				ref.ResolvedTree = target
				referenced[ref.RefName] = true
			} else {
				bag.Add("BS0038", ref.Span(), ref.RefName)
			}
		})
	}

	detectCycles(trees, bag)
	reportUnused(trees, referenced, bag)
}

// walkRefs invokes fn for every KRef node reachable from n, without
// crossing into a different tree (trees never nest, so a plain recursive
// walk over every AST field never leaves the current tree's body).
func walkRefs(n *ast.Node, fn func(*ast.Node)) {
	if n == nil {
		return
	}
	if n.Kind == ast.KRef {
		fn(n)
	}
	for _, c := range n.Children {
		walkRefs(c, fn)
	}
	walkRefs(n.Body, fn)
	walkRefs(n.Cond, fn)
	walkRefs(n.Then, fn)
	walkRefs(n.Else, fn)
	walkRefs(n.Target, fn)
	walkRefs(n.CountExpr, fn)
	walkRefs(n.DurationExpr, fn)
	walkRefs(n.Left, fn)
	walkRefs(n.Right, fn)
	walkRefs(n.Operand, fn)
	for _, o := range n.Operands {
		walkRefs(o, fn)
	}
	for _, a := range n.Args {
		walkRefs(a, fn)
	}
}

// detectCycles runs a DFS over the tree→tree reference graph with visited
// and on-stack sets plus an explicit path, per spec.md §4.6 phase 2.
// Self-references trigger the same BS0037 report as longer cycles.
func detectCycles(trees []*ast.Node, bag *diag.Bag) {
	byName := make(map[string]*ast.Node, len(trees))
	for _, t := range trees {
		byName[t.Name] = t
	}

	visited := make(map[string]bool, len(trees))
	onStack := make(map[string]bool, len(trees))
	var path []string
	reported := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if onStack[name] {
			reportCycle(path, name, byName, reported, bag)
			return
		}
		if visited[name] {
			return
		}
		visited[name] = true
		onStack[name] = true
		path = append(path, name)

		t := byName[name]
		if t != nil {
			var refs []*ast.Node
			walkRefs(t.Body, func(r *ast.Node) { refs = append(refs, r) })
			for _, r := range refs {
				if _, ok := byName[r.RefName]; ok {
					visit(r.RefName)
				}
			}
		}

		path = path[:len(path)-1]
		onStack[name] = false
	}

	// Sorted so cycle reports are deterministic regardless of tree order.
	names := make([]string, 0, len(trees))
	for _, t := range trees {
		names = append(names, t.Name)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })

	for _, name := range names {
		if !visited[name] {
			visit(name)
		}
	}
}

// reportCycle renders the cycle found when name is reached while already
// on the DFS stack, as `A → B → C → A`, and reports it once per distinct
// cycle (keyed by its lexicographically-least rotation, so the same cycle
// discovered from either direction or starting point is only reported
// once).
func reportCycle(path []string, name string, byName map[string]*ast.Node, reported map[string]bool, bag *diag.Bag) {
	start := 0
	for i, n := range path {
		if n == name {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, path[start:]...), name)
	key := canonicalCycleKey(cycle)
	if reported[key] {
		return
	}
	reported[key] = true
	span := token.Span{}
	if t, ok := byName[cycle[0]]; ok {
		span = t.Span()
	}
	bag.Add("BS0037", span, strings.Join(cycle, " → "))
}

// canonicalCycleKey picks the lexicographically-smallest rotation of a
// cycle (dropping its repeated closing element) as a dedup key, so the
// same cycle reached via different starting trees reports only once.
func canonicalCycleKey(cycle []string) string {
	ring := cycle[:len(cycle)-1]
	best := strings.Join(ring, ",")
	for i := 1; i < len(ring); i++ {
		rotated := append(append([]string{}, ring[i:]...), ring[:i]...)
		if candidate := strings.Join(rotated, ","); candidate < best {
			best = candidate
		}
	}
	return best
}

// reportUnused emits BS0020 for every tree no (ref ...) anywhere reaches,
// in natural name order (spec.md §4.6, §6).
func reportUnused(trees []*ast.Node, referenced map[string]bool, bag *diag.Bag) {
	var unused []*ast.Node
	for _, t := range trees {
		if !referenced[t.Name] {
			unused = append(unused, t)
		}
	}
	sort.SliceStable(unused, func(i, j int) bool {
		return natural.Less(unused[i].Name, unused[j].Name)
	})
	for _, t := range unused {
		bag.AddWithSubject("BS0020", t.Span(), t.Name, t.Name)
	}
}
