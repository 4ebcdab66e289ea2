// Package format implements the CST-driven pretty printer (spec.md §4.10):
// a width-budget renderer that decides, subtree by subtree, whether a form
// fits on one line or needs to break across several, re-indenting as it
// goes and reproducing the original leading comments on top-level forms.
//
// The renderer never special-cases a cst.Kind. Every composite Node's
// Elements already carry it in source order — open token(s), zero or more
// children, a closing token — so walking Elements generically handles
// every production, including the ones that don't use ordinary parens
// (KBodyPlaceholder's "<body>").
package format

import (
	"strings"
	"unicode/utf8"

	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/token"
)

// Config controls layout decisions. Defaults mirror spec.md §4.10's
// worked example (2-space indent, 80-column budget, parens stacked onto
// the last child's line, blank line between top-level trees).
type Config struct {
	Indent                int
	MaxWidth              int
	AlignCloseParen       bool
	BlankLineBetweenTrees bool
}

// DefaultConfig returns spec.md §4.10's documented defaults.
func DefaultConfig() Config {
	return Config{
		Indent:                2,
		MaxWidth:              80,
		AlignCloseParen:       false,
		BlankLineBetweenTrees: true,
	}
}

// Format renders every top-level form of a parsed program (spec.md §4.2's
// KProgram), preserving each form's leading line comments and separating
// forms with a blank line per Config.BlankLineBetweenTrees.
func Format(prog *cst.Node, cfg Config) string {
	var sb strings.Builder
	first := true
	for _, e := range prog.Elements {
		if e.Child == nil {
			continue // the trailing EOF token element
		}
		if !first && cfg.BlankLineBetweenTrees {
			sb.WriteString("\n")
		}
		first = false
		writeLeadingComments(&sb, e.Child)
		sb.WriteString(renderNode(e.Child, 0, cfg))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatNode renders a single top-level form in isolation (no leading
// comments, no neighboring blank lines) — useful for formatting one tree
// or defdec at a time.
func FormatNode(n *cst.Node, cfg Config) string {
	return renderNode(n, 0, cfg)
}

func writeLeadingComments(sb *strings.Builder, n *cst.Node) {
	t, ok := firstToken(n)
	if !ok {
		return
	}
	for _, piece := range t.Leading {
		if piece.Kind == token.Comment {
			sb.WriteString(piece.Text)
			sb.WriteString("\n")
		}
	}
}

func firstToken(n *cst.Node) (token.Token, bool) {
	for _, e := range n.Elements {
		if e.Tok != nil {
			return *e.Tok, true
		}
		if e.Child != nil {
			if t, ok := firstToken(e.Child); ok {
				return t, true
			}
		}
	}
	return token.Token{}, false
}

// renderNode renders n at the given nesting depth, choosing a flat
// single-line form when it fits Config.MaxWidth and breaking across
// indented lines otherwise. Leaf nodes (no children) are always flat —
// there is nothing inside a literal or a bare member access to break.
func renderNode(n *cst.Node, depth int, cfg Config) string {
	if n == nil {
		return ""
	}
	flat := flatText(n)
	if len(n.Children) == 0 || fitsFlat(flat, depth, cfg) {
		return flat
	}
	return renderMultiline(n, depth, cfg)
}

func fitsFlat(flat string, depth int, cfg Config) bool {
	return depth*cfg.Indent+utf8.RuneCountInString(flat) <= cfg.MaxWidth
}

// flatText concatenates a node's own tokens and its children's flat text,
// in source order, with the same open/close spacing rule spec.md's
// examples show: no space after an opening bracket, none before a
// closing one, a single space everywhere else.
func flatText(n *cst.Node) string {
	if n == nil {
		return ""
	}
	atoms := make([]string, 0, len(n.Elements))
	for _, e := range n.Elements {
		if e.Tok != nil {
			atoms = append(atoms, e.Tok.Text)
		} else {
			atoms = append(atoms, flatText(e.Child))
		}
	}
	return joinAtoms(atoms)
}

func joinAtoms(atoms []string) string {
	var sb strings.Builder
	for i, a := range atoms {
		if i > 0 && !endsOpen(atoms[i-1]) && !startsClose(a) {
			sb.WriteString(" ")
		}
		sb.WriteString(a)
	}
	return sb.String()
}

func endsOpen(s string) bool {
	return strings.HasSuffix(s, "(") || strings.HasSuffix(s, "<")
}

func startsClose(s string) bool {
	return strings.HasPrefix(s, ")") || strings.HasPrefix(s, ">")
}

// renderMultiline breaks n across lines: any leading tokens (the open
// bracket, a keyword, a policy annotation) stay on the first line, each
// child gets its own indented line, and the final closing token either
// stacks onto the last child's line (Lisp style, the default) or starts
// its own line aligned with the opener, per Config.AlignCloseParen.
func renderMultiline(n *cst.Node, depth int, cfg Config) string {
	childIndent := strings.Repeat(" ", cfg.Indent*(depth+1))
	openIndent := strings.Repeat(" ", cfg.Indent*depth)

	var sb strings.Builder
	lastAtom := ""
	atLineStart := true
	prevWasChild := false

	writeAtom := func(a string) {
		if !atLineStart && !endsOpen(lastAtom) && !startsClose(a) {
			sb.WriteString(" ")
		}
		sb.WriteString(a)
		lastAtom = a
		atLineStart = false
	}

	for _, e := range n.Elements {
		if e.Tok != nil {
			isCloser := e.Tok.Text == ")" || e.Tok.Text == ">"
			if isCloser && prevWasChild && cfg.AlignCloseParen {
				sb.WriteString("\n")
				sb.WriteString(openIndent)
				sb.WriteString(e.Tok.Text)
				lastAtom = e.Tok.Text
				atLineStart = false
				prevWasChild = false
				continue
			}
			writeAtom(e.Tok.Text)
			prevWasChild = false
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(childIndent)
		sb.WriteString(renderNode(e.Child, depth+1, cfg))
		atLineStart = false
		prevWasChild = true
	}
	return sb.String()
}
