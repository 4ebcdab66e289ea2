// Package diag implements the diagnostic aggregation model used by every
// compiler stage (spec.md §3, §7): a (code, severity, span, message) record
// accumulated in an append-only bag and rendered with source context,
// mirroring the teacher's internal/errors.CompilerError formatting.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/crisp-lang/crisp/internal/token"
)

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String renders the severity for diagnostic headers.
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported issue: a stable code, a severity, the
// source span it concerns, and a formatted message.
type Diagnostic struct {
	Code     string
	Severity Severity
	Span     token.Span
	Message  string
	// Subject is an optional symbolic name (a tree name, a defdec name...)
	// used only to order diagnostics naturally when spans tie or are absent.
	Subject string
}

// Bag is the append-only diagnostic sink threaded through every stage.
// Stages never unwind on semantic errors (spec.md §7); they append here and
// continue operating on the tree they have.
type Bag struct {
	diagnostics []Diagnostic
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a formatted diagnostic using a registered stable code.
func (b *Bag) Add(code string, span token.Span, args ...any) {
	b.addSubject(code, span, "", args...)
}

// AddWithSubject is like Add but records a symbolic subject name used for
// natural ordering (spec.md §6's diagnostic registry, §4.6's unused-tree
// report).
func (b *Bag) AddWithSubject(code string, span token.Span, subject string, args ...any) {
	b.addSubject(code, span, subject, args...)
}

func (b *Bag) addSubject(code string, span token.Span, subject string, args ...any) {
	entry, ok := Registry[code]
	if !ok {
		b.diagnostics = append(b.diagnostics, Diagnostic{
			Code:     code,
			Severity: Error,
			Span:     span,
			Message:  fmt.Sprintf("unregistered diagnostic code %s: %v", code, args),
			Subject:  subject,
		})
		return
	}
	b.diagnostics = append(b.diagnostics, Diagnostic{
		Code:     code,
		Severity: entry.Severity,
		Span:     span,
		Message:  fmt.Sprintf(entry.Template, args...),
		Subject:  subject,
	})
}

// All returns every diagnostic in insertion order.
func (b *Bag) All() []Diagnostic {
	return b.diagnostics
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics recorded.
func (b *Bag) Len() int { return len(b.diagnostics) }

// Merge appends every diagnostic from other into b, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.diagnostics = append(b.diagnostics, other.diagnostics...)
}

// SortedByLocation returns diagnostics ordered by span start, falling back
// to a natural-sort comparison of Subject (so "Tree2" sorts before
// "Tree10") when spans tie.
func (b *Bag) SortedByLocation() []Diagnostic {
	out := make([]Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return natural.Less(out[i].Subject, out[j].Subject)
	})
	return out
}

// Render formats a single diagnostic with a source-line excerpt and a caret
// pointing at the offending span's start, in the teacher's
// CompilerError.Format style.
func Render(d Diagnostic, source string, color bool) string {
	var sb strings.Builder

	line, col := lineCol(source, d.Span.Start)
	fmt.Fprintf(&sb, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", line, col)

	if srcLine := sourceLine(source, line); srcLine != "" {
		prefix := fmt.Sprintf("%4d | ", line)
		sb.WriteString(prefix)
		sb.WriteString(srcLine)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
	}
	return sb.String()
}

func lineCol(source string, offset int) (line, col int) {
	line, col = 1, 1
	for i, r := range source {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func sourceLine(source string, lineNum int) string {
	lines := strings.Split(source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
