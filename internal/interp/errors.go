package interp

import (
	"fmt"

	"github.com/crisp-lang/crisp/internal/diag"
)

// RuntimeError is a structured interpreter-level error (spec.md §4.11,
// §7 "Runtime (interpreter): missing member, unsupported operation —
// structured errors, not recoverable"), grounded on the teacher's own
// InterpreterError: a stable code plus the formatted message its
// registry template produces, so a host catching one of these can
// switch on Code the same way diag.Diagnostic callers switch on it.
type RuntimeError struct {
	Code    string
	NodeId  int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at node #%d: %s", e.Code, e.NodeId, e.Message)
}

func newRuntimeError(nodeId int, code string, args ...any) *RuntimeError {
	entry, ok := diag.Registry[code]
	if !ok {
		return &RuntimeError{Code: code, NodeId: nodeId, Message: fmt.Sprintf("%v", args)}
	}
	return &RuntimeError{Code: code, NodeId: nodeId, Message: fmt.Sprintf(entry.Template, args...)}
}

func missingMemberError(nodeId int, name string) *RuntimeError {
	return newRuntimeError(nodeId, "BS3001", name)
}

func treeRefError(nodeId int) *RuntimeError {
	return newRuntimeError(nodeId, "BS3002")
}
