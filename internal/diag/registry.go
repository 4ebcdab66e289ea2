package diag

// Entry is one row of the stable diagnostic code registry (spec.md §6):
// every code has a fixed severity and a printf-style message template.
type Entry struct {
	Severity Severity
	Template string
}

// Registry is the fixed, stable mapping from diagnostic code to its
// severity and message template. Codes are never renumbered once shipped —
// downstream tooling (LSP, editor) keys off them.
var Registry = map[string]Entry{
	"BS0001": {Error, "name not found: %s"},
	"BS0005": {Error, "expected %d argument(s), got %d"},
	"BS0006": {Error, "argument type mismatch: expected %s, got %s"},
	"BS0007": {Error, "condition must be a boolean expression"},
	"BS0008": {Error, "action must return BtStatus, got %s"},
	"BS0010": {Warning, "member %q is obsolete"},
	"BS0020": {Warning, "tree %q is never referenced"},
	"BS0023": {Error, "unknown decorator %q"},
	"BS0024": {Error, "decorator %q expects %d parameter(s), got %d"},
	"BS0025": {Error, "decorator %q is reentrant (direct or indirect self-reference)"},
	"BS0032": {Error, "macro %q expects %d parameter(s), got %d"},
	"BS0033": {Error, "macro expansion exceeded the maximum depth (%d)"},
	"BS0034": {Error, "macro %q is reentrant during expansion"},
	"BS0035": {Error, "failed to lower expanded body of macro %q"},
	"BS0036": {Error, "%s reached AST→IR lowering unexpanded"},
	"BS0037": {Error, "reference cycle detected: %s"},
	"BS0038": {Error, "undefined tree reference %q"},
	"BS0104": {Error, "ambiguous member %q"},
	"BS0301": {Warning, "unreachable node"},
	"BS0302": {Warning, "if without else: a false condition yields Failure"},

	// Parser-level recovery diagnostics (spec.md §4.2), not host-type
	// semantic codes but kept in the same registry so every stage reports
	// through the same mechanism.
	"BS1001": {Error, "unexpected token %s, expected %s"},
	"BS1002": {Error, "unclosed form: missing ')' before end of file"},
	"BS1003": {Error, "unrecognized top-level form"},
	"BS1004": {Error, "expected integer literal for repeat count"},
	"BS1005": {Error, "expected numeric literal for duration"},
	"BS1006": {Error, "unknown parallel policy %q"},

	// Serializer diagnostics (spec.md §4.9).
	"BS2001": {Error, "unknown IR tag %q"},
	"BS2002": {Error, "malformed IR s-expression: %s"},

	// Interpreter diagnostics (spec.md §4.11).
	"BS3001": {Error, "missing member %q on context"},
	"BS3002": {Error, "tree references are not supported by the interpreter"},
}
