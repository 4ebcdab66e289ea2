package cst

var kindNames = map[Kind]string{
	KProgram:          "Program",
	KTree:             "Tree",
	KSelect:           "Select",
	KSequence:         "Sequence",
	KParallel:         "Parallel",
	KCheck:            "Check",
	KGuard:            "Guard",
	KIf:               "If",
	KInvert:           "Invert",
	KRepeat:           "Repeat",
	KTimeout:          "Timeout",
	KCooldown:         "Cooldown",
	KWhile:            "While",
	KReactive:         "Reactive",
	KReactiveSelect:   "ReactiveSelect",
	KRef:              "Ref",
	KDefdec:           "Defdec",
	KDefmacro:         "Defmacro",
	KDefdecCall:       "DefdecCall",
	KBodyPlaceholder:  "BodyPlaceholder",
	KImport:           "Import",
	KCall:             "Call",
	KMemberAccess:     "MemberAccess",
	KBlackboardAccess: "BlackboardAccess",
	KIntLiteral:       "IntLiteral",
	KFloatLiteral:     "FloatLiteral",
	KStringLiteral:    "StringLiteral",
	KBoolLiteral:      "BoolLiteral",
	KNullLiteral:      "NullLiteral",
	KEnumLiteral:      "EnumLiteral",
	KBinaryExpr:       "BinaryExpr",
	KUnaryExpr:        "UnaryExpr",
	KLogicExpr:        "LogicExpr",
	KParamRef:         "ParamRef",
	KMissing:          "Missing",
	KError:            "Error",
}

// String renders a Kind's name, used in diagnostics and debug dumps.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}
