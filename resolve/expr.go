package resolve

import "strings"

type ExprKind int

const (
	Scalar ExprKind = iota
	String
	Opaque
	ByValue
	EnumRef
	VarArgs
	Inline
)

var exprKindNames = [...]string{
	Scalar:  "scalar",
	String:  "string",
	Opaque:  "pointer",
	ByValue: "by_value",
	EnumRef: "enum",
	VarArgs: "varargs",
	Inline:  "inline",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "unknown"
}

func (k ExprKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Expr is a target type expression. Token is the host spelling, e.g. ":uint",
// ":string" or "Point.by_value".
type Expr struct {
	Kind   ExprKind `json:"kind"`
	Token  string   `json:"token"`
	Name   string   `json:"name,omitempty"`
	Union  bool     `json:"union,omitempty"`
	Fields []Field  `json:"fields,omitempty"`
}

type Field struct {
	Name string `json:"name"`
	Type Expr   `json:"type"`
}

const sigil = ":"

var (
	stringExpr  = Expr{Kind: String, Token: sigil + "string"}
	pointerExpr = Expr{Kind: Opaque, Token: sigil + "pointer"}
	varArgsExpr = Expr{Kind: VarArgs, Token: sigil + "varargs"}
	intExpr     = Expr{Kind: Scalar, Token: sigil + "int"}
)

// inlineToken spells an anonymous nested container as an unnamed class.
func inlineToken(union bool, fields []Field) string {
	base := "FFI::Struct"
	if union {
		base = "FFI::Union"
	}

	if len(fields) == 0 {
		return "Class.new(" + base + ").by_value"
	}

	parts := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		parts = append(parts, sigil+f.Name, f.Type.Token)
	}

	return "Class.new(" + base + ") { layout " + strings.Join(parts, ", ") + " }.by_value"
}
