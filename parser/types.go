package parser

import "strings"

// Type is one of *Primitive, *Pointer, *Array, *Named, *Alias or *Function.
type Type interface {
	isType()
	String() string
}

type Primitive struct {
	// Words are the specifier keywords as written, qualifiers included,
	// e.g. []string{"const", "unsigned", "long", "int"}.
	Words []string
}

type Pointer struct {
	To Type
}

// Array is reported by the Parser for array declarators so that callers can
// reject them instead of silently decaying them to pointers.
type Array struct {
	Elem Type
	Len  string
}

type Kind int

const (
	Struct Kind = iota
	Union
	Enum
)

func (k Kind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	}
	return "unknown"
}

type Member struct {
	Name string
	Type Type
}

type Enumerator struct {
	Name string
	// Value is the initializer expression verbatim, empty when implicit.
	Value string
}

// Named is a struct, union or enum. Name is the tag and may be empty for
// anonymous definitions. Complete is false for forward declarations.
// Within one Parser every reference to a tag shares the same *Named.
type Named struct {
	Kind        Kind
	Name        string
	Complete    bool
	Members     []Member
	Enumerators []Enumerator
}

func (n *Named) IsContainer() bool {
	return n.Kind == Struct || n.Kind == Union
}

type Alias struct {
	Name string
}

// Function is a function type. Return may be nil on declarations coming
// straight from Parse; see resolve.Gather.
type Function struct {
	Params []Type
	Return Type
}

func (*Primitive) isType() {}
func (*Pointer) isType()   {}
func (*Array) isType()     {}
func (*Named) isType()     {}
func (*Alias) isType()     {}
func (*Function) isType()  {}

func (p *Primitive) String() string { return strings.Join(p.Words, " ") }
func (p *Pointer) String() string   { return p.To.String() + " *" }
func (a *Array) String() string     { return a.Elem.String() + " [" + a.Len + "]" }
func (a *Alias) String() string     { return a.Name }

func (n *Named) String() string {
	if n.Name == "" {
		return n.Kind.String() + " <anonymous>"
	}
	return n.Kind.String() + " " + n.Name
}

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := "?"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return ret + " (" + strings.Join(params, ", ") + ")"
}

// Prim builds a Primitive from a C spelling such as "const unsigned int".
func Prim(spelling string) *Primitive {
	return &Primitive{Words: strings.Fields(spelling)}
}

// Variadic is the default alias name standing for a "..." parameter.
const Variadic = "__va_args__"

// Decl is a top-level declaration. For function declarators Parse
// leaves Function.Return unset and records the declared return type in
// Result, mirroring where C spells it.
type Decl struct {
	Name    string
	Type    Type
	Result  Type
	Typedef bool
	HasBody bool
}

// File is the declaration list of one header, in source order.
type File struct {
	Name  string
	Decls []Decl
}
