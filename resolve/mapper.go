package resolve

import (
	"strings"

	"github.com/golang-cz/textcase"

	"github.com/ardanlabs/cffi-gen/parser"
)

// Mapper converts C types to target expressions. Map records what it
// touches in the RequiredSet; Expr only computes the expression.
type Mapper struct {
	catalog   *Catalog
	collector *Collector
}

func NewMapper(catalog *Catalog, collector *Collector) *Mapper {
	return &Mapper{
		catalog:   catalog,
		collector: collector,
	}
}

func (m *Mapper) Map(t parser.Type, signature string) (Expr, error) {
	return m.mapType(t, signature, true)
}

func (m *Mapper) Expr(t parser.Type) (Expr, error) {
	return m.mapType(t, "", false)
}

func (m *Mapper) mapType(t parser.Type, signature string, record bool) (Expr, error) {
	switch t := t.(type) {
	case *parser.Alias:
		if t.Name == m.catalog.Variadic() {
			return varArgsExpr, nil
		}
		u, err := m.catalog.Underlying(t.Name)
		if err != nil {
			return Expr{}, err
		}
		return m.mapType(u, signature, record)

	case *parser.Pointer:
		if p, ok := t.To.(*parser.Primitive); ok && isReadOnlyChar(p) {
			return stringExpr, nil
		}
		if record {
			switch t.To.(type) {
			case *parser.Pointer, *parser.Named:
				if err := m.collector.Require(t.To, signature); err != nil {
					return Expr{}, err
				}
			}
		}
		return pointerExpr, nil

	case *parser.Named:
		return m.mapNamed(t, signature, record)

	case *parser.Primitive:
		return Expr{Kind: Scalar, Token: sigil + ScalarToken(t.Words)}, nil

	case *parser.Function, *parser.Array:
		return Expr{}, &UnsupportedTypeError{Type: t, Signature: signature}
	}

	return Expr{}, &UnsupportedTypeError{Type: t, Signature: signature}
}

func (m *Mapper) mapNamed(n *parser.Named, signature string, record bool) (Expr, error) {
	if record {
		if err := m.collector.Require(n, signature); err != nil {
			return Expr{}, err
		}
	}

	name := m.catalog.NameOf(n)

	if n.Kind == parser.Enum {
		if name == "" {
			return intExpr, nil
		}
		return Expr{Kind: EnumRef, Token: sigil + name, Name: name}, nil
	}

	if name == "" {
		fields, err := m.Fields(n)
		if err != nil {
			return Expr{}, err
		}
		union := n.Kind == parser.Union
		return Expr{Kind: Inline, Token: inlineToken(union, fields), Union: union, Fields: fields}, nil
	}

	class := ClassName(name)
	return Expr{Kind: ByValue, Token: class + ".by_value", Name: class}, nil
}

// Fields maps the members of a container without recording anything.
func (m *Mapper) Fields(n *parser.Named) ([]Field, error) {
	fields := make([]Field, 0, len(n.Members))
	for _, mem := range n.Members {
		e, err := m.Expr(mem.Type)
		if err != nil {
			if u, ok := err.(*UnsupportedTypeError); ok && u.Signature == "" {
				u.Signature = n.String() + "." + mem.Name
			}
			return nil, err
		}
		fields = append(fields, Field{Name: mem.Name, Type: e})
	}
	return fields, nil
}

// ClassName is the host class name of a named container.
func ClassName(name string) string {
	return textcase.PascalCase(name)
}

var qualifiers = map[string]bool{
	"const":    true,
	"restrict": true,
	"volatile": true,
}

// ScalarToken rewrites primitive specifier words into a scalar name:
// qualifiers and "signed" are dropped, "int" is dropped when another word
// remains, "unsigned" in any position prefixes the result with "u" and the
// rest is joined with underscores.
func ScalarToken(words []string) string {
	var (
		kept     []string
		unsigned bool
	)
	for _, w := range words {
		switch {
		case qualifiers[w], w == "signed", w == "int":
		case w == "unsigned":
			unsigned = true
		case w == "_Bool":
			kept = append(kept, "bool")
		default:
			kept = append(kept, w)
		}
	}

	if len(kept) == 0 {
		kept = []string{"int"}
	}
	if unsigned {
		kept[0] = "u" + kept[0]
	}

	return strings.Join(kept, "_")
}

func isReadOnlyChar(p *parser.Primitive) bool {
	if len(p.Words) != 2 {
		return false
	}
	var isConst, isChar bool
	for _, w := range p.Words {
		switch w {
		case "const":
			isConst = true
		case "char":
			isChar = true
		}
	}
	return isConst && isChar
}
