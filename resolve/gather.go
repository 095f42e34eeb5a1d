package resolve

import (
	"github.com/ardanlabs/cffi-gen/parser"
)

type Signature struct {
	Name   string
	Params []parser.Type
	Return parser.Type
}

func signatureOf(name string, fn *parser.Function) Signature {
	return Signature{
		Name:   name,
		Params: fn.Params,
		Return: fn.Return,
	}
}

// Gathered holds the bindable signatures of one header in declaration order.
type Gathered struct {
	Header    string
	Callbacks []Signature
	Functions []Signature
}

// Gather collects function declarations and function pointer typedefs.
// The declared return type is attached to the function node, which the
// parser leaves on the declaration.
func Gather(file parser.File) Gathered {
	g := Gathered{Header: file.Name}

	for _, d := range file.Decls {
		if d.HasBody {
			continue
		}

		switch t := d.Type.(type) {
		case *parser.Function:
			if d.Typedef {
				continue
			}
			attachReturn(t, d.Result)
			g.Functions = append(g.Functions, signatureOf(d.Name, t))

		case *parser.Pointer:
			fn, ok := t.To.(*parser.Function)
			if !ok || !d.Typedef {
				continue
			}
			attachReturn(fn, d.Result)
			g.Callbacks = append(g.Callbacks, signatureOf(d.Name, fn))
		}
	}

	return g
}

func attachReturn(fn *parser.Function, result parser.Type) {
	if result != nil {
		fn.Return = result
	}
	if fn.Return == nil {
		fn.Return = &parser.Primitive{Words: []string{"int"}}
	}
}
