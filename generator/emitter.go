package generator

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/cffi-gen/parser"
	"github.com/ardanlabs/cffi-gen/resolve"
)

// Library is the structured binding output of one run. Named types are
// library scoped; signatures are grouped per header.
type Library struct {
	Enums      []EnumDef      `json:"enums"`
	Containers []ContainerDef `json:"containers"`
	Headers    []HeaderDef    `json:"headers"`
}

type EnumMember struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type EnumDef struct {
	Name         string       `json:"name"`
	ReferencedBy []string     `json:"referenced_by"`
	Members      []EnumMember `json:"members"`
}

type ContainerDef struct {
	Name         string          `json:"name"`
	Class        string          `json:"class"`
	Union        bool            `json:"union,omitempty"`
	Opaque       bool            `json:"opaque,omitempty"`
	ReferencedBy []string        `json:"referenced_by"`
	Fields       []resolve.Field `json:"fields,omitempty"`
}

type SignatureDef struct {
	Name   string         `json:"name"`
	Order  int            `json:"order"`
	Params []resolve.Expr `json:"params"`
	Return resolve.Expr   `json:"return"`
}

type HeaderDef struct {
	Name      string         `json:"name"`
	Callbacks []SignatureDef `json:"callbacks"`
	Functions []SignatureDef `json:"functions"`
}

// Base is the header file name without directory or extension.
func (h HeaderDef) Base() string {
	base := filepath.Base(h.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Emit renders the state of a resolved run: enums in RequiredSet order,
// containers with by-value dependencies first, then each header's callbacks
// and functions.
func Emit(run *resolve.Run) (*Library, error) {
	lib := &Library{}
	required := run.Required.Types()

	for _, n := range required {
		if n.Kind != parser.Enum {
			continue
		}
		lib.Enums = append(lib.Enums, emitEnum(run, n))
	}

	ordered, err := containerOrder(run, required)
	if err != nil {
		return nil, fmt.Errorf("ordering containers: %w", err)
	}

	for _, n := range ordered {
		def, err := emitContainer(run, n)
		if err != nil {
			return nil, err
		}
		lib.Containers = append(lib.Containers, def)
	}

	for _, h := range run.Headers {
		hd := HeaderDef{Name: h.Name}
		for _, b := range h.Callbacks {
			hd.Callbacks = append(hd.Callbacks, emitSignature(b))
		}
		for _, b := range h.Functions {
			hd.Functions = append(hd.Functions, emitSignature(b))
		}
		lib.Headers = append(lib.Headers, hd)
	}

	return lib, nil
}

func emitEnum(run *resolve.Run, n *parser.Named) EnumDef {
	def := EnumDef{
		Name:         run.Catalog.NameOf(n),
		ReferencedBy: run.Required.Signatures(n),
	}
	for _, e := range n.Enumerators {
		def.Members = append(def.Members, EnumMember{Name: e.Name, Value: e.Value})
	}
	return def
}

func emitContainer(run *resolve.Run, n *parser.Named) (ContainerDef, error) {
	name := run.Catalog.NameOf(n)
	def := ContainerDef{
		Name:         name,
		Class:        resolve.ClassName(name),
		Union:        n.Kind == parser.Union,
		Opaque:       !n.Complete,
		ReferencedBy: run.Required.Signatures(n),
	}
	if def.Opaque {
		return def, nil
	}

	fields, err := run.Mapper.Fields(n)
	if err != nil {
		var unsupported *resolve.UnsupportedTypeError
		if run.SkipUnsupported() && errors.As(err, &unsupported) {
			run.Logger().Warn("emitting opaque placeholder", "type", name, "error", err)
			def.Opaque = true
			return def, nil
		}
		return ContainerDef{}, fmt.Errorf("%s %s: %w", n.Kind, name, err)
	}
	def.Fields = fields

	return def, nil
}

func emitSignature(b resolve.Binding) SignatureDef {
	return SignatureDef{
		Name:   b.Name,
		Order:  b.Order,
		Params: b.ParamExprs,
		Return: b.ReturnExpr,
	}
}

// containerOrder sorts the required containers so that every container
// comes after the containers it embeds by value. Containers already in a
// valid order keep it.
func containerOrder(run *resolve.Run, required []*parser.Named) ([]*parser.Named, error) {
	var (
		out      []*parser.Named
		visited  = make(map[*parser.Named]bool)
		visiting = make(map[*parser.Named]bool)
	)

	var visit func(n *parser.Named) error
	visit = func(n *parser.Named) error {
		if visited[n] || visiting[n] {
			return nil
		}
		visiting[n] = true

		deps, err := byValueDeps(run, n.Members, nil)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if run.Required.Has(d) {
				if err := visit(d); err != nil {
					return err
				}
			}
		}

		visiting[n] = false
		visited[n] = true
		out = append(out, n)
		return nil
	}

	for _, n := range required {
		if !n.IsContainer() {
			continue
		}
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func byValueDeps(run *resolve.Run, members []parser.Member, deps []*parser.Named) ([]*parser.Named, error) {
	for _, m := range members {
		t := m.Type
		if a, ok := t.(*parser.Alias); ok {
			if a.Name == run.Catalog.Variadic() {
				continue
			}
			u, err := run.Catalog.Underlying(a.Name)
			if err != nil {
				return nil, err
			}
			t = u
		}

		n, ok := t.(*parser.Named)
		if !ok || !n.IsContainer() {
			continue
		}

		if run.Catalog.NameOf(n) == "" {
			var err error
			if deps, err = byValueDeps(run, n.Members, deps); err != nil {
				return nil, err
			}
			continue
		}
		deps = append(deps, n)
	}
	return deps, nil
}
