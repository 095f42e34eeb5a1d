// Package parser turns C headers into typed declarations using the
// tree-sitter C grammar.
package parser

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

var keywords = map[string]bool{
	"void":     true,
	"char":     true,
	"short":    true,
	"int":      true,
	"long":     true,
	"float":    true,
	"double":   true,
	"signed":   true,
	"unsigned": true,
	"_Bool":    true,
	"bool":     true,
}

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"type_identifier":          true,
	"field_identifier":         true,
	"pointer_declarator":       true,
	"function_declarator":      true,
	"array_declarator":         true,
	"parenthesized_declarator": true,
	"init_declarator":          true,
}

// Parser converts headers of one generation run. Struct, union and enum
// tags are shared across every file parsed with the same Parser.
type Parser struct {
	variadic string
	tags     map[string]*Named
}

func New(variadic string) *Parser {
	if variadic == "" {
		variadic = Variadic
	}
	return &Parser{
		variadic: variadic,
		tags:     make(map[string]*Named),
	}
}

func (p *Parser) ParseFile(ctx context.Context, path string) (File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading header: %w", err)
	}
	return p.Parse(ctx, path, src)
}

// Parse converts one header. Any syntax error is returned as *ParseError.
func (p *Parser) Parse(ctx context.Context, name string, src []byte) (File, error) {
	ts := sitter.NewParser()
	defer ts.Close()
	ts.SetLanguage(c.GetLanguage())

	tree, err := ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return File{}, &ParseError{File: name, Content: string(src), Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return File{}, &ParseError{File: name, Content: string(src), Err: syntaxError(root, src)}
	}

	f := File{Name: name}
	if err := p.items(root, src, &f); err != nil {
		return File{}, &ParseError{File: name, Content: string(src), Err: err}
	}

	return f, nil
}

func (p *Parser) items(n *sitter.Node, src []byte, f *File) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		var err error
		switch child.Type() {
		case "declaration":
			err = p.declaration(child, src, false, f)
		case "type_definition":
			err = p.declaration(child, src, true, f)
		case "function_definition":
			err = p.definition(child, src, f)
		case "struct_specifier", "union_specifier", "enum_specifier":
			_, err = p.specifier(child, src)
		case "linkage_specification":
			if body := child.ChildByFieldName("body"); body != nil {
				err = p.items(body, src, f)
			}
		case "declaration_list", "preproc_ifdef", "preproc_if":
			// Only the first branch of a conditional is read; that covers
			// include guards and extern "C" wrappers.
			err = p.items(child, src, f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) declaration(n *sitter.Node, src []byte, typedef bool, f *File) error {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}

	base, err := p.specifier(typeNode, src)
	if err != nil {
		return err
	}
	base = qualify(base, n, src)

	for _, d := range declarators(n, typeNode) {
		name, t, err := p.declarator(d, src, base)
		if err != nil {
			return err
		}

		decl := Decl{Name: name, Type: t, Typedef: typedef}
		decl.Result = splitResult(t)
		f.Decls = append(f.Decls, decl)
	}
	return nil
}

func (p *Parser) definition(n *sitter.Node, src []byte, f *File) error {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}

	base, err := p.specifier(typeNode, src)
	if err != nil {
		return err
	}

	name, t, err := p.declarator(n.ChildByFieldName("declarator"), src, qualify(base, n, src))
	if err != nil {
		return err
	}

	f.Decls = append(f.Decls, Decl{Name: name, Type: t, Result: splitResult(t), HasBody: true})
	return nil
}

// splitResult detaches the return type of a top-level function declarator
// so that it sits on the declaration, where C spells it.
func splitResult(t Type) Type {
	if ptr, ok := t.(*Pointer); ok {
		t = ptr.To
	}
	fn, ok := t.(*Function)
	if !ok {
		return nil
	}
	result := fn.Return
	fn.Return = nil
	return result
}

func (p *Parser) specifier(n *sitter.Node, src []byte) (Type, error) {
	switch n.Type() {
	case "primitive_type":
		// The grammar also tags library typedefs such as size_t or
		// uint32_t as primitive types; only keywords stay primitive.
		name := n.Content(src)
		if !keywords[name] {
			return &Alias{Name: name}, nil
		}
		return Prim(name), nil
	case "sized_type_specifier":
		return Prim(n.Content(src)), nil
	case "type_identifier":
		return &Alias{Name: n.Content(src)}, nil
	case "struct_specifier":
		return p.named(n, src, Struct)
	case "union_specifier":
		return p.named(n, src, Union)
	case "enum_specifier":
		return p.named(n, src, Enum)
	}
	return nil, fmt.Errorf("%s: unsupported type specifier %s %q", position(n), n.Type(), n.Content(src))
}

func (p *Parser) named(n *sitter.Node, src []byte, kind Kind) (*Named, error) {
	var node *Named
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name := nameNode.Content(src)
		key := kind.String() + " " + name
		node = p.tags[key]
		if node == nil {
			node = &Named{Kind: kind, Name: name}
			p.tags[key] = node
		}
	} else {
		node = &Named{Kind: kind}
	}

	body := n.ChildByFieldName("body")
	if body == nil || node.Complete {
		return node, nil
	}
	node.Complete = true

	if kind == Enum {
		node.Enumerators = enumerators(body, src)
		return node, nil
	}

	members, err := p.members(body, src)
	if err != nil {
		return nil, err
	}
	node.Members = members
	return node, nil
}

func (p *Parser) members(body *sitter.Node, src []byte) ([]Member, error) {
	var members []Member

	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}

		typeNode := field.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		base, err := p.specifier(typeNode, src)
		if err != nil {
			return nil, err
		}
		base = qualify(base, field, src)

		decls := declarators(field, typeNode)
		if len(decls) == 0 {
			// C11 anonymous struct or union member.
			members = append(members, Member{Name: "anon" + strconv.Itoa(len(members)), Type: base})
			continue
		}

		for _, d := range decls {
			name, t, err := p.declarator(d, src, base)
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Name: name, Type: t})
		}
	}

	return members, nil
}

func enumerators(body *sitter.Node, src []byte) []Enumerator {
	var out []Enumerator
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		en := Enumerator{Name: e.ChildByFieldName("name").Content(src)}
		if v := e.ChildByFieldName("value"); v != nil {
			en.Value = strings.Join(strings.Fields(v.Content(src)), " ")
		}
		out = append(out, en)
	}
	return out
}

// declarator applies the declarator n to base, from the outside in, and
// returns the declared name with its full type.
func (p *Parser) declarator(n *sitter.Node, src []byte, base Type) (string, Type, error) {
	if n == nil {
		return "", base, nil
	}

	switch n.Type() {
	case "identifier", "type_identifier", "field_identifier":
		return n.Content(src), base, nil

	case "pointer_declarator", "abstract_pointer_declarator":
		return p.declarator(n.ChildByFieldName("declarator"), src, &Pointer{To: base})

	case "function_declarator", "abstract_function_declarator":
		params, err := p.parameters(n.ChildByFieldName("parameters"), src)
		if err != nil {
			return "", nil, err
		}
		return p.declarator(n.ChildByFieldName("declarator"), src, &Function{Params: params, Return: base})

	case "array_declarator", "abstract_array_declarator":
		var size string
		if s := n.ChildByFieldName("size"); s != nil {
			size = s.Content(src)
		}
		return p.declarator(n.ChildByFieldName("declarator"), src, &Array{Elem: base, Len: size})

	case "parenthesized_declarator", "abstract_parenthesized_declarator":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			inner := n.NamedChild(i)
			if strings.HasSuffix(inner.Type(), "declarator") || declaratorTypes[inner.Type()] {
				return p.declarator(inner, src, base)
			}
		}
		return "", base, nil

	case "init_declarator":
		return p.declarator(n.ChildByFieldName("declarator"), src, base)
	}

	return "", nil, fmt.Errorf("%s: unsupported declarator %s %q", position(n), n.Type(), n.Content(src))
}

func (p *Parser) parameters(n *sitter.Node, src []byte) ([]Type, error) {
	if n == nil {
		return nil, nil
	}

	var params []Type
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)

		switch child.Type() {
		case "variadic_parameter", "...":
			params = append(params, &Alias{Name: p.variadic})

		case "parameter_declaration", "optional_parameter_declaration":
			typeNode := child.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			base, err := p.specifier(typeNode, src)
			if err != nil {
				return nil, err
			}
			base = qualify(base, child, src)

			_, t, err := p.declarator(child.ChildByFieldName("declarator"), src, base)
			if err != nil {
				return nil, err
			}
			params = append(params, decay(t))
		}
	}

	if len(params) == 1 {
		if prim, ok := params[0].(*Primitive); ok && len(prim.Words) == 1 && prim.Words[0] == "void" {
			return nil, nil
		}
	}

	return params, nil
}

// decay applies C parameter adjustment: arrays and functions become pointers.
func decay(t Type) Type {
	switch t := t.(type) {
	case *Array:
		return &Pointer{To: t.Elem}
	case *Function:
		return &Pointer{To: t}
	}
	return t
}

// qualify prefixes the type qualifiers written on n to a primitive base.
func qualify(base Type, n *sitter.Node, src []byte) Type {
	prim, ok := base.(*Primitive)
	if !ok {
		return base
	}

	var quals []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_qualifier" {
			quals = append(quals, child.Content(src))
		}
	}
	if len(quals) == 0 {
		return base
	}

	return &Primitive{Words: append(quals, prim.Words...)}
}

// declarators returns the declarator children of n that follow its type
// specifier.
func declarators(n, typeNode *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.StartByte() <= typeNode.StartByte() {
			continue
		}
		if declaratorTypes[child.Type()] {
			out = append(out, child)
		}
	}
	return out
}

func syntaxError(root *sitter.Node, src []byte) error {
	bad := firstError(root)
	if bad == nil {
		return fmt.Errorf("syntax error")
	}
	if bad.IsMissing() {
		return fmt.Errorf("%s: syntax error: missing %s", position(bad), bad.Type())
	}
	return fmt.Errorf("%s: syntax error near %q", position(bad), snippet(bad.Content(src)))
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.HasError() || child.IsMissing() {
			if bad := firstError(child); bad != nil {
				return bad
			}
		}
	}
	return nil
}

func position(n *sitter.Node) string {
	pt := n.StartPoint()
	return fmt.Sprintf("%d:%d", pt.Row+1, pt.Column+1)
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
