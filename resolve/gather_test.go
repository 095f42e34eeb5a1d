package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/cffi-gen/parser"
)

func TestGather(t *testing.T) {
	cbFn := &parser.Function{Params: []parser.Type{parser.Prim("int")}}
	openFn := &parser.Function{Params: []parser.Type{&parser.Pointer{To: parser.Prim("const char")}}}
	defFn := &parser.Function{}
	varFn := &parser.Function{}
	fnTypedef := &parser.Function{}

	file := parser.File{
		Name: "io.h",
		Decls: []parser.Decl{
			{Name: "on_event", Type: &parser.Pointer{To: cbFn}, Result: parser.Prim("void"), Typedef: true},
			{Name: "io_open", Type: openFn, Result: &parser.Pointer{To: parser.Prim("void")}},
			{Name: "io_inline", Type: defFn, Result: parser.Prim("int"), HasBody: true},
			{Name: "global_hook", Type: &parser.Pointer{To: varFn}, Result: parser.Prim("void")},
			{Name: "handler_fn", Type: fnTypedef, Result: parser.Prim("void"), Typedef: true},
			{Name: "count", Type: parser.Prim("int")},
		},
	}

	g := Gather(file)

	assert.Equal(t, "io.h", g.Header)
	require.Len(t, g.Callbacks, 1)
	require.Len(t, g.Functions, 1)

	assert.Equal(t, "on_event", g.Callbacks[0].Name)
	assert.Equal(t, parser.Prim("void"), g.Callbacks[0].Return)
	assert.Equal(t, parser.Prim("void"), cbFn.Return, "return type is attached to the shared node")

	assert.Equal(t, "io_open", g.Functions[0].Name)
	assert.Equal(t, &parser.Pointer{To: parser.Prim("void")}, g.Functions[0].Return)
	assert.Len(t, g.Functions[0].Params, 1)

	assert.Nil(t, defFn.Return)
	assert.Nil(t, varFn.Return)
}

func TestGatherKeepsDeclarationOrder(t *testing.T) {
	var decls []parser.Decl
	for _, name := range []string{"c", "a", "b"} {
		decls = append(decls, parser.Decl{Name: name, Type: &parser.Function{}, Result: parser.Prim("void")})
	}

	g := Gather(parser.File{Name: "x.h", Decls: decls})

	var names []string
	for _, f := range g.Functions {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestGatherImplicitIntReturn(t *testing.T) {
	fn := &parser.Function{}
	g := Gather(parser.File{Decls: []parser.Decl{{Name: "legacy", Type: fn}}})

	require.Len(t, g.Functions, 1)
	assert.Equal(t, parser.Prim("int"), fn.Return)
}
