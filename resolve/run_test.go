package resolve

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/cffi-gen/parser"
)

// colorFile is: typedef enum {A, B=5} Color; void f(Color c, const char* s, int* p);
func colorFile() (parser.File, *parser.Named) {
	color := &parser.Named{Kind: parser.Enum, Complete: true, Enumerators: []parser.Enumerator{
		{Name: "A"},
		{Name: "B", Value: "5"},
	}}
	f := &parser.Function{Params: []parser.Type{
		&parser.Alias{Name: "Color"},
		&parser.Pointer{To: parser.Prim("const char")},
		&parser.Pointer{To: parser.Prim("int")},
	}}
	return parser.File{
		Name: "color.h",
		Decls: []parser.Decl{
			{Name: "Color", Type: color, Typedef: true},
			{Name: "f", Type: f, Result: parser.Prim("void")},
		},
	}, color
}

func TestRunEndToEnd(t *testing.T) {
	file, color := colorFile()
	run := NewRun(Options{})

	require.NoError(t, run.Resolve([]parser.File{file}))

	assert.Equal(t, []*parser.Named{color}, run.Required.Types())
	assert.Equal(t, []string{"f"}, run.Required.Signatures(color))

	require.Len(t, run.Headers, 1)
	h := run.Headers[0]
	assert.Equal(t, "color.h", h.Name)
	require.Len(t, h.Functions, 1)

	f := h.Functions[0]
	assert.Equal(t, "f", f.Name)
	assert.Equal(t, []Expr{
		{Kind: EnumRef, Token: ":Color", Name: "Color"},
		stringExpr,
		pointerExpr,
	}, f.ParamExprs)
	assert.Equal(t, Expr{Kind: Scalar, Token: ":void"}, f.ReturnExpr)
}

func TestRunSelfReferentialStruct(t *testing.T) {
	node := &parser.Named{Kind: parser.Struct, Name: "Node", Complete: true}
	node.Members = []parser.Member{{Name: "next", Type: &parser.Pointer{To: node}}}
	file := parser.File{Name: "list.h", Decls: []parser.Decl{
		{Name: "list_len", Type: &parser.Function{Params: []parser.Type{&parser.Pointer{To: node}}}, Result: parser.Prim("int")},
	}}

	run := NewRun(Options{})
	require.NoError(t, run.Resolve([]parser.File{file}))

	assert.Equal(t, []*parser.Named{node}, run.Required.Types())
	assert.Equal(t, []string{"list_len"}, run.Required.Signatures(node))
}

func TestRunCallbacksBeforeFunctions(t *testing.T) {
	file := parser.File{Name: "ev.h", Decls: []parser.Decl{
		{Name: "ev_run", Type: &parser.Function{Params: []parser.Type{&parser.Alias{Name: "ev_cb"}}}, Result: parser.Prim("void")},
		{Name: "ev_cb", Type: &parser.Pointer{To: &parser.Function{Params: []parser.Type{parser.Prim("int")}}}, Result: parser.Prim("void"), Typedef: true},
	}}

	run := NewRun(Options{})
	require.NoError(t, run.Resolve([]parser.File{file}))

	h := run.Headers[0]
	require.Len(t, h.Callbacks, 1)
	require.Len(t, h.Functions, 1)
	assert.Equal(t, 0, h.Callbacks[0].Order)
	assert.Equal(t, 1, h.Functions[0].Order)
	assert.Equal(t, []Expr{pointerExpr}, h.Functions[0].ParamExprs)
	assert.Equal(t, []Expr{{Kind: Scalar, Token: ":int"}}, h.Callbacks[0].ParamExprs)
}

func TestRunTypedefsAcrossHeaders(t *testing.T) {
	types := parser.File{Name: "types.h", Decls: []parser.Decl{
		{Name: "u8", Type: parser.Prim("unsigned char"), Typedef: true},
	}}
	api := parser.File{Name: "api.h", Decls: []parser.Decl{
		{Name: "get", Type: &parser.Function{}, Result: &parser.Alias{Name: "u8"}},
	}}

	run := NewRun(Options{})
	require.NoError(t, run.Resolve([]parser.File{api, types}))

	assert.Equal(t, ":uchar", run.Headers[0].Functions[0].ReturnExpr.Token)
}

func TestRunUnknownAliasAborts(t *testing.T) {
	file := parser.File{Name: "a.h", Decls: []parser.Decl{
		{Name: "g", Type: &parser.Function{Params: []parser.Type{&parser.Alias{Name: "FILE"}}}, Result: parser.Prim("void")},
	}}

	run := NewRun(Options{SkipUnsupported: true})
	err := run.Resolve([]parser.File{file})

	var unknown *UnknownAliasError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "a.h: function g")
}

func TestRunUnsupported(t *testing.T) {
	node := &parser.Named{Kind: parser.Struct, Name: "buf"}
	file := parser.File{Name: "a.h", Decls: []parser.Decl{
		{Name: "bad", Type: &parser.Function{Params: []parser.Type{
			&parser.Pointer{To: node},
			&parser.Function{Return: parser.Prim("void")},
		}}, Result: parser.Prim("void")},
		{Name: "good", Type: &parser.Function{}, Result: parser.Prim("int")},
	}}

	t.Run("abort", func(t *testing.T) {
		run := NewRun(Options{})
		err := run.Resolve([]parser.File{file})

		var unsupported *UnsupportedTypeError
		require.ErrorAs(t, err, &unsupported)
	})

	t.Run("skip", func(t *testing.T) {
		var logs bytes.Buffer
		run := NewRun(Options{
			SkipUnsupported: true,
			Logger:          slog.New(slog.NewTextHandler(&logs, nil)),
		})
		require.NoError(t, run.Resolve([]parser.File{file}))

		require.Len(t, run.Headers[0].Functions, 1)
		assert.Equal(t, "good", run.Headers[0].Functions[0].Name)
		assert.Zero(t, run.Required.Len(), "skipped signatures require nothing")
		assert.Contains(t, logs.String(), "skipping declaration")
		assert.Contains(t, logs.String(), "name=bad")
	})
}

func TestRunPredefined(t *testing.T) {
	file := parser.File{Name: "a.h", Decls: []parser.Decl{
		{Name: "vlog", Type: &parser.Function{Params: []parser.Type{&parser.Alias{Name: "va_list"}}}, Result: parser.Prim("void")},
	}}

	run := NewRun(Options{Predefined: map[string]parser.Type{
		"va_list": &parser.Pointer{To: parser.Prim("void")},
	}})
	require.NoError(t, run.Resolve([]parser.File{file}))

	assert.Equal(t, []Expr{pointerExpr}, run.Headers[0].Functions[0].ParamExprs)
}
