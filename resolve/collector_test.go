package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/cffi-gen/parser"
)

func newCollector() (*Collector, *Catalog, *RequiredSet) {
	c := NewCatalog("")
	set := NewRequiredSet()
	return NewCollector(c, set), c, set
}

func TestRequireAttributionIsOrderedAndDistinct(t *testing.T) {
	col, _, set := newCollector()
	s := &parser.Named{Kind: parser.Struct, Name: "S", Complete: true}

	for _, sig := range []string{"f1", "f1", "f2", "f3", "f2"} {
		require.NoError(t, col.Require(s, sig))
	}

	assert.Equal(t, []string{"f1", "f2", "f3"}, set.Signatures(s))
	assert.Equal(t, 1, set.Len())
}

func TestRequireNestedMembers(t *testing.T) {
	col, c, set := newCollector()

	mode := &parser.Named{Kind: parser.Enum, Name: "mode", Complete: true}
	vec := &parser.Named{Kind: parser.Struct, Complete: true, Members: []parser.Member{
		{Name: "x", Type: parser.Prim("float")},
	}}
	c.Register("Vec", vec)
	inner := &parser.Named{Kind: parser.Struct, Name: "inner", Complete: true}
	body := &parser.Named{Kind: parser.Struct, Name: "body", Complete: true, Members: []parser.Member{
		{Name: "pos", Type: &parser.Alias{Name: "Vec"}},
		{Name: "mode", Type: mode},
		{Name: "anon", Type: &parser.Named{Kind: parser.Union, Complete: true, Members: []parser.Member{
			{Name: "in", Type: inner},
		}}},
		{Name: "next", Type: &parser.Pointer{To: &parser.Named{Kind: parser.Struct, Name: "other"}}},
	}}

	require.NoError(t, col.Require(body, "step"))

	assert.Equal(t, []*parser.Named{vec, mode, inner, body}, set.Types())
	for _, n := range set.Types() {
		assert.Equal(t, []string{"step"}, set.Signatures(n))
	}
}

func TestRequireOpaqueContainer(t *testing.T) {
	col, _, set := newCollector()
	handle := &parser.Named{Kind: parser.Struct, Name: "handle"}

	require.NoError(t, col.Require(&parser.Pointer{To: handle}, "close"))

	assert.True(t, set.Has(handle))
	assert.Equal(t, []string{"close"}, set.Signatures(handle))
}

func TestRequireSelfReferentialPointer(t *testing.T) {
	col, _, set := newCollector()
	node := &parser.Named{Kind: parser.Struct, Name: "Node", Complete: true}
	node.Members = []parser.Member{{Name: "next", Type: &parser.Pointer{To: node}}}

	require.NoError(t, col.Require(&parser.Pointer{To: node}, "walk"))

	assert.Equal(t, []*parser.Named{node}, set.Types())
	assert.Equal(t, []string{"walk"}, set.Signatures(node))
}

func TestRequireSelfReferenceThroughPointerTypedef(t *testing.T) {
	col, c, set := newCollector()
	node := &parser.Named{Kind: parser.Struct, Name: "list", Complete: true}
	c.Register("ListPtr", &parser.Pointer{To: node})
	node.Members = []parser.Member{{Name: "next", Type: &parser.Alias{Name: "ListPtr"}}}

	require.NoError(t, col.Require(node, "push"))

	assert.Equal(t, []*parser.Named{node}, set.Types())
}

func TestRequireMutualReferenceThroughPointerTypedef(t *testing.T) {
	col, c, set := newCollector()
	a := &parser.Named{Kind: parser.Struct, Name: "a", Complete: true}
	b := &parser.Named{Kind: parser.Struct, Name: "b", Complete: true}
	c.Register("BPtr", &parser.Pointer{To: b})
	a.Members = []parser.Member{{Name: "b", Type: &parser.Alias{Name: "BPtr"}}}
	b.Members = []parser.Member{{Name: "a", Type: a}}

	require.NoError(t, col.Require(a, "f"))

	assert.Equal(t, []*parser.Named{b, a}, set.Types())
}

func TestRequireByValueCycle(t *testing.T) {
	col, c, _ := newCollector()
	a := &parser.Named{Kind: parser.Struct, Name: "a", Complete: true}
	b := &parser.Named{Kind: parser.Struct, Name: "b", Complete: true}
	c.Register("B", b)
	a.Members = []parser.Member{{Name: "b", Type: &parser.Alias{Name: "B"}}}
	b.Members = []parser.Member{{Name: "a", Type: a}}

	err := col.Require(a, "f")
	var cyclic *CyclicTypeError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"struct a", "struct b", "struct a"}, cyclic.Path)
}

func TestRequireAliasCycle(t *testing.T) {
	col, c, _ := newCollector()
	c.Register("A", &parser.Alias{Name: "B"})
	c.Register("B", &parser.Alias{Name: "A"})

	err := col.Require(&parser.Alias{Name: "A"}, "f")
	var cyclic *CyclicTypeError
	assert.ErrorAs(t, err, &cyclic)
}

func TestRequirePrimitiveIsNoop(t *testing.T) {
	col, _, set := newCollector()

	require.NoError(t, col.Require(parser.Prim("int"), "f"))
	require.NoError(t, col.Require(&parser.Pointer{To: parser.Prim("void")}, "f"))

	assert.Zero(t, set.Len())
}
