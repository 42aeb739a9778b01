package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinatorsDoNotMutateOperands(t *testing.T) {
	p := EQ("a", 1)
	q := p.And(EQ("b", 2))
	r := p.Or(EQ("c", 3))

	cmp, ok := p.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, "a", cmp.Path)
	assert.Equal(t, OpEQ, cmp.Op)

	and, ok := q.(*Composite)
	require.True(t, ok)
	assert.False(t, and.IsOr())
	assert.Len(t, and.Children, 2)

	or, ok := r.(*Composite)
	require.True(t, ok)
	assert.True(t, or.IsOr())
	// The shared leaf is the same node in both trees.
	assert.Same(t, p, and.Children[0])
	assert.Same(t, p, or.Children[0])
}

func TestComposeFlattensSameConnective(t *testing.T) {
	p := And(And(EQ("a", 1), EQ("b", 2)), EQ("c", 3))
	and, ok := p.(*Composite)
	require.True(t, ok)
	assert.Len(t, and.Children, 3)

	// Opposite connectives stay nested.
	q := And(Or(EQ("a", 1), EQ("b", 2)), EQ("c", 3))
	outer, ok := q.(*Composite)
	require.True(t, ok)
	assert.Len(t, outer.Children, 2)
	_, ok = outer.Children[0].(*Composite)
	assert.True(t, ok)
}

func TestComposeSkipsNil(t *testing.T) {
	assert.Nil(t, And())
	assert.Nil(t, And(nil, nil))

	p := EQ("a", 1)
	assert.Same(t, p, And(nil, p))
	assert.Same(t, p, Or(p, nil))
}

func TestArityRecordedOnLeaf(t *testing.T) {
	c, ok := compare("a", OpBetween, 1).(*Comparison)
	require.True(t, ok)
	assert.Error(t, c.err)

	c, ok = compare("a", OpEQ, 1, 2).(*Comparison)
	require.True(t, ok)
	assert.Error(t, c.err)

	c, ok = compare("a", OpIsNull, 1).(*Comparison)
	require.True(t, ok)
	assert.Error(t, c.err)

	c, ok = compare("a", OpIn).(*Comparison)
	require.True(t, ok)
	assert.NoError(t, c.err, "empty IN lists are legal")
}

func TestTypedPaths(t *testing.T) {
	name := StringPath("firstName")
	p, ok := name.Like("Ma%").(*Comparison)
	require.True(t, ok)
	assert.Equal(t, OpLike, p.Op)
	assert.Equal(t, "firstName", p.Path)

	id := NumberPath[int64]("id")
	p, ok = id.Between(1, 9).(*Comparison)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(9)}, p.Values)

	p, ok = id.In(1, 2, 3).(*Comparison)
	require.True(t, ok)
	assert.Len(t, p.Values, 3)

	flag := BoolPath("active")
	p, ok = flag.EQ(true).(*Comparison)
	require.True(t, ok)
	assert.Equal(t, []any{true}, p.Values)

	assert.Equal(t, "id", id.Ref())
}

func TestArgBind(t *testing.T) {
	a := Arg{Value: 7, Convert: func(v any) any { return v.(int) * 2 }}
	assert.Equal(t, 14, a.Bind(nil))

	b := Arg{Value: BindVar{Name: "city"}}
	assert.Equal(t, "Porto", b.Bind(map[string]any{"city": "Porto"}))
}
