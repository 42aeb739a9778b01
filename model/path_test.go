package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/schema"
)

func petModel(t *testing.T) *Model {
	t.Helper()
	var reg Registry
	pet := schema.New("Pet",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("name"),
		schema.Ref("owner", ownerDef()),
	)
	m, err := reg.Get(pet)
	require.NoError(t, err)
	return m
}

func TestResolveScalar(t *testing.T) {
	m := petModel(t)
	r := NewResolver(m)
	p, err := r.Resolve("name")
	require.NoError(t, err)
	assert.Equal(t, "name", p.Column.Name)
	assert.Empty(t, p.Qualifier)
	assert.Empty(t, p.Joins)
}

func TestResolveInlinePath(t *testing.T) {
	var reg Registry
	m, err := reg.Get(ownerDef())
	require.NoError(t, err)
	p, err := NewResolver(m).Resolve("address.city")
	require.NoError(t, err)
	assert.Equal(t, "address_city", p.Column.Name)
	assert.Empty(t, p.Joins, "inline paths require no join")
}

func TestResolveReferenceColumnWithoutJoin(t *testing.T) {
	m := petModel(t)
	p, err := NewResolver(m).Resolve("owner.id")
	require.NoError(t, err)
	assert.Equal(t, "owner_id", p.Column.Name)
	assert.Empty(t, p.Joins, "reference-only projection stays in the owning table")
}

func TestResolveAcrossForeignKey(t *testing.T) {
	m := petModel(t)
	var joins []*JoinStep
	r := NewResolver(m).OnJoin(func(s *JoinStep) { joins = append(joins, s) })

	p, err := r.Resolve("owner.firstName")
	require.NoError(t, err)
	assert.Equal(t, "first_name", p.Column.Name)
	assert.Equal(t, "owner", p.Qualifier)
	require.Len(t, p.Joins, 1)
	assert.Equal(t, "owner", p.Joins[0].Alias)
	require.Len(t, joins, 1, "implicit join requirement reported")

	// Two hops: the joined owner's inline component.
	p, err = r.Resolve("owner.address.city")
	require.NoError(t, err)
	assert.Equal(t, "address_city", p.Column.Name)
	assert.Equal(t, "owner", p.Qualifier)
	require.Len(t, p.Joins, 1, "inline paths on the far side add no second join")
}

func TestResolveBareAcrossForeignKey(t *testing.T) {
	m := petModel(t)
	p, err := NewResolver(m).Resolve("firstName")
	require.NoError(t, err)
	assert.Equal(t, "first_name", p.Column.Name)
	assert.Equal(t, "owner", p.Qualifier)
}

func TestResolveNotFound(t *testing.T) {
	m := petModel(t)
	_, err := NewResolver(m).Resolve("nickname")
	require.Error(t, err)
	assert.True(t, storm.IsPathError(err))
	assert.True(t, errors.Is(err, storm.ErrPathNotFound))

	_, err = NewResolver(m).Resolve("owner.nickname")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storm.ErrPathNotFound))
}

func TestResolveAmbiguous(t *testing.T) {
	var reg Registry
	user := schema.New("User",
		schema.Int64("id").PrimaryKey(),
		schema.String("name"),
	)
	link := schema.New("Link",
		schema.Int64("id").PrimaryKey(),
		schema.Ref("child", user),
		schema.Ref("parent", user),
	)
	m, err := reg.Get(link)
	require.NoError(t, err)
	r := NewResolver(m)

	_, err = r.Resolve("name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storm.ErrAmbiguousPath))
	var perr *storm.PathError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"child.name", "parent.name"}, perr.Candidates)

	// Qualifying by the declaring field disambiguates.
	p, err := r.Resolve("child.name")
	require.NoError(t, err)
	assert.Equal(t, "child", p.Qualifier)
	p, err = r.Resolve("parent.name")
	require.NoError(t, err)
	assert.Equal(t, "parent", p.Qualifier)
}

func TestResolveRegisteredAliasFirst(t *testing.T) {
	m := petModel(t)
	var reg Registry
	owner, err := reg.Get(ownerDef())
	require.NoError(t, err)

	r := NewResolver(m)
	r.RegisterAlias("o", owner)
	p, err := r.Resolve("o.firstName")
	require.NoError(t, err)
	assert.Equal(t, "o", p.Qualifier)
	assert.Equal(t, "first_name", p.Column.Name)
	assert.Empty(t, p.Joins, "registered joins add no implicit join")
}

func TestExplicitOnlyMode(t *testing.T) {
	m := petModel(t)
	r := NewResolver(m).ExplicitOnly()
	_, err := r.Resolve("owner.firstName")
	require.Error(t, err)
	assert.True(t, storm.IsPathError(err))

	// Paths inside the root table still resolve.
	_, err = r.Resolve("owner.id")
	require.NoError(t, err)
}
