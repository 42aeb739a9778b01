package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storm-repo/storm-go/schema"
)

func addressDef() *schema.Definition {
	return schema.NewRecord("Address",
		schema.String("street"),
		schema.String("city"),
	)
}

func ownerDef(addr *schema.Definition) *schema.Definition {
	return schema.New("Owner",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("firstName"),
		schema.String("lastName"),
		schema.Record("address", addr),
		schema.Float64("rating").Nullable(),
	)
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New(Config{Package: "model", Dir: t.TempDir()})
	require.NoError(t, err)
	return g
}

func render(t *testing.T, g *Generator, def *schema.Definition) string {
	t.Helper()
	src, err := g.Source(def)
	require.NoError(t, err)
	return string(src)
}

func TestGeneratedStruct(t *testing.T) {
	g := newGenerator(t)
	src := render(t, g, ownerDef(addressDef()))

	assert.Contains(t, src, "package model")
	assert.Contains(t, src, "Code generated by storm. DO NOT EDIT.")
	assert.Contains(t, src, "type Owner struct {")
	assert.Contains(t, src, "ID int64")
	assert.Contains(t, src, "FirstName string")
	assert.Contains(t, src, "Address Address")
	assert.Contains(t, src, "Rating *float64")
}

func TestGeneratedMetamodel(t *testing.T) {
	g := newGenerator(t)
	src := render(t, g, ownerDef(addressDef()))

	assert.Contains(t, src, "type OwnerMeta struct {")
	assert.Contains(t, src, "ID query.NumberPath[int64]")
	assert.Contains(t, src, "FirstName query.StringPath")
	assert.Contains(t, src, "Address OwnerAddressMeta")
	assert.Contains(t, src, "type OwnerAddressMeta struct {")
	assert.Contains(t, src, `ID: "id"`)
	assert.Contains(t, src, `FirstName: "firstName"`)
	assert.Contains(t, src, `Street: "address.street"`)
	assert.Contains(t, src, `City: "address.city"`)
	assert.Contains(t, src, "var OwnerPath = OwnerMeta{")
}

func TestForeignKeyMetamodel(t *testing.T) {
	g := newGenerator(t)
	owner := ownerDef(addressDef())
	pet := schema.New("Pet",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("name"),
		schema.Ref("owner", owner),
	)
	src := render(t, g, pet)

	assert.Contains(t, src, "Owner *Owner")
	assert.Contains(t, src, "type PetOwnerMeta struct {")
	assert.Contains(t, src, `ID: "owner.id"`)
	assert.Contains(t, src, `City: "owner.address.city"`)
}

func TestCyclicReferenceStopsAtKey(t *testing.T) {
	g := newGenerator(t)
	emp := schema.New("Employee",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("name"),
	)
	emp.AddFields(schema.Ref("manager", emp))
	src := render(t, g, emp)

	assert.Contains(t, src, "Manager *Employee")
	assert.Contains(t, src, "type EmployeeManagerRefMeta struct {")
	assert.Contains(t, src, `ID: "manager.id"`)
	assert.NotContains(t, src, "EmployeeManagerManagerMeta")
}

func TestAccessorInterface(t *testing.T) {
	g := newGenerator(t)
	src := render(t, g, ownerDef(addressDef()))

	assert.Contains(t, src, "type OwnerAccessor interface {")
	assert.Contains(t, src, "GetID() int64")
	assert.Contains(t, src, "GetRating() *float64")
	assert.Contains(t, src, "func (a *Owner) GetFirstName() string {")

	// Nested records expose no interface of their own.
	addrSrc := render(t, g, addressDef())
	assert.NotContains(t, addrSrc, "AddressAccessor")
}

func TestGeneratedEquality(t *testing.T) {
	g := newGenerator(t)
	src := render(t, g, ownerDef(addressDef()))

	assert.Contains(t, src, "func (a *Owner) Equal(b *Owner) bool {")
	assert.Contains(t, src, "math.Float64bits")
	assert.Contains(t, src, "a.Address.Equal(&b.Address)")
	assert.Contains(t, src, "func (a *Owner) KeyEqual(b *Owner) bool {")
	assert.Contains(t, src, "a.ID == b.ID")
}

func TestGeneratedValuesSkipsGeneratedColumns(t *testing.T) {
	g := newGenerator(t)
	doc := schema.New("Doc",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("title"),
		schema.Int("version").Version(),
		schema.String("slug").Computed(),
	)
	src := render(t, g, doc)

	assert.Contains(t, src, "func (a *Doc) Values() map[string]any {")
	assert.Contains(t, src, `"title": a.Title`)
	assert.NotContains(t, src, `"id":`)
	assert.NotContains(t, src, `"version":`)
	assert.NotContains(t, src, `"slug":`)
}

func TestGeneratedValuesBindsReferenceKey(t *testing.T) {
	g := newGenerator(t)
	owner := ownerDef(addressDef())
	pet := schema.New("Pet",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("name"),
		schema.Ref("owner", owner),
	)
	src := render(t, g, pet)

	assert.Contains(t, src, "if a.Owner != nil {")
	assert.Contains(t, src, `v["owner.id"] = a.Owner.ID`)
}

func TestGenerateWritesTransitiveFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := New(Config{Package: "model", Dir: dir})
	require.NoError(t, err)

	owner := ownerDef(addressDef())
	pet := schema.New("Pet",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("name"),
		schema.Ref("owner", owner),
	)
	require.NoError(t, g.Generate(context.Background(), pet))

	for _, name := range []string{"pet_storm.go", "owner_storm.go", "address_storm.go"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{Dir: "out"})
	assert.Error(t, err)
	_, err = New(Config{Package: "model"})
	assert.Error(t, err)
}
