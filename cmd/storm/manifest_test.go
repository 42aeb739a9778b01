package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storm-repo/storm-go/schema"
)

const sampleManifest = `
package: model
out: ./model
types:
  - name: Address
    kind: record
    fields:
      - name: street
        type: string
      - name: city
        type: string
  - name: Owner
    table: owners
    fields:
      - name: id
        type: int64
        primaryKey: true
        identity: true
      - name: firstName
        type: string
      - name: address
        type: record
        ref: Address
      - name: version
        type: int
        version: true
  - name: Pet
    fields:
      - name: id
        type: int64
        primaryKey: true
        identity: true
      - name: name
        type: string
      - name: owner
        type: record
        ref: Owner
        mode: joined
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "model", m.Package)
	assert.Equal(t, "./model", m.Out)
	require.Len(t, m.Types, 3)
}

func TestManifestDefinitions(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)
	defs, err := m.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 3)

	addr, owner, pet := defs[0], defs[1], defs[2]
	assert.Equal(t, schema.KindRecord, addr.Kind())
	assert.Equal(t, schema.KindEntity, owner.Kind())
	assert.Equal(t, "owners", owner.TableName())

	id := owner.Field("id")
	require.NotNil(t, id)
	assert.True(t, id.IsPrimaryKey())
	assert.True(t, id.IsIdentity())
	assert.True(t, owner.Field("version").IsVersion())
	assert.Same(t, addr, owner.Field("address").RefDefinition())
	assert.Equal(t, schema.RefInline, owner.Field("address").RefKind())

	fk := pet.Field("owner")
	require.NotNil(t, fk)
	assert.Same(t, owner, fk.RefDefinition())
	assert.Equal(t, schema.RefJoin, fk.RefKind())
}

func TestManifestSelfReference(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, `
types:
  - name: Employee
    fields:
      - name: id
        type: int64
        primaryKey: true
        identity: true
      - name: manager
        type: record
        ref: Employee
        mode: joined
`))
	require.NoError(t, err)
	defs, err := m.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Same(t, defs[0], defs[0].Field("manager").RefDefinition())
}

func TestManifestErrors(t *testing.T) {
	_, err := LoadManifest(writeManifest(t, "types: []"))
	assert.ErrorContains(t, err, "declares no types")

	bad := func(content string) error {
		m, err := LoadManifest(writeManifest(t, content))
		require.NoError(t, err)
		_, err = m.Definitions()
		return err
	}

	assert.ErrorContains(t, bad(`
types:
  - name: A
    kind: wierd
`), "unknown kind")

	assert.ErrorContains(t, bad(`
types:
  - name: A
    fields:
      - name: x
        type: decimal
`), "unknown type")

	assert.ErrorContains(t, bad(`
types:
  - name: A
    fields:
      - name: b
        type: record
        ref: Missing
`), "unknown type \"Missing\"")

	assert.ErrorContains(t, bad(`
types:
  - name: A
  - name: A
`), "declared twice")
}

func TestGenerateOnce(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	outDir = filepath.Join(t.TempDir(), "model")
	pkgName = ""
	t.Cleanup(func() { outDir = "" })

	var buf strings.Builder
	require.NoError(t, generateOnce(context.Background(), path, &buf))
	assert.Contains(t, buf.String(), "generated 3 types")

	src, err := os.ReadFile(filepath.Join(outDir, "owner_storm.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package model")
	assert.Contains(t, string(src), "type OwnerMeta struct {")
}
