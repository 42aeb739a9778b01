package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{ANSI, MySQL, Postgres, SQLite, SQLServer} {
		t.Run(name, func(t *testing.T) {
			d, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, d.Name())
		})
	}
	_, err := ByName("oracle")
	require.Error(t, err)
}

func TestEscape(t *testing.T) {
	tests := []struct {
		dialect Strategy
		ident   string
		want    string
	}{
		{Default(), "owners", `"owners"`},
		{Default(), `we"ird`, `"we""ird"`},
		{NewPostgres(), "order", `"order"`},
		{NewMySQL(), "order", "`order`"},
		{NewMySQL(), "we`ird", "`we``ird`"},
		{NewSQLite(), "vets", `"vets"`},
		{NewSQLServer(), "order", "[order]"},
		{NewSQLServer(), "we]ird", "[we]]ird]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dialect.Escape(tt.ident), "%s escape %q", tt.dialect.Name(), tt.ident)
	}
}

func TestIsKeyword(t *testing.T) {
	d := Default()
	assert.True(t, d.IsKeyword("select"))
	assert.True(t, d.IsKeyword("SELECT"))
	assert.True(t, d.IsKeyword("Order"))
	assert.False(t, d.IsKeyword("owners"))

	// Dialect-specific additions are layered on the shared set.
	assert.True(t, NewSQLServer().IsKeyword("top"))
	assert.False(t, Default().IsKeyword("top"))
	assert.True(t, NewMySQL().IsKeyword("straight_join"))
	assert.True(t, NewPostgres().IsKeyword("ilike"))
	assert.True(t, NewSQLite().IsKeyword("autoincrement"))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", NewMySQL().Placeholder(3))
	assert.Equal(t, "?", NewSQLite().Placeholder(1))
	assert.Equal(t, "$3", NewPostgres().Placeholder(3))
	assert.Equal(t, "@p2", NewSQLServer().Placeholder(2))
}

func TestLimitOffset(t *testing.T) {
	d := Default()
	assert.False(t, d.ApplyLimitAfterSelect())
	assert.Equal(t, "LIMIT 2", d.Limit(2))
	assert.Equal(t, "OFFSET 1", d.Offset(1))
	assert.Equal(t, "LIMIT 2 OFFSET 1", d.LimitOffset(1, 2))

	ms := NewSQLServer()
	assert.True(t, ms.ApplyLimitAfterSelect())
	assert.Equal(t, "TOP 2", ms.Limit(2))
	assert.Equal(t, "OFFSET 1 ROWS", ms.Offset(1))
}

func TestLockHints(t *testing.T) {
	share, ok := NewPostgres().ShareLockHint()
	require.True(t, ok)
	assert.Equal(t, "FOR SHARE", share)
	update, ok := NewPostgres().UpdateLockHint()
	require.True(t, ok)
	assert.Equal(t, "FOR UPDATE", update)
	assert.False(t, NewPostgres().ApplyLockHintAfterFrom())

	hint, ok := NewSQLServer().UpdateLockHint()
	require.True(t, ok)
	assert.Equal(t, "WITH (UPDLOCK)", hint)
	assert.True(t, NewSQLServer().ApplyLockHintAfterFrom())

	_, ok = NewSQLite().ShareLockHint()
	assert.False(t, ok)
	_, ok = NewSQLite().UpdateLockHint()
	assert.False(t, ok)
}

func TestMultiValueIn(t *testing.T) {
	n := 0
	next := func() string {
		n++
		return "?"
	}
	d := Default()
	require.True(t, d.SupportsMultiValueTuples())
	got := d.MultiValueIn([]string{`"vet_id"`, `"specialty_id"`}, 2, next)
	assert.Equal(t, `("vet_id", "specialty_id") IN ((?, ?), (?, ?))`, got)
	assert.Equal(t, 4, n)

	assert.False(t, NewSQLServer().SupportsMultiValueTuples())
	assert.False(t, NewSQLite().SupportsMultiValueTuples())
}

func TestSequences(t *testing.T) {
	expr, ok := NewPostgres().NextSequenceValue("owners_seq")
	require.True(t, ok)
	assert.Equal(t, "nextval('owners_seq')", expr)

	expr, ok = NewSQLServer().NextSequenceValue("owners_seq")
	require.True(t, ok)
	assert.Equal(t, "NEXT VALUE FOR owners_seq", expr)

	_, ok = NewMySQL().NextSequenceValue("owners_seq")
	assert.False(t, ok)
	_, ok = NewSQLite().NextSequenceValue("owners_seq")
	assert.False(t, ok)
}

func TestUpsertClause(t *testing.T) {
	conflict := []string{`"id"`}
	update := []string{`"name"`, `"city"`}

	got, ok := NewPostgres().UpsertClause(conflict, update)
	require.True(t, ok)
	assert.Equal(t, `ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "city" = EXCLUDED."city"`, got)

	got, ok = NewPostgres().UpsertClause(conflict, nil)
	require.True(t, ok)
	assert.Equal(t, `ON CONFLICT ("id") DO NOTHING`, got)

	got, ok = NewSQLite().UpsertClause(conflict, update)
	require.True(t, ok)
	assert.Equal(t, `ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name", "city" = excluded."city"`, got)

	got, ok = NewMySQL().UpsertClause([]string{"`id`"}, []string{"`name`"})
	require.True(t, ok)
	assert.Equal(t, "ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)", got)

	_, ok = Default().UpsertClause(conflict, update)
	assert.False(t, ok)
	_, ok = NewSQLServer().UpsertClause(conflict, update)
	assert.False(t, ok)
}
