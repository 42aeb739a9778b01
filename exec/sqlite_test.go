package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/query"
)

// End-to-end round trip against an in-memory SQLite database.
func TestSQLiteRoundTrip(t *testing.T) {
	drv, err := Open("sqlite", ":memory:", dialect.NewSQLite())
	require.NoError(t, err)
	defer drv.Close()
	ctx := context.Background()

	_, err = drv.DB().ExecContext(ctx, `
		CREATE TABLE owners (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			city TEXT NOT NULL,
			UNIQUE (first_name, last_name)
		)`)
	require.NoError(t, err)
	_, err = drv.DB().ExecContext(ctx, `
		CREATE TABLE docs (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			version INTEGER NOT NULL
		)`)
	require.NoError(t, err)

	owner := ownerDef()
	doc := docDef()
	lite := dialect.NewSQLite()

	ins, err := query.InsertInto(owner).
		Set("firstName", "Ana").
		Set("lastName", "Reis").
		Set("city", "Porto").
		Build(lite)
	require.NoError(t, err)
	require.True(t, ins.HasReturning)
	res, err := drv.Exec(ctx, ins, nil)
	require.NoError(t, err)
	key, ok := res.FirstKey()
	require.True(t, ok)
	assert.EqualValues(t, 1, key)

	// Unique constraint surfaces as a portable error.
	dup, err := query.InsertInto(owner).
		Set("firstName", "Ana").
		Set("lastName", "Reis").
		Set("city", "Braga").
		Build(lite)
	require.NoError(t, err)
	_, err = drv.Exec(ctx, dup, nil)
	require.Error(t, err)
	assert.True(t, storm.IsConstraintError(err))

	sel, err := query.Select(owner).Fields("firstName", "city").WhereKey(key).Build(lite)
	require.NoError(t, err)
	var first, city string
	require.NoError(t, drv.One(ctx, sel, nil, &first, &city))
	assert.Equal(t, "Ana", first)
	assert.Equal(t, "Porto", city)

	// Optimistic locking: the first guarded update wins, a retry with
	// the stale version fails.
	insDoc, err := query.InsertInto(doc).
		Set("id", int64(1)).
		Set("title", "draft").
		Build(lite)
	require.NoError(t, err)
	_, err = drv.Exec(ctx, insDoc, nil)
	require.NoError(t, err)

	upd, err := query.Update(doc).
		Set("title", "final").
		WhereKey(int64(1)).
		CheckVersion(int64(1)).
		Build(lite)
	require.NoError(t, err)
	ures, err := drv.Exec(ctx, upd, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ures.RowsAffected)

	stale, err := query.Update(doc).
		Set("title", "too late").
		WhereKey(int64(1)).
		CheckVersion(int64(1)).
		Build(lite)
	require.NoError(t, err)
	_, err = drv.Exec(ctx, stale, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storm.ErrStaleVersion))

	n, err := drv.Count(ctx, mustBuild(t, query.Select(doc).Count(), lite), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	del, err := query.Delete(doc).WhereKey(int64(1)).CheckVersion(int64(2)).Build(lite)
	require.NoError(t, err)
	dres, err := drv.Exec(ctx, del, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dres.RowsAffected)
}

func mustBuild(t *testing.T, s *query.Selector, d dialect.Strategy) *query.Statement {
	t.Helper()
	st, err := s.Build(d)
	require.NoError(t, err)
	return st
}
