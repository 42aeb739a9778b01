package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/query"
	"github.com/storm-repo/storm-go/schema"
)

func ownerDef() *schema.Definition {
	return schema.New("Owner",
		schema.Int64("id").PrimaryKey().Identity(),
		schema.String("firstName"),
		schema.String("lastName"),
		schema.String("city"),
	)
}

func docDef() *schema.Definition {
	return schema.New("Doc",
		schema.Int64("id").PrimaryKey(),
		schema.String("title"),
		schema.Int("version").Version(),
	)
}

func mockDriver(t *testing.T, d dialect.Strategy) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(db, d), mock
}

func TestQueryRows(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Select(ownerDef()).Where(query.EQ("city", "Porto")).Build(dialect.Default())
	require.NoError(t, err)

	mock.ExpectQuery(st.SQL).
		WithArgs("Porto").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "city"}).
			AddRow(int64(1), "Ana", "Reis", "Porto"))

	rows, err := drv.Query(context.Background(), st, nil)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var (
		id                int64
		first, last, city string
	)
	require.NoError(t, rows.Scan(&id, &first, &last, &city))
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Ana", first)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaleVersionDetection(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Update(docDef()).
		Set("title", "renamed").
		WhereKey(int64(5)).
		CheckVersion(int64(3)).
		Build(dialect.Default())
	require.NoError(t, err)
	require.True(t, st.VersionAware)

	mock.ExpectExec(st.SQL).
		WithArgs("renamed", int64(5), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = drv.Exec(context.Background(), st, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storm.ErrStaleVersion))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDriverSideKey(t *testing.T) {
	drv, mock := mockDriver(t, dialect.NewMySQL())
	st, err := query.InsertInto(ownerDef()).
		Set("firstName", "Ana").
		Set("lastName", "Reis").
		Set("city", "Porto").
		Build(dialect.NewMySQL())
	require.NoError(t, err)
	require.False(t, st.HasReturning)

	mock.ExpectExec(st.SQL).
		WithArgs("Ana", "Reis", "Porto").
		WillReturnResult(sqlmock.NewResult(42, 1))

	res, err := drv.Exec(context.Background(), st, nil)
	require.NoError(t, err)
	key, ok := res.FirstKey()
	require.True(t, ok)
	assert.Equal(t, int64(42), key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturning(t *testing.T) {
	drv, mock := mockDriver(t, dialect.NewPostgres())
	st, err := query.InsertInto(ownerDef()).
		Set("firstName", "Ana").
		Set("lastName", "Reis").
		Set("city", "Porto").
		Build(dialect.NewPostgres())
	require.NoError(t, err)
	require.True(t, st.HasReturning)

	mock.ExpectQuery(st.SQL).
		WithArgs("Ana", "Reis", "Porto").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	res, err := drv.Exec(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(7)}}, res.Keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchExec(t *testing.T) {
	drv, mock := mockDriver(t, dialect.NewMySQL())
	st, err := query.InsertInto(ownerDef()).
		Values(map[string]any{"firstName": "A", "lastName": "B", "city": "P"}).
		Values(map[string]any{"firstName": "C", "lastName": "D", "city": "L"}).
		Build(dialect.NewMySQL())
	require.NoError(t, err)
	require.Len(t, st.Batch, 2)

	mock.ExpectExec(st.SQL).WithArgs("A", "B", "P").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(st.SQL).WithArgs("C", "D", "L").WillReturnResult(sqlmock.NewResult(2, 1))

	res, err := drv.Exec(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}}, res.Keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBindVariables(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Select(ownerDef()).
		Where(query.EQ("city", query.Param("city"))).
		Build(dialect.Default())
	require.NoError(t, err)

	mock.ExpectQuery(st.SQL).
		WithArgs("Lisbon").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "city"}))

	rows, err := drv.Query(context.Background(), st, map[string]any{"city": "Lisbon"})
	require.NoError(t, err)
	rows.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintTranslation(t *testing.T) {
	drv, mock := mockDriver(t, dialect.NewMySQL())
	st, err := query.InsertInto(ownerDef()).
		Set("firstName", "Ana").
		Set("lastName", "Reis").
		Set("city", "Porto").
		Build(dialect.NewMySQL())
	require.NoError(t, err)

	mock.ExpectExec(st.SQL).
		WithArgs("Ana", "Reis", "Porto").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"})

	_, err = drv.Exec(context.Background(), st, nil)
	require.Error(t, err)
	assert.True(t, storm.IsConstraintError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOneNotFound(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Select(ownerDef()).Fields("firstName").WhereKey(int64(9)).Build(dialect.Default())
	require.NoError(t, err)

	mock.ExpectQuery(st.SQL).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"first_name"}))

	var name string
	err = drv.One(context.Background(), st, nil, &name)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Select(ownerDef()).Count().Build(dialect.Default())
	require.NoError(t, err)

	mock.ExpectQuery(st.SQL).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := drv.Count(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Default())
	st, err := query.Delete(docDef()).WhereKey(int64(1)).Build(dialect.Default())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(st.SQL).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	res, err := tx.Exec(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
