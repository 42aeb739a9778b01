// Package exec is the execution boundary: it runs compiled statements
// against a database/sql handle, retrieves generated keys, detects stale
// optimistic-lock mutations and translates driver-specific constraint
// violations into portable errors.
package exec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
	"github.com/storm-repo/storm-go/query"
)

// ExecQuerier wraps the standard Exec and Query methods shared by
// *sql.DB, *sql.Tx and *sql.Conn.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Driver executes compiled statements on a database handle.
type Driver struct {
	Conn
	db *sql.DB
}

// Open opens a database/sql handle and wraps it with a Driver.
func Open(driverName, source string, d dialect.Strategy) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("exec: open %s: %w", driverName, err)
	}
	return OpenDB(db, d), nil
}

// OpenDB wraps an existing database/sql handle with a Driver.
func OpenDB(db *sql.DB, d dialect.Strategy) *Driver {
	return &Driver{Conn: Conn{eq: db, dialect: d}, db: db}
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect returns the driver's dialect strategy.
func (d *Driver) Dialect() dialect.Strategy { return d.Conn.dialect }

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (*Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("exec: begin: %w", err)
	}
	return &Tx{Conn: Conn{eq: tx, dialect: d.Conn.dialect}, tx: tx}, nil
}

// Tx executes compiled statements inside a database transaction.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback rolls the transaction back.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Result reports the outcome of a mutation.
type Result struct {
	// RowsAffected is the total affected row count across the batch.
	RowsAffected int64
	// Keys holds the generated key values, one row per executed
	// statement, in return-column order.
	Keys [][]any
}

// FirstKey returns the first generated key value, if any.
func (r *Result) FirstKey() (any, bool) {
	if len(r.Keys) == 0 || len(r.Keys[0]) == 0 {
		return nil, false
	}
	return r.Keys[0][0], true
}

// Conn executes compiled statements on an ExecQuerier.
type Conn struct {
	eq      ExecQuerier
	dialect dialect.Strategy
}

// Exec runs a mutation statement. Batched statements execute once per
// value row. Generated keys are collected through the RETURNING clause
// when the statement carries one, and through driver-side key retrieval
// otherwise. A version-aware statement that affects zero rows fails
// with ErrStaleVersion.
func (c Conn) Exec(ctx context.Context, st *query.Statement, vars map[string]any) (*Result, error) {
	batches := st.Batch
	if batches == nil {
		batches = [][]query.Arg{st.Args}
	}
	res := &Result{}
	for _, rowArgs := range batches {
		argv := bindRow(rowArgs, vars)
		if st.HasReturning {
			keys, err := c.execReturning(ctx, st, argv)
			if err != nil {
				return nil, err
			}
			res.RowsAffected++
			res.Keys = append(res.Keys, keys)
			continue
		}
		r, err := c.eq.ExecContext(ctx, st.SQL, argv...)
		if err != nil {
			return nil, translate(c.dialect.Name(), fmt.Errorf("exec: %s %s: %w", st.Operation, st.Entity, err))
		}
		if n, err := r.RowsAffected(); err == nil {
			res.RowsAffected += n
		}
		if len(st.ReturnColumns) == 1 {
			if id, err := r.LastInsertId(); err == nil {
				res.Keys = append(res.Keys, []any{id})
			}
		}
	}
	if st.VersionAware && res.RowsAffected == 0 {
		return nil, fmt.Errorf("exec: %s %s: %w", st.Operation, st.Entity, storm.ErrStaleVersion)
	}
	return res, nil
}

func (c Conn) execReturning(ctx context.Context, st *query.Statement, argv []any) ([]any, error) {
	row := c.eq.QueryRowContext(ctx, st.SQL, argv...)
	keys := make([]any, len(st.ReturnColumns))
	ptrs := make([]any, len(keys))
	for i := range keys {
		ptrs[i] = &keys[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, translate(c.dialect.Name(), fmt.Errorf("exec: %s %s: %w", st.Operation, st.Entity, err))
	}
	return keys, nil
}

// Query runs a select statement and returns the rows.
func (c Conn) Query(ctx context.Context, st *query.Statement, vars map[string]any) (*sql.Rows, error) {
	rows, err := c.eq.QueryContext(ctx, st.SQL, st.BindArgs(vars)...)
	if err != nil {
		return nil, translate(c.dialect.Name(), fmt.Errorf("exec: query %s: %w", st.Entity, err))
	}
	return rows, nil
}

// QueryRow runs a select statement expected to return at most one row.
func (c Conn) QueryRow(ctx context.Context, st *query.Statement, vars map[string]any) *sql.Row {
	return c.eq.QueryRowContext(ctx, st.SQL, st.BindArgs(vars)...)
}

// One runs a select expected to return exactly one row and scans it
// into dest. A missing row surfaces as ErrNotFound.
func (c Conn) One(ctx context.Context, st *query.Statement, vars map[string]any, dest ...any) error {
	err := c.QueryRow(ctx, st, vars).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("exec: %s: %w", st.Entity, storm.ErrNotFound)
	}
	if err != nil {
		return translate(c.dialect.Name(), fmt.Errorf("exec: query %s: %w", st.Entity, err))
	}
	return nil
}

// Count runs a single-value select, typically COUNT(*), and returns the
// scalar result.
func (c Conn) Count(ctx context.Context, st *query.Statement, vars map[string]any) (int64, error) {
	var n int64
	if err := c.QueryRow(ctx, st, vars).Scan(&n); err != nil {
		return 0, translate(c.dialect.Name(), fmt.Errorf("exec: count %s: %w", st.Entity, err))
	}
	return n, nil
}

// Exists reports whether the statement returns at least one row.
func (c Conn) Exists(ctx context.Context, st *query.Statement, vars map[string]any) (bool, error) {
	rows, err := c.Query(ctx, st, vars)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return false, rows.Err()
	}
	return true, nil
}

func bindRow(args []query.Arg, vars map[string]any) []any {
	argv := make([]any, len(args))
	for i, a := range args {
		argv[i] = a.Bind(vars)
	}
	return argv
}
