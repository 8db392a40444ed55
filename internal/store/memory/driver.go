package memory

import (
	"context"
	"database/sql/driver"
	"errors"
)

// The driver exists only to hand out real *sql.Tx values. Statements are
// never prepared; repositories mutate Go maps and record undo steps on the
// transaction that database/sql commits or rolls back.

type txKey struct{}

type connector struct{}

func (connector) Connect(context.Context) (driver.Conn, error) { return conn{}, nil }
func (connector) Driver() driver.Driver                        { return ledgerDriver{} }

type ledgerDriver struct{}

func (ledgerDriver) Open(string) (driver.Conn, error) { return conn{}, nil }

type conn struct{}

func (conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("memory ledger does not execute SQL")
}
func (conn) Close() error { return nil }
func (conn) Begin() (driver.Tx, error) {
	return nil, errors.New("memory ledger requires BeginTx with a staged transaction")
}

func (conn) BeginTx(ctx context.Context, _ driver.TxOptions) (driver.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	if !ok {
		return nil, errors.New("memory ledger: transaction not staged by Store.BeginTx")
	}
	return tx, nil
}

// memTx holds the undo log of one open transaction.
type memTx struct {
	store *Store
	undo  []func()
}

func (t *memTx) Commit() error {
	t.store.finish(t, false)
	return nil
}

func (t *memTx) Rollback() error {
	t.store.finish(t, true)
	return nil
}
