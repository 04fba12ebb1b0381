// Package executor runs a single statement on a connection and captures its outcome.
package executor

import (
	"context"

	"github.com/canonical/sqlbatch/internal/db"
)

// Execute runs statement on conn. It never fails: any cursor or driver error is captured on the
// returned Result, which then carries no row data.
func Execute(ctx context.Context, statement string, conn *db.Conn) Result {
	cur, err := conn.Cursor()
	if err == nil {
		err = cur.Execute(ctx, statement)
	}

	if err != nil {
		return Result{Query: statement, Err: &StatementError{Query: statement, Err: err}}
	}

	return Result{
		Query:    statement,
		Columns:  cur.Columns(),
		Rows:     cur.Rows(),
		RowCount: cur.RowCount(),
	}
}
