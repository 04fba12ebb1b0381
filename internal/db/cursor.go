package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/canonical/lxd/shared/logger"
)

// Cursor runs statements on a session and holds the fully materialised output of the last one.
type Cursor struct {
	conn         *sql.Conn
	queryTimeout time.Duration

	columns  []string
	rows     [][]any
	rowCount int64
}

// Execute runs a single statement, replacing any previous output of the cursor.
// Every statement goes through QueryContext and its rows are always drained, so a statement is
// only known to produce a result set once the driver reports columns for it. Result sets are read
// completely before returning, nothing is streamed.
func (c *Cursor) Execute(ctx context.Context, query string) error {
	c.columns = nil
	c.rows = nil
	c.rowCount = 0

	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Failed to execute query: %w", err)
	}

	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("Failed to fetch column names: %w", err)
	}

	for len(columns) == 0 {
		// Some drivers only run the statement while stepping through its rows.
		for rows.Next() {
		}

		err = rows.Err()
		if err != nil {
			return fmt.Errorf("Got a row error: %w", err)
		}

		// A batch may produce its tabular output after statements that have none.
		if !rows.NextResultSet() {
			return rows.Err()
		}

		columns, err = rows.Columns()
		if err != nil {
			return fmt.Errorf("Failed to fetch column names: %w", err)
		}
	}

	result := [][]any{}
	for rows.Next() {
		row := make([]any, len(columns))
		rowPointers := make([]any, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		err := rows.Scan(rowPointers...)
		if err != nil {
			return fmt.Errorf("Failed to scan row: %w", err)
		}

		for i, column := range row {
			// Convert bytes to string. Binary columns are shown as text.
			data, ok := column.([]byte)
			if ok {
				row[i] = string(data)
			}
		}

		result = append(result, row)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("Got a row error: %w", err)
	}

	c.columns = columns
	c.rows = result
	c.rowCount = int64(len(result))

	logger.Debug("Fetched result set", logger.Ctx{"columns": len(columns), "rows": c.rowCount})

	return nil
}

// Columns returns the column names of the last result set, or nil if there was none.
func (c *Cursor) Columns() []string {
	return c.columns
}

// Rows returns the rows of the last result set.
func (c *Cursor) Rows() [][]any {
	return c.rows
}

// RowCount returns the number of rows returned by the last statement.
// It is zero for statements without a result set.
func (c *Cursor) RowCount() int64 {
	return c.rowCount
}

// HasResultSet reports whether the last statement produced tabular output.
func (c *Cursor) HasResultSet() bool {
	return c.columns != nil
}
