// Package menu implements the table browser: list the tables of a server, then select from one
// or describe its columns.
package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/sqlbatch/internal/db"
	"github.com/canonical/sqlbatch/internal/db/dialect"
	"github.com/canonical/sqlbatch/internal/render"
	"github.com/canonical/sqlbatch/rest/types"
)

// Action is an entry of the table action menu.
type Action int

const (
	// ActionSelectTop runs a bounded select on the table.
	ActionSelectTop Action = iota

	// ActionDescribe lists the columns of the table.
	ActionDescribe
)

// SelectTopLimit is the number of rows fetched by ActionSelectTop.
const SelectTopLimit = 1000

// Actions are the labels of the table actions, indexed by Action.
var Actions = []string{"Select Top 1000", "Describe columns"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(Actions) {
		return fmt.Sprintf("Action(%d)", int(a))
	}

	return Actions[a]
}

// ParseAction returns the action at the given menu index.
func ParseAction(index int) (Action, error) {
	if index < 0 || index >= len(Actions) {
		return 0, fmt.Errorf("Invalid table action %d", index)
	}

	return Action(index), nil
}

// query runs a catalog query on its own connection and returns the rows.
func query(ctx context.Context, server types.ServerConfig, build func(d dialect.Dialect) string) ([][]any, error) {
	conn := db.Open(ctx, server)
	defer func() { _ = conn.Close() }()

	cur, err := conn.Cursor()
	if err != nil {
		return nil, err
	}

	err = cur.Execute(ctx, build(conn.Dialect()))
	if err != nil {
		return nil, err
	}

	return cur.Rows(), nil
}

// ListTables returns the names of the tables of the server.
func ListTables(ctx context.Context, server types.ServerConfig) ([]string, error) {
	rows, err := query(ctx, server, func(d dialect.Dialect) string { return d.ListTablesQuery() })
	if err != nil {
		return nil, fmt.Errorf("Failed to list tables: %w", err)
	}

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, render.Value(row[0]))
	}

	return tables, nil
}

// SelectTop returns the statement run by ActionSelectTop. It is meant to run in menu mode.
func SelectTop(d dialect.Dialect, table string) string {
	return d.SelectTopQuery(table, SelectTopLimit)
}

// Describe returns the table name followed by one "NAME TYPE(LEN) NULLABLE" line per column.
// The length is left out for types that have none.
func Describe(ctx context.Context, server types.ServerConfig, table string) (string, error) {
	rows, err := query(ctx, server, func(d dialect.Dialect) string { return d.DescribeQuery(table) })
	if err != nil {
		return "", fmt.Errorf("Failed to describe table %q: %w", table, err)
	}

	var out strings.Builder
	out.WriteString(table + "\n")

	for _, row := range rows {
		name, nullable, dataType, length := row[0], row[1], row[2], row[3]

		columnType := render.Value(dataType)
		if length != nil {
			columnType += "(" + render.Value(length) + ")"
		}

		out.WriteString(render.Value(name) + " " + columnType + " " + render.Value(nullable) + "\n")
	}

	return out.String(), nil
}
