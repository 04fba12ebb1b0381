// Package dialect describes how each supported database engine is reached and queried.
package dialect

import (
	"database/sql"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/canonical/sqlbatch/rest/types"
)

// Dialect represents a SQL dialect for a supported db_engine.
type Dialect interface {
	// Name returns the canonical engine name (e.g., "mssql", "postgres").
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// DefaultPort returns the port used when the profile does not set one.
	DefaultPort() string

	// RequiresServer reports whether a profile must name a server to connect.
	RequiresServer() bool

	// DSN converts a server profile to the driver's native connection string.
	DSN(server types.ServerConfig) (string, error)

	// OpenDB returns a handle for the profile. No connection is attempted.
	OpenDB(server types.ServerConfig) (*sql.DB, error)

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// ListTablesQuery returns SQL listing the user tables in a single column.
	ListTablesQuery() string

	// SelectTopQuery returns SQL selecting at most limit rows from table.
	SelectTopQuery(table string, limit int) string

	// DescribeQuery returns SQL listing the columns of table as
	// name, nullable, data type and maximum length, ordered by name.
	DescribeQuery(table string) string
}

// Default is the engine used when a profile leaves db_engine empty.
const Default = "mssql"

var aliases = map[string]string{
	"":           Default,
	"mssql":      "mssql",
	"sqlserver":  "mssql",
	"tsql":       "mssql",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pg":         "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"duckdb":     "duckdb",
	"dqlite":     "dqlite",
}

// Names returns every accepted db_engine value, aliases included.
func Names() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		if name == "" {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// FromName returns the dialect by engine name or alias.
func FromName(name string) (Dialect, error) {
	switch aliases[strings.ToLower(strings.TrimSpace(name))] {
	case "mssql":
		return NewMSSQL(), nil
	case "postgres":
		return NewPostgreSQL(), nil
	case "mysql":
		return NewMySQL(), nil
	case "sqlite":
		return NewSQLite(), nil
	case "duckdb":
		return NewDuckDB(), nil
	case "dqlite":
		return NewDqlite(), nil
	default:
		return nil, fmt.Errorf("Unknown db_engine %q", name)
	}
}

// sqlOpen opens a handle through the registered database/sql driver of the dialect.
func sqlOpen(d Dialect, server types.ServerConfig) (*sql.DB, error) {
	dsn, err := d.DSN(server)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %s handle: %w", d.Name(), err)
	}

	return db, nil
}

// hostPort joins the profile server with its port, falling back to the default port.
// A server that already carries a port is returned unchanged.
func hostPort(server types.ServerConfig, defaultPort string) string {
	_, _, err := net.SplitHostPort(server.Server)
	if err == nil {
		return server.Server
	}

	port := server.Port
	if port == "" {
		port = defaultPort
	}

	return net.JoinHostPort(server.Server, port)
}

// quoteLiteral quotes s as a standard SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteDouble quotes an identifier with ANSI double quotes.
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// informationSchemaDescribe is shared by the engines that expose INFORMATION_SCHEMA.COLUMNS.
func informationSchemaDescribe(table string) string {
	return "select COLUMN_NAME, IS_NULLABLE, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH from INFORMATION_SCHEMA.COLUMNS where TABLE_NAME = " + quoteLiteral(table) + " ORDER BY COLUMN_NAME"
}
