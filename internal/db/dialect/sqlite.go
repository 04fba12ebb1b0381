package dialect

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlbatch/rest/types"
)

// SQLite implements the Dialect interface for SQLite database files.
type SQLite struct{}

// NewSQLite creates a new SQLite dialect.
func NewSQLite() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) DriverName() string {
	return "sqlite3"
}

func (s *SQLite) DefaultPort() string {
	return ""
}

func (s *SQLite) RequiresServer() bool {
	return false
}

// DSN returns the database file named by server, or an in-memory database when it is empty.
func (s *SQLite) DSN(server types.ServerConfig) (string, error) {
	if server.Server == "" {
		return ":memory:", nil
	}

	return server.Server, nil
}

func (s *SQLite) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	return sqlOpen(s, server)
}

func (s *SQLite) QuoteIdentifier(name string) string {
	return quoteDouble(name)
}

func (s *SQLite) ListTablesQuery() string {
	return sqliteListTables
}

func (s *SQLite) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select * from %s limit %d", s.QuoteIdentifier(table), limit)
}

func (s *SQLite) DescribeQuery(table string) string {
	return sqliteDescribe(table)
}

const sqliteListTables = "select name from sqlite_master where type in ('table', 'view') and name not like 'sqlite_%' order by name"

func sqliteDescribe(table string) string {
	return "select name, case when \"notnull\" = 0 then 'YES' else 'NO' end, type, null from pragma_table_info(" + quoteLiteral(table) + ") order by name"
}
