package dialect

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/canonical/sqlbatch/rest/types"
)

// DuckDB implements the Dialect interface for DuckDB database files.
type DuckDB struct{}

// NewDuckDB creates a new DuckDB dialect.
func NewDuckDB() *DuckDB {
	return &DuckDB{}
}

func (d *DuckDB) Name() string {
	return "duckdb"
}

func (d *DuckDB) DriverName() string {
	return "duckdb"
}

func (d *DuckDB) DefaultPort() string {
	return ""
}

func (d *DuckDB) RequiresServer() bool {
	return false
}

// DSN returns the database file named by server. An empty DSN opens an in-memory database.
func (d *DuckDB) DSN(server types.ServerConfig) (string, error) {
	return server.Server, nil
}

func (d *DuckDB) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	return sqlOpen(d, server)
}

func (d *DuckDB) QuoteIdentifier(name string) string {
	return quoteDouble(name)
}

func (d *DuckDB) ListTablesQuery() string {
	return "select distinct table_name from information_schema.tables where table_schema not in ('information_schema', 'pg_catalog') order by table_name"
}

func (d *DuckDB) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select * from %s limit %d", d.QuoteIdentifier(table), limit)
}

func (d *DuckDB) DescribeQuery(table string) string {
	return "select column_name, is_nullable, data_type, character_maximum_length from information_schema.columns where table_name = " + quoteLiteral(table) + " order by column_name"
}
