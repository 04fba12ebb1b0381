package dialect

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/sqlbatch/rest/types"
)

// PostgreSQL implements the Dialect interface for PostgreSQL through pgx.
type PostgreSQL struct{}

// NewPostgreSQL creates a new PostgreSQL dialect.
func NewPostgreSQL() *PostgreSQL {
	return &PostgreSQL{}
}

func (p *PostgreSQL) Name() string {
	return "postgres"
}

func (p *PostgreSQL) DriverName() string {
	return "pgx"
}

func (p *PostgreSQL) DefaultPort() string {
	return "5432"
}

func (p *PostgreSQL) RequiresServer() bool {
	return true
}

func (p *PostgreSQL) DSN(server types.ServerConfig) (string, error) {
	if server.Server == "" {
		return "", fmt.Errorf("Missing server")
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(server.Username, server.Password),
		Host:   hostPort(server, p.DefaultPort()),
		Path:   "/" + server.DBName,
	}

	query := url.Values{}
	query.Set("connect_timeout", strconv.Itoa(int(server.LoginTimeoutDuration().Seconds())))
	query.Set("client_encoding", pgEncoding(server.CharsetOrDefault()))
	if server.AppName != "" {
		query.Set("application_name", server.AppName)
	}

	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (p *PostgreSQL) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	return sqlOpen(p, server)
}

func (p *PostgreSQL) QuoteIdentifier(name string) string {
	return quoteDouble(name)
}

func (p *PostgreSQL) ListTablesQuery() string {
	return "select distinct table_name from information_schema.tables where table_schema not in ('pg_catalog', 'information_schema') order by table_name"
}

func (p *PostgreSQL) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select * from %s limit %d", p.QuoteIdentifier(table), limit)
}

func (p *PostgreSQL) DescribeQuery(table string) string {
	return "select column_name, is_nullable, data_type, character_maximum_length from information_schema.columns where table_name = " + quoteLiteral(table) + " order by column_name"
}

func pgEncoding(charset string) string {
	if strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "UTF8") {
		return "UTF8"
	}

	return charset
}
