package dialect

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/canonical/sqlbatch/rest/types"
)

// MSSQL implements the Dialect interface for Microsoft SQL Server.
type MSSQL struct{}

// NewMSSQL creates a new SQL Server dialect.
func NewMSSQL() *MSSQL {
	return &MSSQL{}
}

func (m *MSSQL) Name() string {
	return "mssql"
}

func (m *MSSQL) DriverName() string {
	return "sqlserver"
}

func (m *MSSQL) DefaultPort() string {
	return "1433"
}

func (m *MSSQL) RequiresServer() bool {
	return true
}

// DSN builds a sqlserver:// URL. A server of the form HOST\INSTANCE selects a named instance,
// in which case the port is resolved by the SQL Browser service.
func (m *MSSQL) DSN(server types.ServerConfig) (string, error) {
	if server.Server == "" {
		return "", fmt.Errorf("Missing server")
	}

	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(server.Username, server.Password),
	}

	host, instance, found := strings.Cut(server.Server, `\`)
	if found {
		u.Host = host
		u.Path = instance
	} else {
		u.Host = hostPort(server, m.DefaultPort())
	}

	query := url.Values{}
	if server.DBName != "" {
		query.Set("database", server.DBName)
	}

	if server.AppName != "" {
		query.Set("app name", server.AppName)
	}

	query.Set("dial timeout", strconv.Itoa(int(server.LoginTimeoutDuration().Seconds())))
	query.Set("connection timeout", strconv.Itoa(server.QueryTimeout))
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func (m *MSSQL) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	return sqlOpen(m, server)
}

func (m *MSSQL) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (m *MSSQL) ListTablesQuery() string {
	return "select distinct TABLE_NAME from information_schema.tables order by TABLE_NAME"
}

func (m *MSSQL) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select top %d * from %s", limit, m.QuoteIdentifier(table))
}

func (m *MSSQL) DescribeQuery(table string) string {
	return informationSchemaDescribe(table)
}
