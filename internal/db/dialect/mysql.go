package dialect

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/canonical/sqlbatch/rest/types"
)

// MySQL implements the Dialect interface for MySQL and MariaDB.
type MySQL struct{}

// NewMySQL creates a new MySQL dialect.
func NewMySQL() *MySQL {
	return &MySQL{}
}

func (m *MySQL) Name() string {
	return "mysql"
}

func (m *MySQL) DriverName() string {
	return "mysql"
}

func (m *MySQL) DefaultPort() string {
	return "3306"
}

func (m *MySQL) RequiresServer() bool {
	return true
}

func (m *MySQL) DSN(server types.ServerConfig) (string, error) {
	if server.Server == "" {
		return "", fmt.Errorf("Missing server")
	}

	cfg := mysql.NewConfig()
	cfg.User = server.Username
	cfg.Passwd = server.Password
	cfg.Net = "tcp"
	cfg.Addr = hostPort(server, m.DefaultPort())
	cfg.DBName = server.DBName
	cfg.Timeout = server.LoginTimeoutDuration()
	cfg.Params = map[string]string{"charset": mysqlCharset(server.CharsetOrDefault())}

	if server.AppName != "" {
		cfg.ConnectionAttributes = "program_name:" + server.AppName
	}

	return cfg.FormatDSN(), nil
}

func (m *MySQL) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	return sqlOpen(m, server)
}

func (m *MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (m *MySQL) ListTablesQuery() string {
	return "select distinct TABLE_NAME from information_schema.tables where TABLE_SCHEMA = database() order by TABLE_NAME"
}

func (m *MySQL) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select * from %s limit %d", m.QuoteIdentifier(table), limit)
}

func (m *MySQL) DescribeQuery(table string) string {
	return "select COLUMN_NAME, IS_NULLABLE, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH from INFORMATION_SCHEMA.COLUMNS where TABLE_SCHEMA = database() and TABLE_NAME = " + quoteLiteral(table) + " ORDER BY COLUMN_NAME"
}

// mysqlCharset maps the generic charset name to the MySQL one.
func mysqlCharset(charset string) string {
	if strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "UTF8") {
		return "utf8mb4"
	}

	return strings.ToLower(charset)
}
