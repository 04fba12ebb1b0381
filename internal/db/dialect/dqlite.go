package dialect

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"fmt"
	"strings"

	"github.com/canonical/go-dqlite/client"
	dqliteDriver "github.com/canonical/go-dqlite/driver"

	"github.com/canonical/sqlbatch/rest/types"
)

// Dqlite implements the Dialect interface for a remote dqlite cluster.
// The server field holds a comma separated list of cluster member addresses.
type Dqlite struct{}

// NewDqlite creates a new dqlite dialect.
func NewDqlite() *Dqlite {
	return &Dqlite{}
}

func (d *Dqlite) Name() string {
	return "dqlite"
}

func (d *Dqlite) DriverName() string {
	return "dqlite"
}

func (d *Dqlite) DefaultPort() string {
	return "9001"
}

func (d *Dqlite) RequiresServer() bool {
	return true
}

// DSN returns the database name. The cluster addresses are handed to the driver node store instead.
func (d *Dqlite) DSN(server types.ServerConfig) (string, error) {
	if server.DBName == "" {
		return "", fmt.Errorf("Missing dbname")
	}

	return server.DBName, nil
}

// OpenDB builds a dqlite driver bound to the profile's cluster members.
func (d *Dqlite) OpenDB(server types.ServerConfig) (*sql.DB, error) {
	name, err := d.DSN(server)
	if err != nil {
		return nil, err
	}

	nodes := []client.NodeInfo{}
	for _, addr := range strings.Split(server.Server, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		nodes = append(nodes, client.NodeInfo{Address: hostPort(types.ServerConfig{Server: addr, Port: server.Port}, d.DefaultPort())})
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("Missing server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), server.LoginTimeoutDuration())
	defer cancel()

	store := client.NewInmemNodeStore()
	err = store.Set(ctx, nodes)
	if err != nil {
		return nil, fmt.Errorf("Failed to set dqlite node store: %w", err)
	}

	drv, err := dqliteDriver.New(store)
	if err != nil {
		return nil, fmt.Errorf("Failed to create dqlite driver: %w", err)
	}

	return sql.OpenDB(&connector{driver: drv, name: name}), nil
}

func (d *Dqlite) QuoteIdentifier(name string) string {
	return quoteDouble(name)
}

func (d *Dqlite) ListTablesQuery() string {
	return sqliteListTables
}

func (d *Dqlite) SelectTopQuery(table string, limit int) string {
	return fmt.Sprintf("select * from %s limit %d", d.QuoteIdentifier(table), limit)
}

func (d *Dqlite) DescribeQuery(table string) string {
	return sqliteDescribe(table)
}

// connector binds a driver to a fixed database name so it can be used with sql.OpenDB.
type connector struct {
	driver sqldriver.Driver
	name   string
}

func (c *connector) Connect(_ context.Context) (sqldriver.Conn, error) {
	return c.driver.Open(c.name)
}

func (c *connector) Driver() sqldriver.Driver {
	return c.driver
}
