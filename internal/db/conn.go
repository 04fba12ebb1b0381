package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/internal/db/dialect"
	"github.com/canonical/sqlbatch/rest/types"
)

// ErrConnectionUnavailable is returned by every operation on a Conn whose connect attempt failed,
// or that has been closed.
var ErrConnectionUnavailable = errors.New("Connection unavailable")

// Conn owns a single database session for the lifetime of one batch.
//
// The session is a *sql.Conn pinned out of a handle limited to one connection, so temporary tables
// and session settings left by one statement are visible to the next. Statements run in
// autocommit mode.
type Conn struct {
	server  types.ServerConfig
	dialect dialect.Dialect

	mu     sync.Mutex
	db     *sql.DB
	conn   *sql.Conn
	err    error
	closed bool
}

// Open attempts to connect to the given server exactly once, bounded by its login timeout.
//
// A failed connect is not returned. It is recorded on the Conn and reported, wrapped in
// ErrConnectionUnavailable, by the first call that needs the session.
func Open(ctx context.Context, server types.ServerConfig) *Conn {
	c := &Conn{server: server}

	err := c.connect(ctx)
	if err != nil {
		logger.Warn("Failed to connect to database", logger.Ctx{"engine": server.Engine, "server": server.Server, "dbname": server.DBName, "error": err})
		c.err = fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}

	return c
}

func (c *Conn) connect(ctx context.Context) error {
	var err error
	c.dialect, err = dialect.FromName(c.server.Engine)
	if err != nil {
		return err
	}

	c.db, err = c.dialect.OpenDB(c.server)
	if err != nil {
		return err
	}

	c.db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, c.server.LoginTimeoutDuration())
	defer cancel()

	c.conn, err = c.db.Conn(ctx)
	if err != nil {
		_ = c.db.Close()
		return fmt.Errorf("Failed to open session: %w", err)
	}

	err = c.conn.PingContext(ctx)
	if err != nil {
		_ = c.conn.Close()
		_ = c.db.Close()
		return fmt.Errorf("Failed to reach %s server: %w", c.dialect.Name(), err)
	}

	logger.Debug("Connected to database", logger.Ctx{"engine": c.dialect.Name(), "server": c.server.Server, "dbname": c.server.DBName})

	return nil
}

// Err returns the recorded connect failure, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

// Dialect returns the dialect of the connection, or nil if the engine is unknown.
func (c *Conn) Dialect() dialect.Dialect {
	return c.dialect
}

// Cursor returns a statement handle on the session.
func (c *Conn) Cursor() (*Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	if c.closed {
		return nil, fmt.Errorf("%w: connection is closed", ErrConnectionUnavailable)
	}

	return &Cursor{conn: c.conn, queryTimeout: c.server.QueryTimeoutDuration()}, nil
}

// Commit is a no-op since every statement runs in autocommit mode.
func (c *Conn) Commit() error {
	_, err := c.Cursor()

	return err
}

// Close releases the session. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.err != nil {
		c.closed = true
		return nil
	}

	c.closed = true

	err := c.conn.Close()
	dbErr := c.db.Close()
	if err != nil {
		return fmt.Errorf("Failed to close session: %w", err)
	}

	if dbErr != nil {
		return fmt.Errorf("Failed to close database handle: %w", dbErr)
	}

	return nil
}
