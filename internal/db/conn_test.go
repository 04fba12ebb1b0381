package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/canonical/sqlbatch/rest/types"
)

type connSuite struct {
	suite.Suite

	conn *Conn
}

func TestConnSuite(t *testing.T) {
	suite.Run(t, new(connSuite))
}

func (s *connSuite) SetupTest() {
	s.conn = Open(context.Background(), types.ServerConfig{Engine: "sqlite"})
	s.Require().NoError(s.conn.Err())
}

func (s *connSuite) TearDownTest() {
	s.NoError(s.conn.Close())
}

func (s *connSuite) Test_sessionState() {
	ctx := context.Background()

	cur, err := s.conn.Cursor()
	s.Require().NoError(err)

	s.Require().NoError(cur.Execute(ctx, "create temp table t (id integer, name text)"))
	s.False(cur.HasResultSet())

	s.Require().NoError(cur.Execute(ctx, "insert into t values (1, 'a'), (2, 'b')"))
	s.False(cur.HasResultSet())
	s.Equal(int64(0), cur.RowCount())

	// A second cursor sees the temporary table created on the first.
	cur, err = s.conn.Cursor()
	s.Require().NoError(err)

	s.Require().NoError(cur.Execute(ctx, "select id, name from t order by id"))
	s.True(cur.HasResultSet())
	s.Equal([]string{"id", "name"}, cur.Columns())
	s.Equal([][]any{{int64(1), "a"}, {int64(2), "b"}}, cur.Rows())
	s.Equal(int64(2), cur.RowCount())
}

func (s *connSuite) Test_emptyResultSet() {
	cur, err := s.conn.Cursor()
	s.Require().NoError(err)

	s.Require().NoError(cur.Execute(context.Background(), "select 1 as one where 1 = 0"))
	s.True(cur.HasResultSet())
	s.Equal([]string{"one"}, cur.Columns())
	s.Empty(cur.Rows())
	s.Equal(int64(0), cur.RowCount())
}

func (s *connSuite) Test_statementResultSets() {
	ctx := context.Background()

	cur, err := s.conn.Cursor()
	s.Require().NoError(err)

	s.Require().NoError(cur.Execute(ctx, "create temp table t (id integer)"))

	// Tabular output is decided by the driver, not by the leading keyword.
	s.Require().NoError(cur.Execute(ctx, "insert into t values (5) returning id"))
	s.True(cur.HasResultSet())
	s.Equal([]string{"id"}, cur.Columns())
	s.Equal([][]any{{int64(5)}}, cur.Rows())

	s.Require().NoError(cur.Execute(ctx, "  -- leading comment\n  insert into t values (6)"))
	s.False(cur.HasResultSet())

	s.Require().NoError(cur.Execute(ctx, "pragma user_version = 3"))
	s.False(cur.HasResultSet())

	s.Require().NoError(cur.Execute(ctx, "pragma user_version"))
	s.Equal([][]any{{int64(3)}}, cur.Rows())

	// Statements without a result set still run to completion.
	s.Require().NoError(cur.Execute(ctx, "select count(*) from t"))
	s.Equal([][]any{{int64(2)}}, cur.Rows())

	// Errors raised while stepping are reported.
	s.Require().NoError(cur.Execute(ctx, "create temp table u (id integer primary key)"))
	s.Require().NoError(cur.Execute(ctx, "insert into u values (1)"))
	s.Error(cur.Execute(ctx, "insert into u values (1)"))
}

func (s *connSuite) Test_executeResetsOutput() {
	ctx := context.Background()

	cur, err := s.conn.Cursor()
	s.Require().NoError(err)

	s.Require().NoError(cur.Execute(ctx, "select 1"))
	s.Require().True(cur.HasResultSet())

	s.Error(cur.Execute(ctx, "bad syntax {{{"))
	s.False(cur.HasResultSet())
	s.Nil(cur.Rows())
}

func (s *connSuite) Test_closed() {
	s.NoError(s.conn.Close())
	s.NoError(s.conn.Close())

	_, err := s.conn.Cursor()
	s.ErrorIs(err, ErrConnectionUnavailable)
	s.ErrorIs(s.conn.Commit(), ErrConnectionUnavailable)
}

func TestOpenUnreachable(t *testing.T) {
	start := time.Now()
	conn := Open(context.Background(), types.ServerConfig{Engine: "mssql", Server: "127.0.0.1", Port: "1", LoginTimeout: 2})
	defer conn.Close()

	if time.Since(start) > 10*time.Second {
		t.Fatalf("Open did not honour the login timeout")
	}

	if !errors.Is(conn.Err(), ErrConnectionUnavailable) {
		t.Fatalf("Expected a recorded connect failure, got %v", conn.Err())
	}

	_, err := conn.Cursor()
	if !errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("Expected ErrConnectionUnavailable, got %v", err)
	}
}

func TestOpenUnknownEngine(t *testing.T) {
	conn := Open(context.Background(), types.ServerConfig{Engine: "oracle"})

	_, err := conn.Cursor()
	if !errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("Expected ErrConnectionUnavailable, got %v", err)
	}

	if conn.Dialect() != nil {
		t.Fatalf("Unknown engine should not resolve a dialect")
	}
}
