package sqlbatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/canonical/sqlbatch/internal/menu"
	"github.com/canonical/sqlbatch/internal/poll"
	"github.com/canonical/sqlbatch/internal/surface"
)

type appSuite struct {
	suite.Suite

	stateDir string
	app      *SQLBatch
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(appSuite))
}

func (s *appSuite) SetupTest() {
	s.stateDir = s.T().TempDir()
	dbPath := filepath.Join(s.T().TempDir(), "app.db")

	settings := fmt.Sprintf(`active_server: local
servers:
  local:
    db_engine: sqlite
    server: %s
  memory:
    db_engine: sqlite
`, dbPath)

	s.Require().NoError(os.WriteFile(filepath.Join(s.stateDir, "settings.yaml"), []byte(settings), 0600))

	var err error
	s.app, err = App(Args{StateDir: s.stateDir, PollInterval: 10 * time.Millisecond})
	s.Require().NoError(err)

	window := surface.NewWindow()
	s.Require().NoError(s.app.Exec(context.Background(), window, ExecArgs{
		Query: "create table users (id integer, name varchar(20)) go insert into users values (1, 'ada') go insert into users values (2, 'bob')",
	}))
	s.Equal(poll.SucceededStatus, window.Status())
}

func (s *appSuite) Test_missingStateDir() {
	s.T().Setenv("SQLBATCH_STATE_DIR", "")

	_, err := App(Args{})
	s.Error(err)
}

func (s *appSuite) Test_exec() {
	window := surface.NewWindow()
	err := s.app.Exec(context.Background(), window, ExecArgs{Query: "select name from users order by id;select broken from nowhere", Delimiter: ";"})
	s.Require().NoError(err)

	text := window.ResultView().Text()
	s.Contains(text, "| ada  |")
	s.Contains(text, "Error in query:\nselect broken from nowhere")
	s.Empty(window.Status())
}

func (s *appSuite) Test_execOtherServer() {
	window := surface.NewWindow()
	err := s.app.Exec(context.Background(), window, ExecArgs{Query: "select count(*) as n from users", Server: "memory"})
	s.Require().NoError(err)
	s.Contains(window.ResultView().Text(), "no such table: users")

	err = s.app.Exec(context.Background(), window, ExecArgs{Query: "select 1", Server: "missing"})
	s.Error(err)
}

func (s *appSuite) Test_tableMenu() {
	ctx := context.Background()

	tables, err := s.app.Tables(ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{"users"}, tables)

	window := surface.NewWindow()
	s.Require().NoError(s.app.Run(ctx, window, "", "users", menu.ActionSelectTop))

	text := window.ResultView().Text()
	s.Contains(text, `select * from "users" limit 1000`)
	s.Contains(text, "| 2  | bob  |")

	window = surface.NewWindow()
	s.Require().NoError(s.app.Run(ctx, window, "", "users", menu.ActionDescribe))
	s.Equal("users\nid integer yes\nname varchar(20) yes\n", strings.ToLower(window.ResultView().Text()))
}

func (s *appSuite) Test_useServer() {
	s.Require().NoError(s.app.UseServer("memory"))
	s.Error(s.app.UseServer("missing"))

	reloaded, err := App(Args{StateDir: s.stateDir})
	s.Require().NoError(err)
	s.Equal("memory", reloaded.Settings().GetActiveServer())
}

func (s *appSuite) Test_remoteExec() {
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan error, 1)
	go func() {
		stopped <- s.app.Start(ctx, nil, nil)
	}()

	defer func() {
		cancel()
		s.NoError(<-stopped)
	}()

	readyCtx, readyCancel := context.WithTimeout(ctx, 10*time.Second)
	defer readyCancel()
	s.Require().NoError(s.app.Ready(readyCtx))

	status, err := s.app.Status(ctx)
	s.Require().NoError(err)
	s.Equal("local", status.ActiveServer)

	window := surface.NewWindow()
	err = s.app.Exec(ctx, window, ExecArgs{Query: "select id from users where name = 'bob'", Remote: true, MenuMode: true})
	s.Require().NoError(err)

	text := window.ResultView().Text()
	s.Contains(text, "\nselect id from users where name = 'bob'\n")
	s.Contains(text, "| 2  |")
}
