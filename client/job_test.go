package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/canonical/sqlbatch/internal/daemon"
	"github.com/canonical/sqlbatch/internal/poll"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/surface"
)

type jobSuite struct {
	suite.Suite

	daemon *daemon.Daemon
	client *Client
}

func TestJobSuite(t *testing.T) {
	suite.Run(t, new(jobSuite))
}

func (s *jobSuite) SetupTest() {
	stateDir := s.T().TempDir()
	settings := "active_server: memory\nservers:\n  memory:\n    db_engine: sqlite\n"
	s.Require().NoError(os.WriteFile(filepath.Join(stateDir, "settings.yaml"), []byte(settings), 0600))

	s.daemon = daemon.NewDaemon()
	s.Require().NoError(s.daemon.Init("", stateDir, "", nil))

	var err error
	s.client, err = New(s.daemon.State().OS.ControlSocket())
	s.Require().NoError(err)
}

func (s *jobSuite) TearDownTest() {
	s.NoError(s.daemon.Stop())
}

func (s *jobSuite) waitDone(job *RemoteJob) {
	deadline := time.Now().Add(10 * time.Second)
	for job.Alive() {
		if time.Now().After(deadline) {
			s.FailNow("Remote batch did not finish")
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func (s *jobSuite) Test_takeOnce() {
	ctx := context.Background()
	job := NewRemoteJob(s.client, types.SQLQuery{Query: "select 1 as n go select bad syntax {{{"})

	_, err := job.Take()
	s.ErrorIs(err, ErrNotFinished)

	s.Require().NoError(job.Start(ctx))
	s.Error(job.Start(ctx))
	s.NotEmpty(job.ID())

	s.waitDone(job)

	batch, err := job.Take()
	s.Require().NoError(err)
	s.Require().Len(batch, 2)
	s.Equal("select 1 as n ", batch[0].Query)
	s.Equal([]string{"n"}, batch[0].Columns)
	s.True(batch[1].HasError())

	_, err = job.Take()
	s.Error(err)

	// The finished batch is forgotten by the daemon once taken.
	_, err = s.client.GetBatch(ctx, job.ID())
	s.Error(err)
}

func (s *jobSuite) Test_outlivesStartContext() {
	ctx, cancel := context.WithCancel(context.Background())

	job := NewRemoteJob(s.client, types.SQLQuery{Query: "select 9007199254740993 as big"})
	s.Require().NoError(job.Start(ctx))
	cancel()

	s.waitDone(job)

	batch, err := job.Take()
	s.Require().NoError(err)
	s.Require().Len(batch, 1)
	s.NoError(batch[0].Err)
	s.Equal([][]any{{int64(9007199254740993)}}, batch[0].Rows)
}

func (s *jobSuite) Test_unknownServer() {
	job := NewRemoteJob(s.client, types.SQLQuery{Query: "select 1", Server: "missing"})
	s.Error(job.Start(context.Background()))
	s.False(job.Alive())
}

func (s *jobSuite) Test_pollController() {
	window := surface.NewWindow()
	controller := poll.New(window, window.ResultView(), poll.WithInterval(10*time.Millisecond))

	job := NewRemoteJob(s.client, types.SQLQuery{Query: "create table t (id int);insert into t values (7);select id from t", Delimiter: ";"})
	s.Require().NoError(controller.Start(context.Background(), job))
	controller.Wait()

	s.NoError(controller.Err())
	s.Equal(poll.Finished, controller.State())
	s.Contains(window.ResultView().Text(), "| 7  |")
	s.Empty(window.Status())
}

func (s *jobSuite) Test_pollNothingVisible() {
	window := surface.NewWindow()
	controller := poll.New(window, window.ResultView(), poll.WithInterval(10*time.Millisecond))

	job := NewRemoteJob(s.client, types.SQLQuery{Query: "create table t (id int)"})
	s.Require().NoError(controller.Start(context.Background(), job))
	controller.Wait()

	s.Equal(poll.SucceededStatus, window.Status())
	s.Zero(window.ResultView().Size())
}
