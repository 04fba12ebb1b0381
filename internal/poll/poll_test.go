package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/runner"
	"github.com/canonical/sqlbatch/internal/split"
	"github.com/canonical/sqlbatch/rest/types"
)

type recorder struct {
	mu       sync.Mutex
	statuses []string
	cleared  int
	batches  []executor.Batch
}

func (r *recorder) SetStatus(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statuses = append(r.statuses, message)
}

func (r *recorder) ClearStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleared++
}

func (r *recorder) Present(batch executor.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, batch)

	return nil
}

func (r *recorder) presented() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.batches)
}

type fakeJob struct {
	alive bool
	batch executor.Batch
	taken bool
}

func (j *fakeJob) Start(ctx context.Context) error {
	return nil
}

func (j *fakeJob) Alive() bool {
	return j.alive
}

func (j *fakeJob) Take() (executor.Batch, error) {
	if j.taken {
		return nil, runner.ErrConsumed
	}

	j.taken = true

	return j.batch, nil
}

// manual returns a controller whose loop never ticks on its own during a test.
func manual(rec *recorder) (*Controller, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	return New(rec, rec, WithInterval(time.Hour)), ctx, cancel
}

func TestGauge(t *testing.T) {
	want := []string{"[=     ]", "[ =    ]", "[  =   ]", "[   =  ]", "[    = ]", "[     =]", "[=     ]"}
	for i, gauge := range want {
		assert.Equal(t, gauge, Gauge(i))
	}
}

func TestPollProgress(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)
	defer cancel()

	job := &fakeJob{alive: true, batch: executor.Batch{{Query: "select 1", Columns: []string{"1"}, Rows: [][]any{{1}}}}}
	require.NoError(t, c.Start(ctx, job))
	assert.Equal(t, Running, c.State())

	assert.Equal(t, Running, c.Poll())
	assert.Equal(t, Running, c.Poll())
	assert.Equal(t, []string{"Executing query [=     ]", "Executing query [ =    ]"}, rec.statuses)

	job.alive = false
	assert.Equal(t, Finished, c.Poll())
	assert.Equal(t, 1, rec.presented())
	assert.Equal(t, 1, rec.cleared)

	for i := 0; i < 5; i++ {
		assert.Equal(t, Finished, c.Poll())
	}

	assert.Equal(t, 1, rec.presented(), "A batch is presented at most once")
	assert.NoError(t, c.Err())
}

func TestPollNothingVisible(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)
	defer cancel()

	job := &fakeJob{batch: executor.Batch{{Query: "create table t (id int)"}, {Query: "insert into t values (1)", RowCount: 1}}}
	require.NoError(t, c.Start(ctx, job))

	assert.Equal(t, Finished, c.Poll())
	assert.Equal(t, []string{SucceededStatus}, rec.statuses)
	assert.Equal(t, 0, rec.presented())
}

func TestStartBusy(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)
	defer cancel()

	job := &fakeJob{alive: true}
	require.NoError(t, c.Start(ctx, job))
	assert.ErrorIs(t, c.Start(ctx, &fakeJob{}), ErrBusy)

	job.alive = false
	c.Poll()

	assert.NoError(t, c.Start(ctx, &fakeJob{}), "A finished controller accepts a new batch")
}

func TestCancelStopsLoop(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)

	require.NoError(t, c.Start(ctx, &fakeJob{alive: true}))
	cancel()
	c.Wait()

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, rec.presented())
}

func TestTakeFailure(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)
	defer cancel()

	job := &fakeJob{taken: true}
	require.NoError(t, c.Start(ctx, job))

	assert.Equal(t, Finished, c.Poll())
	assert.True(t, errors.Is(c.Err(), runner.ErrConsumed))
	assert.Equal(t, 0, rec.presented())
}

func TestRunnerEndToEnd(t *testing.T) {
	rec := &recorder{}
	c := New(rec, rec, WithInterval(5*time.Millisecond))

	job := runner.New(types.ServerConfig{Engine: "sqlite"}, []string{"select 1", "bad syntax {{{", "select 2"}, false)
	require.NoError(t, c.Start(context.Background(), job))
	c.Wait()

	assert.Equal(t, Finished, c.State())
	require.Equal(t, 1, rec.presented())

	batch := rec.batches[0]
	require.Len(t, batch, 3)
	assert.False(t, batch[0].HasError())
	assert.True(t, batch[1].HasError())
	assert.False(t, batch[2].HasError())
}

func TestCancelKeepsBatchRunning(t *testing.T) {
	rec := &recorder{}
	c, ctx, cancel := manual(rec)

	job := runner.New(types.ServerConfig{Engine: "sqlite"}, []string{"select 1", "select 2", "select 3"}, false)
	require.NoError(t, c.Start(ctx, job))
	cancel()
	c.Wait()

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, rec.presented())

	select {
	case <-job.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("Abandoned batch did not complete")
	}

	batch, err := job.Take()
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i, r := range batch {
		assert.NoError(t, r.Err)
		assert.Equal(t, [][]any{{int64(i + 1)}}, r.Rows)
	}
}

func TestRunnerEmptyScript(t *testing.T) {
	rec := &recorder{}
	c := New(rec, rec, WithInterval(5*time.Millisecond))

	job := runner.New(types.ServerConfig{Engine: "sqlite"}, split.Split(" \n  ", ""), false)
	require.NoError(t, c.Start(context.Background(), job))
	c.Wait()

	assert.Equal(t, Finished, c.State())
	assert.NoError(t, c.Err())
	assert.Equal(t, 0, rec.presented())
	require.NotEmpty(t, rec.statuses)
	assert.Equal(t, SucceededStatus, rec.statuses[len(rec.statuses)-1])
}
