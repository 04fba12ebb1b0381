package client

import (
	"context"
	"errors"
	"sync"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/rest/types"
)

// ErrNotFinished is returned by Take before the daemon reported the batch as finished.
var ErrNotFinished = errors.New("Remote batch has not finished")

// RemoteJob runs a batch on the daemon. It can be watched by the same poller as a local batch.
type RemoteJob struct {
	client *Client
	query  types.SQLQuery

	mu      sync.Mutex
	id      string
	result  *types.SQLBatch
	err     error
	taken   bool
	cleanup bool
}

// NewRemoteJob returns a job for the query. Nothing is sent until Start is called.
// Once the results have been taken the batch is deleted from the daemon.
func NewRemoteJob(c *Client, query types.SQLQuery) *RemoteJob {
	return &RemoteJob{client: c, query: query, cleanup: true}
}

// Start submits the batch. ctx only bounds the submission, later requests use their own timeout.
func (j *RemoteJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.id != "" {
		return errors.New("Remote batch already started")
	}

	id, err := j.client.SubmitBatch(ctx, j.query)
	if err != nil {
		return err
	}

	j.id = id

	return nil
}

// ID returns the daemon side ID of the batch.
func (j *RemoteJob) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.id
}

// Alive asks the daemon whether the batch is still running. A failed request ends the job, and
// the error is reported by Take.
func (j *RemoteJob) Alive() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.id == "" || j.result != nil || j.err != nil {
		return false
	}

	batch, err := j.client.GetBatch(context.Background(), j.id)
	if err != nil {
		j.err = err
		return false
	}

	if batch.Status != types.BatchFinished {
		return true
	}

	j.result = batch

	return false
}

// Take returns the results of the finished batch exactly once.
func (j *RemoteJob) Take() (executor.Batch, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.err != nil {
		return nil, j.err
	}

	if j.result == nil {
		return nil, ErrNotFinished
	}

	if j.taken {
		return nil, errors.New("Remote batch results already taken")
	}

	j.taken = true

	if j.cleanup {
		err := j.client.DeleteBatch(context.Background(), j.id)
		if err != nil {
			logger.Warn("Failed to delete finished batch", logger.Ctx{"batch": j.id, "error": err})
		}
	}

	return executor.BatchFromAPI(j.result.Results), nil
}
