package state

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
	"github.com/google/uuid"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/runner"
	publicTypes "github.com/canonical/sqlbatch/rest/types"
)

// DefaultRetention is how long the results of a finished batch are kept when nobody deletes them.
const DefaultRetention = time.Hour

type batchEntry struct {
	runner  *runner.Runner
	server  string
	created time.Time

	finished   bool
	finishedAt time.Time
	results    executor.Batch
}

// Batches keeps track of the batches started by the daemon until they are deleted.
// Results are taken from the runner as soon as it completes and kept for repeated reads.
type Batches struct {
	mu      sync.Mutex
	entries map[string]*batchEntry

	// OnFinish is called with the results of every batch once it completes.
	OnFinish func(batch types.SQLBatch)

	// Retention is how long a finished batch is kept. Zero keeps finished batches until deleted.
	Retention time.Duration

	opts []runner.Option
}

// NewBatches returns an empty registry. The runner options are applied to every batch.
func NewBatches(opts ...runner.Option) *Batches {
	return &Batches{
		entries:   map[string]*batchEntry{},
		Retention: DefaultRetention,
		opts:      opts,
	}
}

// expire forgets finished batches older than the retention. The lock must be held.
func (b *Batches) expire() {
	if b.Retention <= 0 {
		return
	}

	for id, entry := range b.entries {
		if entry.finished && time.Since(entry.finishedAt) > b.Retention {
			logger.Debug("Expiring finished batch", logger.Ctx{"batch": id})
			delete(b.entries, id)
		}
	}
}

// Start runs the statements against server and returns the ID of the new batch.
func (b *Batches) Start(ctx context.Context, name string, server publicTypes.ServerConfig, statements []string, menuMode bool) (string, error) {
	id := uuid.NewString()

	opts := append([]runner.Option{runner.WithLogger(logger.Ctx{"batch": id, "server": name})}, b.opts...)
	r := runner.New(server, statements, menuMode, opts...)

	b.mu.Lock()
	b.expire()
	b.entries[id] = &batchEntry{runner: r, server: name, created: time.Now()}
	b.mu.Unlock()

	err := r.Start(ctx)
	if err != nil {
		b.mu.Lock()
		delete(b.entries, id)
		b.mu.Unlock()

		return "", err
	}

	go b.collect(id, r)

	return id, nil
}

func (b *Batches) collect(id string, r *runner.Runner) {
	<-r.Done()

	results, err := r.Take()
	if err != nil {
		logger.Error("Failed to collect batch results", logger.Ctx{"batch": id, "error": err})
		return
	}

	b.mu.Lock()
	entry, ok := b.entries[id]
	if ok {
		entry.finished = true
		entry.finishedAt = time.Now()
		entry.results = results
	}

	onFinish := b.OnFinish
	b.mu.Unlock()

	if ok && onFinish != nil {
		onFinish(types.SQLBatch{ID: id, Status: types.BatchFinished, Results: results.ToAPI()})
	}
}

// Get returns the status of the batch and, once it has finished, its results.
func (b *Batches) Get(id string) (types.SQLBatch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expire()

	entry, ok := b.entries[id]
	if !ok {
		return types.SQLBatch{}, api.StatusErrorf(http.StatusNotFound, "Batch %q not found", id)
	}

	if !entry.finished {
		return types.SQLBatch{ID: id, Status: types.BatchRunning, Results: []types.SQLResult{}}, nil
	}

	return types.SQLBatch{ID: id, Status: types.BatchFinished, Results: entry.results.ToAPI()}, nil
}

// Delete forgets the batch. A batch that is still running completes in the background.
func (b *Batches) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[id]
	if !ok {
		return api.StatusErrorf(http.StatusNotFound, "Batch %q not found", id)
	}

	delete(b.entries, id)

	return nil
}

// List returns the IDs of all known batches, oldest first.
func (b *Batches) List() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expire()

	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return b.entries[ids[i]].created.Before(b.entries[ids[j]].created)
	})

	return ids
}
