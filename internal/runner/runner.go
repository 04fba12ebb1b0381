// Package runner executes a batch of statements on a background goroutine.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/internal/db"
	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/rest/types"
)

var (
	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("Batch already started")

	// ErrRunning is returned by Take while the batch is not yet complete.
	ErrRunning = errors.New("Batch is still running")

	// ErrConsumed is returned by Take once the batch has been handed over.
	ErrConsumed = errors.New("Batch results already taken")
)

// ExecFunc runs one statement on a connection.
type ExecFunc func(ctx context.Context, statement string, conn *db.Conn) executor.Result

// OpenFunc opens the connection used for a whole batch.
type OpenFunc func(ctx context.Context, server types.ServerConfig) *db.Conn

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the statement executor.
func WithExecutor(f ExecFunc) Option {
	return func(r *Runner) {
		r.exec = f
	}
}

// WithOpener replaces the connection opener.
func WithOpener(f OpenFunc) Option {
	return func(r *Runner) {
		r.open = f
	}
}

// WithLogger sets the fields added to every message logged by the runner.
func WithLogger(fields logger.Ctx) Option {
	return func(r *Runner) {
		r.log = logger.AddContext(fields)
	}
}

// Runner executes statements in order over a single connection on its own goroutine.
//
// The batch is published into a one slot channel before done is closed, so a consumer that has
// observed done can read it without further synchronisation.
type Runner struct {
	server     types.ServerConfig
	statements []string
	menuMode   bool

	exec ExecFunc
	open OpenFunc
	log  logger.Logger

	startOnce sync.Once
	started   chan struct{}
	done      chan struct{}
	result    chan executor.Batch
}

// New returns a Runner for the statements. Nothing runs until Start is called.
func New(server types.ServerConfig, statements []string, menuMode bool, opts ...Option) *Runner {
	r := &Runner{
		server:     server,
		statements: statements,
		menuMode:   menuMode,
		exec:       executor.Execute,
		open:       db.Open,
		log:        logger.AddContext(logger.Ctx{"engine": server.Engine, "server": server.Server}),
		started:    make(chan struct{}),
		done:       make(chan struct{}),
		result:     make(chan executor.Batch, 1),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start launches the batch and returns immediately.
func (r *Runner) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	r.startOnce.Do(func() {
		err = nil
		close(r.started)
		go r.run(ctx)
	})

	return err
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	batch := make(executor.Batch, 0, len(r.statements))
	if len(r.statements) == 0 {
		r.result <- batch
		return
	}

	r.log.Debug("Starting batch", logger.Ctx{"statements": len(r.statements)})

	conn := r.open(ctx, r.server)
	for _, statement := range r.statements {
		result := r.exec(ctx, statement, conn)
		result.MenuMode = r.menuMode

		if result.HasError() {
			r.log.Debug("Statement failed", logger.Ctx{"query": statement, "error": result.Err})
		}

		batch = append(batch, result)
	}

	err := conn.Close()
	if err != nil {
		r.log.Warn("Failed to close batch connection", logger.Ctx{"error": err})
	}

	r.log.Debug("Finished batch", logger.Ctx{"statements": len(batch), "errors": batch.Errors()})

	r.result <- batch
}

// Alive reports whether the batch has been started and is still executing.
func (r *Runner) Alive() bool {
	select {
	case <-r.started:
	default:
		return false
	}

	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed once the batch is complete.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Take hands over the completed batch. It succeeds exactly once.
func (r *Runner) Take() (executor.Batch, error) {
	select {
	case <-r.done:
	default:
		return nil, ErrRunning
	}

	select {
	case batch := <-r.result:
		return batch, nil
	default:
		return nil, ErrConsumed
	}
}
