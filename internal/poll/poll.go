// Package poll watches a running batch from the caller's side without blocking it.
package poll

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/internal/executor"
)

// DefaultInterval is the time between two ticks of the poll loop.
const DefaultInterval = 100 * time.Millisecond

// SucceededStatus is shown when a batch finishes with nothing to present.
const SucceededStatus = "Executed successfully!"

// ErrBusy is returned by Start while a previous batch is still being watched.
var ErrBusy = errors.New("A batch is already running")

// State is the lifecycle of a Controller.
type State int

const (
	// Idle means no batch has been started.
	Idle State = iota

	// Running means a batch is being watched.
	Running

	// Finished means the last batch has been handed to the presenter.
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}

	return "unknown"
}

// StatusSink shows a short progress message to the user.
type StatusSink interface {
	SetStatus(message string)
	ClearStatus()
}

// Presenter shows the results of a completed batch.
type Presenter interface {
	Present(batch executor.Batch) error
}

// Job is a batch running somewhere else.
type Job interface {
	Start(ctx context.Context) error
	Alive() bool
	Take() (executor.Batch, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the tick interval of the poll loop.
func WithInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// Controller starts a Job and ticks until it completes, reporting progress to a StatusSink and
// handing the batch to a Presenter at most once.
type Controller struct {
	status    StatusSink
	presenter Presenter
	interval  time.Duration

	mu       sync.Mutex
	state    State
	job      Job
	cycle    int
	err      error
	loopDone chan struct{}
}

// New returns an idle Controller.
func New(status StatusSink, presenter Presenter, opts ...Option) *Controller {
	c := &Controller{
		status:    status,
		presenter: presenter,
		interval:  DefaultInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Gauge returns the progress bar for the given tick: six cells with a single "=" moving left to right.
func Gauge(cycle int) string {
	const cells = 6

	pos := cycle % cells
	if pos < 0 {
		pos += cells
	}

	return "[" + strings.Repeat(" ", pos) + "=" + strings.Repeat(" ", cells-1-pos) + "]"
}

// Start starts job and the poll loop, then returns. Cancelling ctx stops the loop but not the job,
// which only inherits the values of ctx.
func (c *Controller) Start(ctx context.Context, job Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return ErrBusy
	}

	err := job.Start(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	c.job = job
	c.cycle = 0
	c.err = nil
	c.state = Running
	c.loopDone = make(chan struct{})

	go c.loop(ctx, c.loopDone)

	return nil
}

func (c *Controller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.abandon()
			return
		case <-ticker.C:
			if c.Poll() != Running {
				return
			}
		}
	}
}

// abandon stops watching the current job. The job itself keeps running until it completes.
func (c *Controller) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		return
	}

	logger.Debug("Stopped polling batch before completion")
	c.status.ClearStatus()
	c.job = nil
	c.state = Idle
}

// Poll performs a single tick and returns the resulting state.
// Once the batch has been presented every further call is a no-op.
func (c *Controller) Poll() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		return c.state
	}

	if c.job.Alive() {
		c.status.SetStatus("Executing query " + Gauge(c.cycle))
		c.cycle++

		return c.state
	}

	c.state = Finished

	batch, err := c.job.Take()
	c.job = nil
	if err != nil {
		logger.Error("Failed to fetch batch results", logger.Ctx{"error": err})
		c.err = err
		c.status.SetStatus("Execution failed: " + err.Error())

		return c.state
	}

	if !batch.Visible() {
		c.status.SetStatus(SucceededStatus)
		return c.state
	}

	err = c.presenter.Present(batch)
	if err != nil {
		logger.Error("Failed to present batch results", logger.Ctx{"error": err})
		c.err = err
	}

	c.status.ClearStatus()

	return c.state
}

// Wait blocks until the poll loop of the last Start exits.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.loopDone
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Err returns the error from fetching or presenting the last batch, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}
