// Package sqlbatch runs SQL scripts as batches of statements on a single database session, either
// in process or through the sqlbatch daemon.
package sqlbatch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/canonical/sqlbatch/client"
	"github.com/canonical/sqlbatch/config"
	internalConfig "github.com/canonical/sqlbatch/internal/config"
	"github.com/canonical/sqlbatch/internal/daemon"
	"github.com/canonical/sqlbatch/internal/db/dialect"
	"github.com/canonical/sqlbatch/internal/menu"
	"github.com/canonical/sqlbatch/internal/poll"
	internalTypes "github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/runner"
	"github.com/canonical/sqlbatch/internal/split"
	"github.com/canonical/sqlbatch/internal/surface"
	"github.com/canonical/sqlbatch/internal/sys"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/types"
)

// SQLBatch contains the filesystem and connection settings used to run batches and talk to the daemon.
type SQLBatch struct {
	FileSystem *sys.OS

	settings *internalConfig.Settings
	args     Args
}

// Args contains options for configuring sqlbatch.
type Args struct {
	Verbose     bool
	Debug       bool
	StateDir    string
	SocketGroup string

	// ListenAddress enables the daemon's TCP listener.
	ListenAddress string

	// PollInterval overrides how often a running batch is checked.
	PollInterval time.Duration

	Client *client.Client
}

// ExecArgs describes a single execution of a script.
type ExecArgs struct {
	// Query is the script text, split into statements on Delimiter.
	Query     string
	Delimiter string

	// Server names the profile to use instead of the active one.
	Server string

	// Remote runs the batch on the daemon rather than in this process.
	Remote bool

	// MenuMode echoes each query above its results.
	MenuMode bool
}

// App returns an instance of sqlbatch with the settings of the state directory loaded.
// A missing settings file leaves the settings empty.
func App(args Args) (*SQLBatch, error) {
	if args.StateDir == "" {
		args.StateDir = os.Getenv(sys.StateDir)
	}

	if args.StateDir == "" {
		return nil, fmt.Errorf("Missing state directory")
	}

	stateDir, err := filepath.Abs(args.StateDir)
	if err != nil {
		return nil, fmt.Errorf("Missing absolute state directory: %w", err)
	}

	os, err := sys.DefaultOS(stateDir, args.SocketGroup, true)
	if err != nil {
		return nil, err
	}

	err = internalConfig.LoadEnv(os.EnvPath())
	if err != nil {
		return nil, err
	}

	settings := internalConfig.NewSettings(os.SettingsPath())
	if shared.PathExists(settings.Path()) {
		err = settings.Load()
		if err != nil {
			return nil, err
		}
	}

	if args.PollInterval <= 0 {
		args.PollInterval = poll.DefaultInterval
	}

	return &SQLBatch{
		FileSystem: os,
		settings:   settings,
		args:       args,
	}, nil
}

// Start runs the sqlbatch daemon until ctx is cancelled, a termination signal arrives or a shutdown is requested.
// - `extensionsAPI` is a list of endpoints to be served over `/1.0`.
// - `hooks` are a set of functions that trigger at certain points of the daemon and batch lifecycle.
func (m *SQLBatch) Start(ctx context.Context, extensionsAPI []rest.Endpoint, hooks *config.Hooks) error {
	// Initialize the logger.
	err := logger.InitLogger(m.FileSystem.LogFile, "", m.args.Verbose, m.args.Debug, nil)
	if err != nil {
		return err
	}

	defer logger.Info("Daemon stopped")
	d := daemon.NewDaemon()

	chIgnore := make(chan os.Signal, 1)
	signal.Notify(chIgnore, unix.SIGHUP)

	ctx, cancel := signal.NotifyContext(ctx, unix.SIGPWR, unix.SIGTERM, unix.SIGINT, unix.SIGQUIT)
	defer cancel()

	err = d.Run(ctx, m.args.ListenAddress, m.FileSystem.StateDir, m.FileSystem.SocketGroup, extensionsAPI, hooks)
	if err != nil {
		return fmt.Errorf("Daemon stopped with error: %w", err)
	}

	return nil
}

// Status returns basic status information about the daemon.
func (m *SQLBatch) Status(ctx context.Context) (*internalTypes.Server, error) {
	c, err := m.LocalClient()
	if err != nil {
		return nil, err
	}

	server, err := c.GetServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to get daemon status: %w", err)
	}

	return server, nil
}

// Ready waits for the daemon to answer on its control socket.
func (m *SQLBatch) Ready(ctx context.Context) error {
	var errLast error
	for i := 0; ; i++ {
		// Log only every 10th attempt after the first 5 seconds.
		doLog := i > 10 && (i%10) == 0

		c, err := m.LocalClient()
		if err == nil {
			err = c.CheckReady(ctx)
		}

		if err == nil {
			return nil
		}

		errLast = err
		if doLog {
			logger.Debugf("Failed to reach sqlbatch daemon (attempt %d): %v", i, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("sqlbatch daemon still not running after context deadline exceeded: %w", errLast)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// LocalClient returns a client connected to the local control socket.
func (m *SQLBatch) LocalClient() (*client.Client, error) {
	if m.args.Client != nil {
		return m.args.Client, nil
	}

	return client.New(m.FileSystem.ControlSocket())
}

// RemoteClient returns a client for a daemon listening on the given host:port.
func (m *SQLBatch) RemoteClient(address string) (*client.Client, error) {
	if m.args.Client != nil {
		return m.args.Client, nil
	}

	return client.New(*api.NewURL().Scheme("http").Host(address))
}

// Settings returns the connection profiles of the state directory.
func (m *SQLBatch) Settings() *internalConfig.Settings {
	return m.settings
}

// Profile returns the named connection profile, or the active one if name is empty.
func (m *SQLBatch) Profile(name string) (types.ServerConfig, error) {
	if name == "" {
		return m.settings.GetActive()
	}

	return m.settings.GetServer(name)
}

// UseServer makes name the active server and persists the choice.
func (m *SQLBatch) UseServer(name string) error {
	err := m.settings.SetActiveServer(name)
	if err != nil {
		return err
	}

	return m.settings.Write()
}

// Exec splits the script into statements, runs them as one batch and presents the results in the
// window's result view. It blocks until the batch has been presented or ctx is cancelled.
func (m *SQLBatch) Exec(ctx context.Context, window *surface.Window, args ExecArgs) error {
	if args.Remote {
		c, err := m.LocalClient()
		if err != nil {
			return err
		}

		job := client.NewRemoteJob(c, internalTypes.SQLQuery{
			Query:     args.Query,
			Delimiter: args.Delimiter,
			MenuMode:  args.MenuMode,
			Server:    args.Server,
		})

		return m.watch(ctx, window, job)
	}

	profile, err := m.Profile(args.Server)
	if err != nil {
		return err
	}

	statements := split.Split(args.Query, args.Delimiter)

	return m.watch(ctx, window, runner.New(profile, statements, args.MenuMode))
}

// Tables lists the tables and views of the named server, or the active one if server is empty.
func (m *SQLBatch) Tables(ctx context.Context, server string) ([]string, error) {
	profile, err := m.Profile(server)
	if err != nil {
		return nil, err
	}

	return menu.ListTables(ctx, profile)
}

// SelectTop runs the select-top query for table in menu mode and presents its rows.
// The query is executed as is, so table names containing the delimiter are not split.
func (m *SQLBatch) SelectTop(ctx context.Context, window *surface.Window, server string, table string) error {
	profile, err := m.Profile(server)
	if err != nil {
		return err
	}

	d, err := dialect.FromName(profile.Engine)
	if err != nil {
		return err
	}

	return m.watch(ctx, window, runner.New(profile, []string{menu.SelectTop(d, table)}, true))
}

// Describe writes the column description of table to the window's result view.
func (m *SQLBatch) Describe(ctx context.Context, window *surface.Window, server string, table string) error {
	profile, err := m.Profile(server)
	if err != nil {
		return err
	}

	description, err := menu.Describe(ctx, profile, table)
	if err != nil {
		return err
	}

	window.ResultView().Insert(description)

	return nil
}

// Run performs the chosen table menu action.
func (m *SQLBatch) Run(ctx context.Context, window *surface.Window, server string, table string, action menu.Action) error {
	switch action {
	case menu.ActionSelectTop:
		return m.SelectTop(ctx, window, server, table)
	case menu.ActionDescribe:
		return m.Describe(ctx, window, server, table)
	}

	return fmt.Errorf("Unknown table action %d", action)
}

// WatchSettings reloads the settings whenever the settings file changes, until ctx is cancelled.
// onReload, if set, is called after every successful reload.
func (m *SQLBatch) WatchSettings(ctx context.Context, onReload func()) error {
	watcher, err := sys.NewWatcher(ctx, m.FileSystem.StateDir)
	if err != nil {
		return err
	}

	return watcher.Watch(m.settings.Path(), func(path string, event fsnotify.Op) error {
		if event.Has(fsnotify.Remove) {
			return nil
		}

		err := m.settings.Load()
		if err != nil {
			return err
		}

		if onReload != nil {
			onReload()
		}

		return nil
	})
}

func (m *SQLBatch) watch(ctx context.Context, window *surface.Window, job poll.Job) error {
	controller := poll.New(window, window.ResultView(), poll.WithInterval(m.args.PollInterval))

	err := controller.Start(ctx, job)
	if err != nil {
		return err
	}

	controller.Wait()

	err = ctx.Err()
	if err != nil {
		return err
	}

	return controller.Err()
}
