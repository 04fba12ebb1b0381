package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
	"github.com/canonical/lxd/shared/validate"
	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/canonical/sqlbatch/internal/config"
	"github.com/canonical/sqlbatch/internal/endpoints"
	internalREST "github.com/canonical/sqlbatch/internal/rest"
	"github.com/canonical/sqlbatch/internal/rest/resources"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/state"
	"github.com/canonical/sqlbatch/internal/sys"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
)

// Daemon holds information for the sqlbatch daemon.
type Daemon struct {
	address string // TCP listen address, empty for unix socket only.

	os        *sys.OS
	settings  *config.Settings
	batches   *state.Batches
	hooks     *state.Hooks
	endpoints *endpoints.Endpoints
	network   *endpoints.Network
	fsWatcher *sys.Watcher

	extensionServers []rest.Endpoint

	stopOnce sync.Once

	ReadyChan      chan struct{}      // Closed when the daemon is fully ready.
	ShutdownCtx    context.Context    // Cancelled when shutdown starts.
	ShutdownDoneCh chan error         // Receives the result of the d.Stop() function and tells the daemon to end.
	ShutdownCancel context.CancelFunc // Cancels the shutdownCtx to indicate shutdown starting.
}

// NewDaemon initializes the Daemon context and channels.
func NewDaemon() *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		ShutdownCtx:    ctx,
		ShutdownCancel: cancel,
		ShutdownDoneCh: make(chan error, 1),
		ReadyChan:      make(chan struct{}),
	}
}

// Run initializes the Daemon and serves until ctx is cancelled or a shutdown is requested over the API.
func (d *Daemon) Run(ctx context.Context, listenAddress string, stateDir string, socketGroup string, extendedEndpoints []rest.Endpoint, hooks *state.Hooks) error {
	err := resources.ValidateEndpoints(extendedEndpoints)
	if err != nil {
		return fmt.Errorf("Invalid extension endpoints: %w", err)
	}

	d.extensionServers = extendedEndpoints

	err = d.Init(listenAddress, stateDir, socketGroup, hooks)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal, stopping daemon")
			return d.Stop()
		case err := <-d.ShutdownDoneCh:
			return err
		}
	})

	return g.Wait()
}

// Init initializes the Daemon with the given configuration and starts the listeners.
func (d *Daemon) Init(listenAddress string, stateDir string, socketGroup string, hooks *state.Hooks) error {
	if stateDir == "" {
		stateDir = os.Getenv(sys.StateDir)
	}

	err := d.validateConfig(listenAddress, stateDir)
	if err != nil {
		return fmt.Errorf("Invalid daemon configuration: %w", err)
	}

	d.hooks = hooks
	if d.hooks == nil {
		d.hooks = &state.Hooks{}
	}

	d.os, err = sys.DefaultOS(stateDir, socketGroup, true)
	if err != nil {
		return fmt.Errorf("Failed to initialize directory structure: %w", err)
	}

	err = d.init()
	if err != nil {
		return fmt.Errorf("Daemon failed to start: %w", err)
	}

	close(d.ReadyChan)

	if d.hooks.OnStart != nil {
		err := d.hooks.OnStart(d.State())
		if err != nil {
			return fmt.Errorf("Failed to run post-start hook: %w", err)
		}
	}

	return nil
}

func (d *Daemon) init() error {
	err := config.LoadEnv(d.os.EnvPath())
	if err != nil {
		return err
	}

	d.settings = config.NewSettings(d.os.SettingsPath())
	if _, statErr := os.Stat(d.os.SettingsPath()); statErr == nil {
		err = d.settings.Load()
		if err != nil {
			return err
		}
	} else {
		logger.Warn("No settings file, no servers are configured", logger.Ctx{"path": d.os.SettingsPath()})
	}

	d.batches = state.NewBatches()
	d.batches.OnFinish = d.postBatch

	d.fsWatcher, err = sys.NewWatcher(d.ShutdownCtx, d.os.StateDir)
	if err != nil {
		return err
	}

	err = d.fsWatcher.Watch(d.os.SettingsPath(), d.reloadSettings)
	if err != nil {
		return err
	}

	listeners := map[string]endpoints.Endpoint{
		endpoints.EndpointsUnix: endpoints.NewSocket(d.ShutdownCtx, d.initServer(resources.PublicEndpoints, resources.UnixEndpoints, resources.ExtendedEndpoints), d.os.ControlSocket(), d.os.SocketGroup),
	}

	if d.address != "" {
		d.network = endpoints.NewNetwork(d.ShutdownCtx, d.initServer(resources.PublicEndpoints, resources.ExtendedEndpoints), d.address)
		listeners[endpoints.EndpointsNetwork] = d.network
	}

	d.endpoints = endpoints.NewEndpoints(d.ShutdownCtx, listeners)

	return d.endpoints.Up()
}

func (d *Daemon) reloadSettings(path string, event fsnotify.Op) error {
	if event == fsnotify.Remove {
		logger.Warn("Settings file removed, keeping the last known servers", logger.Ctx{"path": path})
		return nil
	}

	err := d.settings.Load()
	if err != nil {
		return err
	}

	logger.Info("Reloaded settings", logger.Ctx{"path": path, "active_server": d.settings.GetActiveServer()})

	if d.hooks.OnSettingsUpdate != nil {
		return d.hooks.OnSettingsUpdate(d.State())
	}

	return nil
}

func (d *Daemon) postBatch(batch types.SQLBatch) {
	if d.hooks.PostBatch == nil {
		return
	}

	err := d.hooks.PostBatch(d.State(), batch)
	if err != nil {
		logger.Error("Failed to run post-batch hook", logger.Ctx{"batch": batch.ID, "error": err})
	}
}

func (d *Daemon) initServer(apiResources ...*resources.Resources) *http.Server {
	/* Setup the web server */
	mux := mux.NewRouter()
	mux.StrictSlash(false)
	mux.SkipClean(true)
	mux.UseEncodedPath()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := response.SyncResponse(true, []string{"/1.0"}).Render(w)
		if err != nil {
			logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
		}
	})

	mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Sending top level 404", logger.Ctx{"url": r.URL})
		w.Header().Set("Content-Type", "application/json")
		err := response.NotFound(nil).Render(w)
		if err != nil {
			logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
		}
	})

	state := d.State()
	for _, endpoints := range apiResources {
		for _, e := range endpoints.Endpoints {
			internalREST.HandleEndpoint(state, mux, string(endpoints.Path), e)

			for _, alias := range e.Aliases {
				ae := e
				ae.Name = alias.Name
				ae.Path = alias.Path

				internalREST.HandleEndpoint(state, mux, string(endpoints.Path), ae)
			}
		}

		// Endpoints added by the embedding application.
		if endpoints == resources.ExtendedEndpoints {
			for _, e := range d.extensionServers {
				internalREST.HandleEndpoint(state, mux, string(endpoints.Path), e)
			}
		}
	}

	return &http.Server{Handler: mux}
}

func (d *Daemon) validateConfig(addr string, stateDir string) error {
	if addr != "" {
		err := validate.IsListenAddress(true, true, false)(addr)
		if err != nil {
			return fmt.Errorf("Invalid listen address %q: %w", addr, err)
		}

		d.address = addr
	}

	if stateDir == "" {
		return fmt.Errorf("State directory must be specified")
	}

	_, err := os.Stat(stateDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// Address returns the bound address of the TCP listener, or nil if there is none.
func (d *Daemon) Address() *api.URL {
	if d.network == nil || d.network.Addr() == nil {
		return nil
	}

	return api.NewURL().Scheme("http").Host(d.network.Addr().String())
}

// State creates a State instance with the daemon's stateful components.
func (d *Daemon) State() *state.State {
	return &state.State{
		Context:  d.ShutdownCtx,
		ReadyCh:  d.ReadyChan,
		OS:       d.os,
		Address:  d.Address,
		Settings: d.settings,
		Batches:  d.batches,
		Hooks:    d.hooks,
		Stop:     d.Stop,
	}
}

// Stop stops the Daemon and its listeners. Running batches are abandoned.
func (d *Daemon) Stop() error {
	var err error
	d.stopOnce.Do(func() {
		d.ShutdownCancel()

		if d.endpoints != nil {
			err = d.endpoints.Down()
		}

		if d.fsWatcher != nil {
			watchErr := d.fsWatcher.Close()
			if err == nil {
				err = watchErr
			}
		}

		d.ShutdownDoneCh <- err
	})

	return err
}
