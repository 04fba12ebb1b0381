package endpoints

import (
	"context"
	"sync"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/logger"
)

// Endpoints represents all listeners serving the daemon REST API.
type Endpoints struct {
	mu          sync.RWMutex
	shutdownCtx context.Context // Parent context for shutting down cleanly.

	listeners map[string]Endpoint
}

// NewEndpoints aggregates the given endpoints so we can manage them from one source.
func NewEndpoints(shutdownCtx context.Context, endpoints map[string]Endpoint) *Endpoints {
	return &Endpoints{listeners: endpoints, shutdownCtx: shutdownCtx}
}

// Up calls Listen and then Serve on each of the configured listeners.
// If any listener fails, all of them are closed again.
func (e *Endpoints) Up() error {
	err := e.up()
	if err != nil {
		_ = e.Down()

		return err
	}

	return nil
}

func (e *Endpoints) up() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, listener := range e.listeners {
		err := listener.Listen()
		if err != nil {
			return err
		}

		select {
		case <-e.shutdownCtx.Done():
			logger.Info("Received shutdown signal - aborting endpoint startup", logger.Ctx{"endpoint": name, "type": listener.Type().String()})
			return e.shutdownCtx.Err()
		default:
			listener.Serve()
		}
	}

	return nil
}

// Down closes all of the configured listeners, or only those of the given types.
func (e *Endpoints) Down(types ...EndpointType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, endpoint := range e.listeners {
		if types != nil && !shared.ValueInSlice(endpoint.Type(), types) {
			continue
		}

		err := endpoint.Close()
		if err != nil {
			return err
		}

		delete(e.listeners, name)
	}

	return nil
}

// List returns the endpoints of the given types.
func (e *Endpoints) List(types ...EndpointType) map[string]Endpoint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	endpoints := make(map[string]Endpoint, len(e.listeners))
	for name, endpoint := range e.listeners {
		if shared.ValueInSlice(endpoint.Type(), types) {
			endpoints[name] = endpoint
		}
	}

	return endpoints
}
