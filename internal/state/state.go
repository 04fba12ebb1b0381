package state

import (
	"context"
	"fmt"
	"net/http"

	"github.com/canonical/lxd/shared/api"

	"github.com/canonical/sqlbatch/internal/config"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/split"
	"github.com/canonical/sqlbatch/internal/sys"
)

// State is a gateway to the stateful components of the sqlbatch daemon.
type State struct {
	// Context is cancelled when the daemon shuts down.
	Context context.Context

	// ReadyCh is closed once the daemon is serving requests.
	ReadyCh chan struct{}

	// File structure.
	OS *sys.OS

	// Listen address of the TCP endpoint, if any.
	Address func() *api.URL

	// Connection profiles.
	Settings *config.Settings

	// Batches started through the API.
	Batches *Batches

	// Hooks run around every batch.
	Hooks *Hooks

	// Stop fully stops the daemon and all listeners.
	Stop func() error
}

// StartBatch splits the query and starts it against the requested or active server.
// The batch runs under the daemon context so it outlives the request that started it.
func (s *State) StartBatch(query types.SQLQuery) (string, error) {
	serverName := query.Server
	if serverName == "" {
		serverName = s.Settings.GetActiveServer()
	}

	server, err := s.Settings.GetServer(serverName)
	if err != nil {
		return "", api.StatusErrorf(http.StatusBadRequest, "%v", err)
	}

	if s.Hooks != nil && s.Hooks.PreBatch != nil {
		err := s.Hooks.PreBatch(s, query)
		if err != nil {
			return "", fmt.Errorf("Failed to run PreBatch hook: %w", err)
		}
	}

	statements := split.Split(query.Query, query.Delimiter)

	return s.Batches.Start(s.Context, serverName, server, statements, query.MenuMode)
}
