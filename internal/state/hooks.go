package state

import (
	"github.com/canonical/sqlbatch/internal/rest/types"
)

// Hooks holds customizable functions that can be called at varying points by the daemon to
// integrate with other tools.
type Hooks struct {
	// OnStart is run after the daemon is started.
	OnStart func(s *State) error

	// PreBatch is run before a batch submitted over the API is started. An error rejects the batch.
	PreBatch func(s *State, query types.SQLQuery) error

	// PostBatch is run once a batch submitted over the API has finished.
	PostBatch func(s *State, batch types.SQLBatch) error

	// OnSettingsUpdate is run after the settings file changed on disk and was reloaded.
	OnSettingsUpdate func(s *State) error
}
