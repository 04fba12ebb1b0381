// Package state exposes the daemon state to handlers and hooks defined outside of sqlbatch.
package state

import "github.com/canonical/sqlbatch/internal/state"

// State exposes the internal daemon state for use with extended API handlers.
type State = state.State
