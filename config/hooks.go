// Package config holds the public configuration types of the sqlbatch daemon.
package config

import (
	"github.com/canonical/sqlbatch/internal/state"
)

// Hooks holds customizable functions that are called by the daemon around startup, every batch
// and every settings reload.
type Hooks = state.Hooks
