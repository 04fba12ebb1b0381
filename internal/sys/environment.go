package sys

const (
	// StateDir is the location of the state directory.
	StateDir = "SQLBATCH_STATE_DIR"

	// ActiveServer overrides the active_server key of the settings file.
	ActiveServer = "SQLBATCH_SERVER"
)
