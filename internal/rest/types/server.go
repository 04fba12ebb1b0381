package types

// Server represents server status information.
type Server struct {
	// Version of the daemon API.
	Version string `json:"version" yaml:"version"`

	// Address of the TCP listener, empty when only the unix socket is served.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// ActiveServer is the connection profile used by batches that do not name one.
	ActiveServer string `json:"active_server" yaml:"active_server"`

	// Engines are the accepted db_engine values.
	Engines []string `json:"engines" yaml:"engines"`

	// Batches is the number of batches currently tracked by the daemon.
	Batches int `json:"batches" yaml:"batches"`
}

// ServerEntry is a named connection profile as listed by the API. Passwords are never included.
type ServerEntry struct {
	Name     string `json:"name" yaml:"name"`
	Active   bool   `json:"active" yaml:"active"`
	Engine   string `json:"db_engine" yaml:"db_engine"`
	Server   string `json:"server" yaml:"server"`
	Port     string `json:"port,omitempty" yaml:"port,omitempty"`
	DBName   string `json:"dbname" yaml:"dbname"`
	Username string `json:"username" yaml:"username"`
}
