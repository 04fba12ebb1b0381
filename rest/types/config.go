package types

// Settings is the in memory version of the local settings.yaml file.
type Settings struct {
	ActiveServer string                  `json:"active_server" yaml:"active_server"`
	Servers      map[string]ServerConfig `json:"servers" yaml:"servers"`
}
