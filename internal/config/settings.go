package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/validate"
	"github.com/google/renameio/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlbatch/internal/db/dialect"
	"github.com/canonical/sqlbatch/internal/sys"
	"github.com/canonical/sqlbatch/rest/types"
)

// ErrNoActiveServer is returned when the settings do not select a known server.
var ErrNoActiveServer = errors.New("No active server configured")

// Settings wraps the connection profiles with get, set and lock capabilities.
type Settings struct {
	// Path of the settings.yaml file.
	path string

	// Lock the settings for read and write operations.
	lock *sync.RWMutex

	// The actual configuration.
	config *types.Settings
}

// NewSettings returns an initialised version of the settings.
// The implementation is thread safe so the same in memory representation can be shared between the
// CLI, the daemon and its API endpoints. Changes are only persisted by an explicit call to Write.
func NewSettings(path string) *Settings {
	return &Settings{
		path: path,
		lock: &sync.RWMutex{},
		config: &types.Settings{
			Servers: make(map[string]types.ServerConfig),
		},
	}
}

// Path returns the path of the settings file.
func (s *Settings) Path() string {
	return s.path
}

// LoadEnv loads variables from the given .env file into the process environment, if the file exists.
// Variables that are already set are left untouched.
func LoadEnv(path string) error {
	if !shared.PathExists(path) {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil {
		return fmt.Errorf("Failed to load environment file %q: %w", path, err)
	}

	return nil
}

// Load loads the settings from its path and validates them.
func (s *Settings) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("Failed to load settings: %w", err)
	}

	config := &types.Settings{}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return fmt.Errorf("Failed to parse settings from yaml: %w", err)
	}

	if config.Servers == nil {
		config.Servers = make(map[string]types.ServerConfig)
	}

	err = Validate(*config)
	if err != nil {
		return fmt.Errorf("Invalid settings in %q: %w", s.path, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.config = config

	return nil
}

// Write atomically writes the settings to its path.
func (s *Settings) Write() error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	bytes, err := yaml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("Failed to parse settings to yaml: %w", err)
	}

	err = renameio.WriteFile(s.path, bytes, 0600)
	if err != nil {
		return fmt.Errorf("Failed to write settings yaml: %w", err)
	}

	return nil
}

// Validate checks the active server selection and every server profile.
func Validate(config types.Settings) error {
	if config.ActiveServer != "" {
		_, ok := config.Servers[config.ActiveServer]
		if !ok {
			return fmt.Errorf("Active server %q is not defined", config.ActiveServer)
		}
	}

	for name, server := range config.Servers {
		err := ValidateServer(server)
		if err != nil {
			return fmt.Errorf("Invalid server %q: %w", name, err)
		}
	}

	return nil
}

// ValidateServer checks a single connection profile.
func ValidateServer(server types.ServerConfig) error {
	isEngine := validate.Optional(validate.IsOneOf(dialect.Names()...))
	err := isEngine(server.Engine)
	if err != nil {
		return fmt.Errorf("Invalid db_engine: %w", err)
	}

	err = validate.Optional(validate.IsNetworkPort)(server.Port)
	if err != nil {
		return fmt.Errorf("Invalid port: %w", err)
	}

	if server.LoginTimeout < 0 || server.QueryTimeout < 0 {
		return fmt.Errorf("Timeouts cannot be negative")
	}

	d, err := dialect.FromName(server.Engine)
	if err != nil {
		return err
	}

	if d.RequiresServer() && server.Server == "" {
		return fmt.Errorf("Engine %q requires a server", d.Name())
	}

	return nil
}

// GetActiveServer returns the name of the active server.
func (s *Settings) GetActiveServer() string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.config.ActiveServer
}

// GetServerNames returns the sorted names of all configured servers.
func (s *Settings) GetServerNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.config.Servers))
	for name := range s.config.Servers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// GetServers returns a copy of all configured servers, without expanding their credentials.
func (s *Settings) GetServers() map[string]types.ServerConfig {
	s.lock.RLock()
	defer s.lock.RUnlock()

	// Create a copy to not return the reference to the original map.
	servers := make(map[string]types.ServerConfig, len(s.config.Servers))
	for k, v := range s.config.Servers {
		servers[k] = v
	}

	return servers
}

// GetServer returns the named server with environment references expanded.
func (s *Settings) GetServer(name string) (types.ServerConfig, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	server, ok := s.config.Servers[name]
	if !ok {
		return types.ServerConfig{}, fmt.Errorf("Server %q is not defined", name)
	}

	return expand(server), nil
}

// GetActive returns the active server with environment references expanded.
// This is the profile used for every new connection. The SQLBATCH_SERVER environment variable
// takes precedence over the active_server setting.
func (s *Settings) GetActive() (types.ServerConfig, error) {
	name := os.Getenv(sys.ActiveServer)
	if name == "" {
		name = s.GetActiveServer()
	}

	if name == "" {
		return types.ServerConfig{}, ErrNoActiveServer
	}

	return s.GetServer(name)
}

// SetActiveServer selects the server used for new connections.
func (s *Settings) SetActiveServer(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.config.Servers[name]
	if !ok {
		return fmt.Errorf("Server %q is not defined", name)
	}

	s.config.ActiveServer = name

	return nil
}

// SetServer adds or replaces a server profile.
func (s *Settings) SetServer(name string, server types.ServerConfig) error {
	err := ValidateServer(server)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.config.Servers[name] = server

	return nil
}

func expand(server types.ServerConfig) types.ServerConfig {
	server.Server = os.ExpandEnv(server.Server)
	server.DBName = os.ExpandEnv(server.DBName)
	server.Username = os.ExpandEnv(server.Username)
	server.Password = os.ExpandEnv(server.Password)

	return server
}
