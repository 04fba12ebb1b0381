package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlbatch/internal/sys"
	"github.com/canonical/sqlbatch/rest/types"
)

const testSettings = `active_server: dev
servers:
  dev:
    db_engine: mssql
    server: db.local
    dbname: app
    username: sa
    password: ${SQLBATCH_TEST_PW}
  local:
    db_engine: sqlite
    server: /tmp/local.db
`

func writeSettings(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SQLBATCH_TEST_PW", "hunter2")
	t.Setenv(sys.ActiveServer, "")

	s := NewSettings(writeSettings(t, testSettings))
	require.NoError(t, s.Load())

	assert.Equal(t, "dev", s.GetActiveServer())
	assert.Equal(t, []string{"dev", "local"}, s.GetServerNames())

	active, err := s.GetActive()
	require.NoError(t, err)
	assert.Equal(t, "db.local", active.Server)
	assert.Equal(t, "hunter2", active.Password)

	// The stored profile keeps the reference.
	assert.Equal(t, "${SQLBATCH_TEST_PW}", s.GetServers()["dev"].Password)

	_, err = s.GetServer("missing")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"Unknown engine", "servers:\n  a:\n    db_engine: oracle\n    server: x\n"},
		{"Bad port", "servers:\n  a:\n    server: x\n    port: \"99999\"\n"},
		{"Negative timeout", "servers:\n  a:\n    server: x\n    login_timeout: -1\n"},
		{"Missing server", "servers:\n  a:\n    db_engine: mssql\n"},
		{"Undefined active server", "active_server: b\nservers:\n  a:\n    db_engine: sqlite\n"},
		{"Not yaml", "servers: [\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewSettings(writeSettings(t, c.content))
			assert.Error(t, s.Load())
		})
	}
}

func TestLoadKeepsPreviousOnError(t *testing.T) {
	path := writeSettings(t, testSettings)
	s := NewSettings(path)
	require.NoError(t, s.Load())

	require.NoError(t, os.WriteFile(path, []byte("servers:\n  a:\n    db_engine: oracle\n"), 0600))
	assert.Error(t, s.Load())
	assert.Equal(t, []string{"dev", "local"}, s.GetServerNames())
}

func TestLoadEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")

	// A missing file is not an error.
	require.NoError(t, LoadEnv(envPath))

	require.NoError(t, os.WriteFile(envPath, []byte("SQLBATCH_TEST_ENV_PW=from-dotenv\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("SQLBATCH_TEST_ENV_PW") })
	require.NoError(t, LoadEnv(envPath))

	s := NewSettings(writeSettings(t, "servers:\n  dev:\n    server: db.local\n    password: ${SQLBATCH_TEST_ENV_PW}\n"))
	require.NoError(t, s.Load())

	server, err := s.GetServer("dev")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", server.Password)
}

func TestActiveServerOverride(t *testing.T) {
	s := NewSettings(writeSettings(t, testSettings))
	require.NoError(t, s.Load())

	t.Setenv(sys.ActiveServer, "local")
	active, err := s.GetActive()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/local.db", active.Server)

	t.Setenv(sys.ActiveServer, "missing")
	_, err = s.GetActive()
	assert.Error(t, err)
}

func TestNoActiveServer(t *testing.T) {
	t.Setenv(sys.ActiveServer, "")

	s := NewSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	_, err := s.GetActive()
	assert.ErrorIs(t, err, ErrNoActiveServer)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewSettings(path)

	require.NoError(t, s.SetServer("local", types.ServerConfig{Engine: "sqlite", Server: "/tmp/a.db"}))
	assert.Error(t, s.SetServer("bad", types.ServerConfig{Engine: "oracle"}))
	assert.Error(t, s.SetActiveServer("bad"))
	require.NoError(t, s.SetActiveServer("local"))
	require.NoError(t, s.Write())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded := NewSettings(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "local", reloaded.GetActiveServer())
	assert.Equal(t, []string{"local"}, reloaded.GetServerNames())
}
