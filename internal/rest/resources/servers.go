package resources

import (
	"net/http"

	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/state"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
)

var serversCmd = rest.Endpoint{
	Path: "servers",

	Get: rest.EndpointAction{Handler: serversGet},
}

// List the connection profiles, without credentials.
func serversGet(s *state.State, r *http.Request) response.Response {
	active := s.Settings.GetActiveServer()
	servers := s.Settings.GetServers()

	entries := make([]types.ServerEntry, 0, len(servers))
	for _, name := range s.Settings.GetServerNames() {
		server := servers[name]
		entries = append(entries, types.ServerEntry{
			Name:     name,
			Active:   name == active,
			Engine:   server.Engine,
			Server:   server.Server,
			Port:     server.Port,
			DBName:   server.DBName,
			Username: server.Username,
		})
	}

	return response.SyncResponse(true, entries)
}
