package resources

import (
	"net/http"

	"github.com/canonical/sqlbatch/internal/db/dialect"
	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/state"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
	publicTypes "github.com/canonical/sqlbatch/rest/types"
)

var api10Cmd = rest.Endpoint{
	AllowedDuringShutdown: true,

	Get: rest.EndpointAction{Handler: api10Get},
}

func api10Get(s *state.State, r *http.Request) response.Response {
	info := types.Server{
		Version:      string(publicTypes.PublicEndpoint),
		ActiveServer: s.Settings.GetActiveServer(),
		Engines:      dialect.Names(),
		Batches:      len(s.Batches.List()),
	}

	if s.Address != nil {
		address := s.Address()
		if address != nil {
			info.Address = address.URL.Host
		}
	}

	return response.SyncResponse(true, info)
}
