package resources

import (
	"fmt"
	"net/http"

	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
	"github.com/canonical/sqlbatch/state"
)

var readyCmd = rest.Endpoint{
	Path: "ready",

	Get: rest.EndpointAction{Handler: getWaitReady},
}

func getWaitReady(s *state.State, r *http.Request) response.Response {
	select {
	case <-s.ReadyCh:
	default:
		return response.Unavailable(fmt.Errorf("Daemon is not ready yet"))
	}

	return response.EmptySyncResponse
}
