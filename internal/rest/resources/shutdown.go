package resources

import (
	"fmt"
	"net/http"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/internal/state"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
)

var shutdownCmd = rest.Endpoint{
	Path: "shutdown",

	Post: rest.EndpointAction{Handler: shutdownPost},
}

func shutdownPost(s *state.State, r *http.Request) response.Response {
	if s.Context.Err() != nil {
		return response.BadRequest(fmt.Errorf("Shutdown already in progress"))
	}

	<-s.ReadyCh // Wait for daemon to start.

	// Stop once the response has been sent.
	go func() {
		<-r.Context().Done()

		err := s.Stop()
		if err != nil {
			logger.Error("Failed to stop daemon", logger.Ctx{"error": err})
		}
	}()

	return response.EmptySyncResponse
}
