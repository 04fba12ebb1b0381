package resources

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/internal/state"
	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/response"
)

var batchesCmd = rest.Endpoint{
	Path: "batches",

	Get:  rest.EndpointAction{Handler: batchesGet},
	Post: rest.EndpointAction{Handler: batchesPost},
}

var batchCmd = rest.Endpoint{
	Path: "batches/{id}",

	Get:    rest.EndpointAction{Handler: batchGet},
	Delete: rest.EndpointAction{Handler: batchDelete},
}

// List the IDs of the known batches.
func batchesGet(s *state.State, r *http.Request) response.Response {
	return response.SyncResponse(true, s.Batches.List())
}

// Start a batch. The response only carries the batch ID, results are fetched with batchGet.
func batchesPost(s *state.State, r *http.Request) response.Response {
	req := types.SQLQuery{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return response.BadRequest(err)
	}

	if req.Query == "" {
		return response.BadRequest(fmt.Errorf("No query provided"))
	}

	id, err := s.StartBatch(req)
	if err != nil {
		return response.SmartError(err)
	}

	return response.CreatedResponse(types.SQLBatch{ID: id, Status: types.BatchRunning, Results: []types.SQLResult{}})
}

func batchID(r *http.Request) (string, error) {
	return url.PathUnescape(mux.Vars(r)["id"])
}

func batchGet(s *state.State, r *http.Request) response.Response {
	id, err := batchID(r)
	if err != nil {
		return response.BadRequest(err)
	}

	batch, err := s.Batches.Get(id)
	if err != nil {
		return response.SmartError(err)
	}

	return response.SyncResponse(true, batch)
}

func batchDelete(s *state.State, r *http.Request) response.Response {
	id, err := batchID(r)
	if err != nil {
		return response.BadRequest(err)
	}

	err = s.Batches.Delete(id)
	if err != nil {
		return response.SmartError(err)
	}

	return response.EmptySyncResponse
}
