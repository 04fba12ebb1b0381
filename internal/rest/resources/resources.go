package resources

import (
	"fmt"
	"strings"

	"github.com/canonical/sqlbatch/rest"
	"github.com/canonical/sqlbatch/rest/types"
)

// Resources represents all the resources served over the same path.
type Resources struct {
	Path      types.EndpointPrefix
	Endpoints []rest.Endpoint
}

// PublicEndpoints are the /1.0 API endpoints, served over the unix socket and the optional TCP listener.
var PublicEndpoints = &Resources{
	Path: types.PublicEndpoint,
	Endpoints: []rest.Endpoint{
		api10Cmd,
		serversCmd,
		batchesCmd,
		batchCmd,
	},
}

// UnixEndpoints are only served over the unix socket.
var UnixEndpoints = &Resources{
	Path: types.PublicEndpoint,
	Endpoints: []rest.Endpoint{
		readyCmd,
		shutdownCmd,
	},
}

// ExtendedEndpoints holds all the endpoints added by external usage of sqlbatch.
var ExtendedEndpoints = &Resources{
	Path:      types.PublicEndpoint,
	Endpoints: []rest.Endpoint{},
}

// ValidateEndpoints checks that the endpoints added by an embedding application have a path, do not
// repeat each other and do not shadow or nest under a core endpoint.
func ValidateEndpoints(extended []rest.Endpoint) error {
	core := map[string]bool{}
	for _, endpoints := range []*Resources{PublicEndpoints, UnixEndpoints} {
		for _, e := range endpoints.Endpoints {
			for _, path := range endpointPaths(e) {
				core[path] = true
			}
		}
	}

	seen := map[string]bool{}
	for _, e := range extended {
		for _, path := range endpointPaths(e) {
			if path == "" {
				return fmt.Errorf("Endpoint %q has no path", e.Name)
			}

			if seen[path] {
				return fmt.Errorf("Endpoint path %q is defined more than once", path)
			}

			seen[path] = true

			for corePath := range core {
				if path == corePath || strings.HasPrefix(path, corePath+"/") {
					return fmt.Errorf("Endpoint path %q overlaps with core endpoint %q", path, corePath)
				}
			}
		}
	}

	return nil
}

func endpointPaths(e rest.Endpoint) []string {
	paths := []string{strings.Trim(e.Path, "/")}
	for _, alias := range e.Aliases {
		paths = append(paths, strings.Trim(alias.Path, "/"))
	}

	return paths
}
