package resources

import (
	"testing"

	"github.com/canonical/sqlbatch/rest"
)

var validEndpoints = map[string][]rest.Endpoint{
	"none":   {},
	"single": {{Path: "hello"}},
	"aliased": {
		{Path: "hello", Aliases: []rest.EndpointAlias{{Name: "hi", Path: "hi"}}},
		{Path: "reports/{name}"},
	},
	"similarPrefix": {{Path: "batches-archive"}},
}

func TestValidateEndpointsValid(t *testing.T) {
	for name, endpoints := range validEndpoints {
		err := ValidateEndpoints(endpoints)
		if err != nil {
			t.Errorf("Valid endpoints %q failed validation: %s", name, err)
		}
	}
}

var invalidEndpoints = map[string][]rest.Endpoint{
	"emptyPath":      {{Name: "empty"}},
	"duplicate":      {{Path: "dup"}, {Path: "/dup/"}},
	"duplicateAlias": {{Path: "a", Aliases: []rest.EndpointAlias{{Path: "b"}}}, {Path: "b"}},
	"overlapCore":    {{Path: "servers"}},
	"overlapNested":  {{Path: "batches/{id}/rows"}},
	"overlapUnix":    {{Path: "shutdown"}},
	"overlapAlias":   {{Path: "mine", Aliases: []rest.EndpointAlias{{Path: "ready"}}}},
}

func TestValidateEndpointsInvalid(t *testing.T) {
	for name, endpoints := range invalidEndpoints {
		err := ValidateEndpoints(endpoints)
		if err == nil {
			t.Errorf("Invalid endpoints %q passed validation", name)
		}
	}
}
