package types

// EndpointPrefix is the path prefix of a set of API endpoints.
type EndpointPrefix string

const (
	// PublicEndpoint is the prefix of every sqlbatch API endpoint.
	PublicEndpoint EndpointPrefix = "1.0"
)
