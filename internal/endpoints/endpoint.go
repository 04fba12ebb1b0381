package endpoints

// Endpoint represents the common methods of an Endpoint.
type Endpoint interface {
	Listen() error
	Serve()
	Close() error
	Type() EndpointType
}

// EndpointType enumerates the supported endpoints.
type EndpointType int

const (
	// EndpointControl represents the control endpoint accessible via unix socket.
	EndpointControl EndpointType = iota

	// EndpointNetwork represents the optional endpoint accessible over TCP.
	EndpointNetwork
)

const (
	// EndpointsUnix represents the name of the unix socket endpoint.
	EndpointsUnix string = "unix"

	// EndpointsNetwork represents the name of the TCP endpoint.
	EndpointsNetwork string = "network"
)

// String labels EndpointTypes for logging purposes.
func (et EndpointType) String() string {
	switch et {
	case EndpointControl:
		return "control socket"
	case EndpointNetwork:
		return "http socket"
	default:
		return ""
	}
}
