package sock

import (
	"strconv"

	"github.com/brickingsoft/sock/pkg/transport"
)

// Endpoint is an immutable host and port.
type Endpoint = transport.Endpoint

func NewEndpoint(host string, port uint16) Endpoint {
	return transport.NewEndpoint(host, port)
}

// ParseEndpoint parses "host:port" with a numeric port.
func ParseEndpoint(address string) (Endpoint, error) {
	endpoint, err := transport.ParseEndpoint(address)
	if err != nil {
		return Endpoint{}, newConfigError(opParse, "invalid address "+strconv.Quote(address))
	}
	return endpoint, nil
}

// Direction selects the half of a stream Shutdown closes.
type Direction = transport.Direction

const (
	ShutdownRead  = transport.Read
	ShutdownWrite = transport.Write
	ShutdownBoth  = transport.Both
)
