// internal/bus/endpoint.go
package bus

import (
	"fmt"
	"strings"
)

// Scheme is the transport family of a line.
type Scheme string

const (
	SchemeTCP Scheme = "tcp"
	SchemeRTU Scheme = "rtu"
)

// ParseEndpoint splits "tcp://host:port" or "rtu:///dev/ttyUSB0" into scheme and address.
func ParseEndpoint(endpoint string) (Scheme, string, error) {
	scheme, addr, ok := strings.Cut(endpoint, "://")
	if !ok {
		return "", "", fmt.Errorf("bus: endpoint %q has no scheme (want tcp:// or rtu://)", endpoint)
	}
	if addr == "" {
		return "", "", fmt.Errorf("bus: endpoint %q has no address", endpoint)
	}

	switch Scheme(strings.ToLower(scheme)) {
	case SchemeTCP:
		if !strings.Contains(addr, ":") {
			addr += ":502"
		}
		return SchemeTCP, addr, nil
	case SchemeRTU:
		return SchemeRTU, addr, nil
	default:
		return "", "", fmt.Errorf("bus: unsupported endpoint scheme %q", scheme)
	}
}
