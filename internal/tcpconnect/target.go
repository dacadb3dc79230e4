// Package tcpconnect contains the pipeline stage that turns a URL into
// an established TCP connection using a pluggable [Connect] substrate.
package tcpconnect

import (
	"errors"
	"net"
	"net/url"
	"strconv"
)

// ErrInvalidTarget indicates that we cannot derive a host and a
// port to connect to from a URL.
var ErrInvalidTarget = errors.New("tcpconnect: invalid target")

// Target is the host and port we connect to.
type Target struct {
	// Host is the domain name or the IP address without brackets.
	Host string

	// Port is the TCP port.
	Port uint16
}

// NewTarget derives the [Target] from the given URL. An explicit port
// wins; otherwise we use 443 for the https scheme and 80 for any other
// scheme, including the empty one.
func NewTarget(u *url.URL) (Target, error) {
	host := u.Hostname()
	if host == "" {
		return Target{}, ErrInvalidTarget
	}
	if port := u.Port(); port != "" {
		value, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return Target{}, ErrInvalidTarget
		}
		return Target{Host: host, Port: uint16(value)}, nil
	}
	if u.Scheme == "https" {
		return Target{Host: host, Port: 443}, nil
	}
	return Target{Host: host, Port: 80}, nil
}

// Address returns the endpoint to dial (e.g., "[::1]:443").
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.Address()
}
