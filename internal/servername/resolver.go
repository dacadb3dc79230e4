package servername

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Resolver derives the TLS server identity from a URL.
type Resolver interface {
	ResolveServerName(u *url.URL) (Name, error)
}

// ErrMissingHost indicates that the URL has no host.
var ErrMissingHost = errors.New("servername: missing host")

// InvalidIdentityError indicates that the URL host is not a valid identity.
type InvalidIdentityError struct {
	// Host is the host after bracket stripping.
	Host string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("servername: invalid identity %q: %s", e.Host, e.Err.Error())
}

// Unwrap returns the underlying cause.
func (e *InvalidIdentityError) Unwrap() error {
	return e.Err
}

// Default is the default [Resolver]. It uses the URL host, strips the
// brackets of an address literal, and parses the result.
type Default struct{}

var _ Resolver = Default{}

// ResolveServerName implements Resolver.
func (Default) ResolveServerName(u *url.URL) (Name, error) {
	host := hostWithoutPort(u.Host)
	if host == "" {
		return Name{}, ErrMissingHost
	}
	if len(host) >= 2 && strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	name, err := Parse(host)
	if err != nil {
		return Name{}, &InvalidIdentityError{Host: host, Err: err}
	}
	return name, nil
}

// hostWithoutPort removes the optional port, keeping the brackets.
func hostWithoutPort(hostport string) string {
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.IndexByte(hostport, ']'); idx >= 0 {
			return hostport[:idx+1]
		}
		return hostport
	}
	if idx := strings.LastIndexByte(hostport, ':'); idx >= 0 {
		return hostport[:idx]
	}
	return hostport
}

// Static is a [Resolver] returning the same name for every URL, which
// is useful for testing and for rewriting the SNI.
type Static struct {
	Name Name
}

var _ Resolver = Static{}

// ResolveServerName implements Resolver.
func (s Static) ResolveServerName(u *url.URL) (Name, error) {
	return s.Name, nil
}

// Func adapts a function to the [Resolver] interface.
type Func func(u *url.URL) (Name, error)

var _ Resolver = Func(nil)

// ResolveServerName implements Resolver.
func (fx Func) ResolveServerName(u *url.URL) (Name, error) {
	return fx(u)
}
