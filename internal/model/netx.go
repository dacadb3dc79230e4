package model

//
// Network extensions
//

import (
	"context"
	"crypto/tls"
	"net"

	oohttp "github.com/ooni/oohttp"
)

// Dialer establishes network connections.
type Dialer interface {
	// DialContext behaves like net.Dialer.DialContext.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// Resolver performs domain name resolutions.
type Resolver interface {
	// LookupHost behaves like net.Resolver.LookupHost.
	LookupHost(ctx context.Context, hostname string) (addrs []string, err error)

	// Network returns the resolver type (e.g., system, udp).
	Network() string

	// Address returns the resolver address (e.g., 8.8.8.8:53).
	Address() string

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// TLSConn is the type of connection that oohttp expects from
// any library that implements TLS functionality. By using this
// kind of TLSConn we're able to use both the standard library
// and gitlab.com/yawning/utls.git to perform TLS operations. Note
// that the stdlib's tls.Conn implements this interface.
type TLSConn = oohttp.TLSConn

// Ensures that a tls.Conn implements the TLSConn interface.
var _ TLSConn = &tls.Conn{}

// TLSHandshaker is the generic TLS handshaker.
type TLSHandshaker interface {
	// Handshake creates a new TLS connection from the given connection,
	// the given config, and the given server name.
	//
	// The config MUST be treated as read-only: it may be shared by many
	// concurrent handshakes. When an implementation needs to modify it
	// (e.g., to set ServerName), it MUST operate on a clone.
	//
	// The serverName is either a canonical domain name or an IP
	// address without brackets. When it is an IP address, no SNI
	// extension is sent, consistently with RFC 6066 Section 3.
	//
	// This function DOES NOT take ownership of the connection
	// and it's your responsibility to close it on failure.
	Handshake(ctx context.Context, conn net.Conn, config *tls.Config, serverName string) (TLSConn, error)
}

// TaggedConn is a raw connection paired with the list of ALPN
// protocols that the TLS handshake should advertise. It only travels
// between the stage that tags a connection and the stage that
// performs the TLS handshake.
type TaggedConn interface {
	// Untag returns the underlying connection and the protocols. The
	// caller takes ownership of both return values.
	Untag() (conn net.Conn, protocols []string)
}

// LegacyDialer is a dialer without context support, such as the
// dialers returned by golang.org/x/net/proxy.
type LegacyDialer interface {
	// Dial behaves like net.Dial and blocks until done.
	Dial(network, address string) (net.Conn, error)
}
