package testingx

import "net"

// TCPListener creates listening TCP sockets.
type TCPListener interface {
	ListenTCP(network string, addr *net.TCPAddr) (net.Listener, error)
}

// TCPListenerStdlib implements [TCPListener] for the stdlib.
type TCPListenerStdlib struct{}

var _ TCPListener = &TCPListenerStdlib{}

// ListenTCP implements TCPListener.
func (*TCPListenerStdlib) ListenTCP(network string, addr *net.TCPAddr) (net.Listener, error) {
	return net.ListenTCP(network, addr)
}

// MustNewClosedTCPEndpoint returns a loopback endpoint on which nobody is
// listening, so that connecting to it fails with connection refused.
func MustNewClosedTCPEndpoint() string {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		panic(err)
	}
	endpoint := listener.Addr().String()
	listener.Close()
	return endpoint
}
