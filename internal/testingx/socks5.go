package testingx

//
// Minimal SOCKS5 server (RFC 1928, CONNECT without authentication)
//

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/runtimex"
)

const (
	socks5Version       = byte(5)
	socks5NoAuth        = byte(0)
	socks5NoAcceptable  = byte(255)
	socks5Connect       = byte(1)
	socks5IPv4          = byte(1)
	socks5FQDN          = byte(3)
	socks5IPv6          = byte(4)
	socks5Succeeded     = byte(0)
	socks5HostUnreach   = byte(4)
	socks5CmdNotSupport = byte(7)
)

var (
	errSOCKS5Version  = errors.New("socks5: unsupported version")
	errSOCKS5NoAuth   = errors.New("socks5: no acceptable auth method")
	errSOCKS5AddrType = errors.New("socks5: unrecognized address type")
)

// SOCKS5Server is a SOCKS5 proxy useful for testing. The zero value is
// invalid; use [MustNewSOCKS5Server] to construct.
type SOCKS5Server struct {
	// closeOnce provides "once" semantics when closing.
	closeOnce sync.Once

	// dialer dials the destination.
	dialer model.Dialer

	// listener is the listening socket.
	listener net.Listener

	// mu protects destinations.
	mu sync.Mutex

	// destinations contains the requested destinations.
	destinations []string

	// wg waits for the accept loop to join.
	wg sync.WaitGroup
}

// MustNewSOCKS5Server creates and starts a SOCKS5 server listening on a
// random localhost port and using dialer to reach destinations.
func MustNewSOCKS5Server(dialer model.Dialer) *SOCKS5Server {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	listener := runtimex.Try1((&TCPListenerStdlib{}).ListenTCP("tcp", addr))
	srv := &SOCKS5Server{
		dialer:   dialer,
		listener: listener,
	}
	srv.wg.Add(1)
	go srv.mainloop()
	return srv
}

// Endpoint returns the endpoint where the server is listening.
func (s *SOCKS5Server) Endpoint() string {
	return s.listener.Addr().String()
}

// URL returns the socks5h:// URL of the server.
func (s *SOCKS5Server) URL() *url.URL {
	return &url.URL{Scheme: "socks5h", Host: s.Endpoint()}
}

// Destinations returns the destinations clients asked us to reach.
func (s *SOCKS5Server) Destinations() []string {
	defer s.mu.Unlock()
	s.mu.Lock()
	return append([]string{}, s.destinations...)
}

// Close closes the listener and waits for the accept loop to join.
func (s *SOCKS5Server) Close() (err error) {
	s.closeOnce.Do(func() {
		err = s.listener.Close()
		s.wg.Wait()
	})
	return
}

func (s *SOCKS5Server) mainloop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // the listener has been closed
		}
		go s.serve(conn)
	}
}

func (s *SOCKS5Server) serve(conn net.Conn) error {
	defer conn.Close()
	if err := s.negotiate(conn); err != nil {
		return err
	}
	destination, err := s.readRequest(conn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.destinations = append(s.destinations, destination)
	s.mu.Unlock()
	sconn, err := s.dialer.DialContext(context.Background(), "tcp", destination)
	if err != nil {
		return s.reply(conn, socks5HostUnreach, &net.TCPAddr{})
	}
	defer sconn.Close()
	local, _ := sconn.LocalAddr().(*net.TCPAddr)
	if local == nil {
		local = &net.TCPAddr{}
	}
	if err := s.reply(conn, socks5Succeeded, local); err != nil {
		return err
	}
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(conn, sconn)
		conn.Close()
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(sconn, conn)
		sconn.Close()
	}()
	wg.Wait()
	return nil
}

// negotiate reads the greeting and selects the no-auth method.
func (s *SOCKS5Server) negotiate(conn net.Conn) error {
	header := make([]byte, 2)
	if _, err := io.ReadFull(conn, header); err != nil {
		return err
	}
	if header[0] != socks5Version {
		return errSOCKS5Version
	}
	methods := make([]byte, header[1])
	if _, err := io.ReadFull(conn, methods); err != nil {
		return err
	}
	for _, method := range methods {
		if method == socks5NoAuth {
			_, err := conn.Write([]byte{socks5Version, socks5NoAuth})
			return err
		}
	}
	_, _ = conn.Write([]byte{socks5Version, socks5NoAcceptable})
	return errSOCKS5NoAuth
}

// readRequest reads a CONNECT request and returns the destination.
func (s *SOCKS5Server) readRequest(conn net.Conn) (string, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return "", err
	}
	if header[0] != socks5Version {
		return "", errSOCKS5Version
	}
	var host string
	switch header[3] {
	case socks5IPv4, socks5IPv6:
		size := net.IPv4len
		if header[3] == socks5IPv6 {
			size = net.IPv6len
		}
		addr := make([]byte, size)
		if _, err := io.ReadFull(conn, addr); err != nil {
			return "", err
		}
		host = net.IP(addr).String()
	case socks5FQDN:
		length := []byte{0}
		if _, err := io.ReadFull(conn, length); err != nil {
			return "", err
		}
		fqdn := make([]byte, length[0])
		if _, err := io.ReadFull(conn, fqdn); err != nil {
			return "", err
		}
		host = string(fqdn)
	default:
		return "", errSOCKS5AddrType
	}
	port := make([]byte, 2)
	if _, err := io.ReadFull(conn, port); err != nil {
		return "", err
	}
	if header[1] != socks5Connect {
		_ = s.reply(conn, socks5CmdNotSupport, &net.TCPAddr{})
		return "", fmt.Errorf("socks5: unsupported command %d", header[1])
	}
	portnum := int(port[0])<<8 | int(port[1])
	return net.JoinHostPort(host, strconv.Itoa(portnum)), nil
}

// reply sends a reply with the given code and bound address.
func (s *SOCKS5Server) reply(w io.Writer, code byte, addr *net.TCPAddr) error {
	addrType, body := socks5IPv4, []byte{0, 0, 0, 0}
	switch {
	case addr.IP.To4() != nil:
		body = addr.IP.To4()
	case addr.IP.To16() != nil:
		addrType, body = socks5IPv6, addr.IP.To16()
	}
	msg := []byte{socks5Version, code, 0, addrType}
	msg = append(msg, body...)
	msg = append(msg, byte(addr.Port>>8), byte(addr.Port))
	_, err := w.Write(msg)
	return err
}
