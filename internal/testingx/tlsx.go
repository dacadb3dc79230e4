package testingx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"

	"github.com/ooni/connectx/internal/runtimex"
)

// TLSHandler drives the server side of the handshake through
// GetCertificate. Handlers that also implement [TLSConnHandler] get
// the established connection once the handshake succeeds.
type TLSHandler interface {
	GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error)
}

// TLSConn is the server side of an established TLS connection.
type TLSConn interface {
	ConnectionState() tls.ConnectionState
	net.Conn
}

// TLSConnHandler handles an established TLS connection. The server
// closes the connection when HandleTLSConn returns.
type TLSConnHandler interface {
	HandleTLSConn(conn TLSConn)
}

// TLSServerNextProtos contains the ALPN protocols test servers accept.
var TLSServerNextProtos = []string{"h2", "http/1.1"}

// TLSServer is a loopback TLS server for tests.
type TLSServer struct {
	cancel    context.CancelFunc
	closeOnce sync.Once
	handler   TLSHandler
	listener  net.Listener
	wg        sync.WaitGroup
}

// MustNewTLSServer starts a [*TLSServer] listening on a random
// loopback port or panics.
func MustNewTLSServer(handler TLSHandler) *TLSServer {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	listener := runtimex.Try1((&TCPListenerStdlib{}).ListenTCP("tcp", addr))
	ctx, cancel := context.WithCancel(context.Background())
	srv := &TLSServer{
		cancel:   cancel,
		handler:  handler,
		listener: listener,
	}
	srv.wg.Add(1)
	go srv.mainloop(ctx)
	return srv
}

// Endpoint returns the host:port where the server is listening.
func (p *TLSServer) Endpoint() string {
	return p.listener.Addr().String()
}

// Close stops the server and waits for the accept loop to exit.
func (p *TLSServer) Close() (err error) {
	p.closeOnce.Do(func() {
		err = p.listener.Close()
		p.cancel()
		p.wg.Wait()
	})
	return
}

func (p *TLSServer) mainloop(ctx context.Context) {
	defer p.wg.Done()
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		go p.handle(ctx, conn)
	}
}

func (p *TLSServer) handle(ctx context.Context, tcpConn net.Conn) {
	defer tcpConn.Close()
	tlsConn := tls.Server(tcpConn, &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.handler.GetCertificate(ctx, tcpConn, chi)
		},
		NextProtos: TLSServerNextProtos,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return
	}
	defer tlsConn.Close()
	if h, good := p.handler.(TLSConnHandler); good {
		h.HandleTLSConn(tlsConn)
	}
}

// errHandshakeAborted is what handlers return to abort the handshake.
var errHandshakeAborted = errors.New("testingx: handshake aborted")

// TLSHandlerEOF closes the TCP connection as soon as the ClientHello
// arrives, so the client sees EOF during the handshake.
func TLSHandlerEOF() TLSHandler {
	return tlsHandlerEOF{}
}

type tlsHandlerEOF struct{}

func (tlsHandlerEOF) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	tcpConn.Close()
	return nil, errHandshakeAborted
}

// TLSHandlerHandshakeAndWriteText completes the handshake with a
// certificate issued by ca, writes text, and closes. Without SNI the
// certificate is issued for the local IP address.
func TLSHandlerHandshakeAndWriteText(ca *TLSCA, text []byte) TLSHandler {
	return &tlsHandlerWriteText{ca: ca, text: text}
}

type tlsHandlerWriteText struct {
	ca   *TLSCA
	text []byte
}

var _ TLSConnHandler = &tlsHandlerWriteText{}

func (h *tlsHandlerWriteText) GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	name := chi.ServerName
	if name == "" {
		host, _, err := net.SplitHostPort(tcpConn.LocalAddr().String())
		if err != nil {
			return nil, err
		}
		name = host
	}
	return h.ca.MustNewLeafCertificate(name), nil
}

func (h *tlsHandlerWriteText) HandleTLSConn(conn TLSConn) {
	_, _ = conn.Write(h.text)
}
