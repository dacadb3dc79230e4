package netxlite

//
// Code to use yawning/utls or refraction-networking/utls
//

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ooni/connectx/internal/model"
	utls "gitlab.com/yawning/utls.git"
)

// ErrUnknownFingerprint indicates that we do not know the
// requested TLS ClientHello fingerprint.
var ErrUnknownFingerprint = errors.New("netxlite: unknown TLS fingerprint")

// ClientHelloIDByName returns the ClientHelloID for the given
// fingerprint name (chrome, firefox, randomized) or an error.
func ClientHelloIDByName(name string) (*utls.ClientHelloID, error) {
	switch strings.ToLower(name) {
	case "chrome":
		return &utls.HelloChrome_Auto, nil
	case "firefox":
		return &utls.HelloFirefox_Auto, nil
	case "randomized":
		return &utls.HelloRandomized, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFingerprint, name)
	}
}

// NewTLSHandshakerUTLS creates a new TLS handshaker using
// gitlab.com/yawning/utls.git for TLS.
//
// The id is the address of something like utls.HelloFirefox_55.
//
// The handshaker guarantees:
//
// 1. logging;
//
// 2. error wrapping.
func NewTLSHandshakerUTLS(logger model.DebugLogger, id *utls.ClientHelloID) model.TLSHandshaker {
	return newTLSHandshaker(&tlsHandshakerConfigurable{
		NewConn: newConnUTLS(id),
	}, logger)
}

// utlsConn implements model.TLSConn and uses a utls UConn as its underlying connection
type utlsConn struct {
	*utls.UConn
	nc                net.Conn
	testableHandshake func() error
}

var _ model.TLSConn = &utlsConn{}

// newConnUTLS returns a NewConn function for creating utlsConn instances.
func newConnUTLS(clientHello *utls.ClientHelloID) func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
	return func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
		return newConnUTLSWithHelloID(conn, config, clientHello)
	}
}

// errUTLSIncompatibleStdlibConfig indicates that the stdlib config
// you passed to newConnUTLSWithHelloID contains some fields we don't
// support when converting to a utls config.
var errUTLSIncompatibleStdlibConfig = errors.New("utls: incompatible stdlib config")

// newConnUTLSWithHelloID creates a new connection with the given client hello ID.
func newConnUTLSWithHelloID(conn net.Conn, config *tls.Config, cid *utls.ClientHelloID) (model.TLSConn, error) {
	supportedFields := map[string]bool{
		"DynamicRecordSizingDisabled": true,
		"InsecureSkipVerify":          true,
		"NextProtos":                  true,
		"RootCAs":                     true,
		"ServerName":                  true,
	}
	if err := tlsConfigCheckUnsupportedFields(config, supportedFields); err != nil {
		return nil, err
	}
	uConfig := &utls.Config{
		DynamicRecordSizingDisabled: config.DynamicRecordSizingDisabled,
		InsecureSkipVerify:          config.InsecureSkipVerify,
		RootCAs:                     config.RootCAs,
		NextProtos:                  config.NextProtos,
		ServerName:                  config.ServerName,
	}
	tlsConn := utls.UClient(conn, uConfig, *cid)
	oconn := &utlsConn{
		UConn: tlsConn,
		nc:    conn,
	}
	return oconn, nil
}

// tlsConfigCheckUnsupportedFields fails when the config sets a field
// we cannot map onto a utls config. We only check the fields that a
// caller of this package could plausibly set.
func tlsConfigCheckUnsupportedFields(config *tls.Config, supported map[string]bool) error {
	var unsupported []string
	if config.MinVersion != 0 && !supported["MinVersion"] {
		unsupported = append(unsupported, "MinVersion")
	}
	if config.MaxVersion != 0 && !supported["MaxVersion"] {
		unsupported = append(unsupported, "MaxVersion")
	}
	if len(config.Certificates) > 0 && !supported["Certificates"] {
		unsupported = append(unsupported, "Certificates")
	}
	if len(config.CipherSuites) > 0 && !supported["CipherSuites"] {
		unsupported = append(unsupported, "CipherSuites")
	}
	if config.VerifyPeerCertificate != nil && !supported["VerifyPeerCertificate"] {
		unsupported = append(unsupported, "VerifyPeerCertificate")
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("%w: %s", errUTLSIncompatibleStdlibConfig, strings.Join(unsupported, ","))
	}
	return nil
}

// ErrUTLSHandshakePanic indicates that there was panic handshaking
// when we were using the yawning/utls library for parroting.
var ErrUTLSHandshakePanic = errors.New("utls: handshake panic")

// HandshakeContext implements model.TLSConn.HandshakeContext. The utls
// library does not support contexts, so we run the handshake in the
// background and interrupt it by closing the connection.
func (c *utlsConn) HandshakeContext(ctx context.Context) (err error) {
	errch := make(chan error, 1)
	go func() {
		defer func() {
			if recover() != nil {
				errch <- ErrUTLSHandshakePanic
			}
		}()
		errch <- c.handshakefn()()
	}()
	select {
	case err = <-errch:
	case <-ctx.Done():
		err = ctx.Err()
		if c.nc != nil {
			c.nc.Close()
		}
	}
	return
}

func (c *utlsConn) handshakefn() func() error {
	if c.testableHandshake != nil {
		return c.testableHandshake
	}
	return c.UConn.Handshake
}

// ConnectionState implements model.TLSConn.ConnectionState.
func (c *utlsConn) ConnectionState() tls.ConnectionState {
	uState := c.Conn.ConnectionState()
	return tls.ConnectionState{
		Version:                     uState.Version,
		HandshakeComplete:           uState.HandshakeComplete,
		DidResume:                   uState.DidResume,
		CipherSuite:                 uState.CipherSuite,
		NegotiatedProtocol:          uState.NegotiatedProtocol,
		ServerName:                  uState.ServerName,
		PeerCertificates:            uState.PeerCertificates,
		VerifiedChains:              uState.VerifiedChains,
		SignedCertificateTimestamps: uState.SignedCertificateTimestamps,
		OCSPResponse:                uState.OCSPResponse,
		TLSUnique:                   uState.TLSUnique,
	}
}

// NetConn returns the underlying net.Conn.
func (c *utlsConn) NetConn() net.Conn {
	return c.nc
}
