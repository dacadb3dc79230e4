package netxlite

//
// TLS implementation
//

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ooni/connectx/internal/model"
)

var tlsVersionString = map[uint16]string{
	tls.VersionTLS10: "TLSv1",
	tls.VersionTLS11: "TLSv1.1",
	tls.VersionTLS12: "TLSv1.2",
	tls.VersionTLS13: "TLSv1.3",
	0:                "", // guarantee correct behaviour
}

// TLSVersionString returns a TLS version string. If value is zero, we
// return the empty string. If the value is unknown, we return
// `TLS_VERSION_UNKNOWN_ddd` where `ddd` is the numeric value passed
// to this function.
func TLSVersionString(value uint16) string {
	if str, found := tlsVersionString[value]; found {
		return str
	}
	return fmt.Sprintf("TLS_VERSION_UNKNOWN_%d", value)
}

// TLSCipherSuiteString returns the TLS cipher suite as a string. If value
// is zero, we return the empty string. If the standard library does not
// know the cipher suite, we return `TLS_CIPHER_SUITE_UNKNOWN_ddd` where
// `ddd` is the numeric value passed to this function.
func TLSCipherSuiteString(value uint16) string {
	if value == 0 {
		return ""
	}
	for _, suite := range tls.CipherSuites() {
		if suite.ID == value {
			return suite.Name
		}
	}
	for _, suite := range tls.InsecureCipherSuites() {
		if suite.ID == value {
			return suite.Name
		}
	}
	return fmt.Sprintf("TLS_CIPHER_SUITE_UNKNOWN_%d", value)
}

// ErrInvalidTLSVersion indicates that you passed us a string
// that does not represent a valid TLS version.
var ErrInvalidTLSVersion = errors.New("invalid TLS version")

// ParseTLSVersion maps a TLS version string to the corresponding
// crypto/tls constant or returns ErrInvalidTLSVersion. The empty
// string maps to zero, meaning the crypto/tls default.
//
// Recognized strings: TLSv1.3, TLSv1.2, TLSv1.1, TLSv1.0, TLSv1.
func ParseTLSVersion(version string) (uint16, error) {
	switch version {
	case "TLSv1.3":
		return tls.VersionTLS13, nil
	case "TLSv1.2":
		return tls.VersionTLS12, nil
	case "TLSv1.1":
		return tls.VersionTLS11, nil
	case "TLSv1.0", "TLSv1":
		return tls.VersionTLS10, nil
	case "":
		return 0, nil
	default:
		return 0, ErrInvalidTLSVersion
	}
}

// NewTLSHandshakerStdlib creates a new TLS handshaker using the
// go standard library to manage TLS.
//
// The handshaker guarantees:
//
// 1. logging
//
// 2. error wrapping
func NewTLSHandshakerStdlib(logger model.DebugLogger) model.TLSHandshaker {
	return newTLSHandshaker(&tlsHandshakerConfigurable{}, logger)
}

// newTLSHandshaker is the common factory for creating a new TLSHandshaker
func newTLSHandshaker(th model.TLSHandshaker, logger model.DebugLogger) model.TLSHandshaker {
	return &tlsHandshakerLogger{
		TLSHandshaker: &tlsHandshakerErrWrapper{
			TLSHandshaker: th,
		},
		DebugLogger: logger,
	}
}

// tlsHandshakerConfigurable is a configurable TLS handshaker that
// uses by default the standard library's TLS implementation.
type tlsHandshakerConfigurable struct {
	// NewConn is the OPTIONAL factory for creating a new connection. If
	// this factory is not set, we'll use the stdlib.
	NewConn func(conn net.Conn, config *tls.Config) (model.TLSConn, error)
}

var _ model.TLSHandshaker = &tlsHandshakerConfigurable{}

// Handshake implements model.TLSHandshaker.Handshake. We only clone the
// config when its ServerName differs from the serverName argument. The
// context is the only bound on the handshake duration.
func (h *tlsHandshakerConfigurable) Handshake(
	ctx context.Context, conn net.Conn, config *tls.Config, serverName string,
) (model.TLSConn, error) {
	if serverName != "" && config.ServerName != serverName {
		config = config.Clone()
		config.ServerName = serverName
	}
	tlsconn, err := h.newConn(conn, config)
	if err != nil {
		return nil, err
	}
	if err := tlsconn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsconn, nil
}

// newConn creates a new TLSConn.
func (h *tlsHandshakerConfigurable) newConn(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
	if h.NewConn != nil {
		return h.NewConn(conn, config)
	}
	return tls.Client(conn, config), nil
}

// tlsHandshakerLogger is a TLSHandshaker with logging.
type tlsHandshakerLogger struct {
	TLSHandshaker model.TLSHandshaker
	DebugLogger   model.DebugLogger
}

var _ model.TLSHandshaker = &tlsHandshakerLogger{}

// Handshake implements model.TLSHandshaker.Handshake
func (h *tlsHandshakerLogger) Handshake(
	ctx context.Context, conn net.Conn, config *tls.Config, serverName string,
) (model.TLSConn, error) {
	h.DebugLogger.Debugf(
		"tls {sni=%s next=%+v}...", serverName, config.NextProtos)
	start := time.Now()
	tlsconn, err := h.TLSHandshaker.Handshake(ctx, conn, config, serverName)
	elapsed := time.Since(start)
	if err != nil {
		h.DebugLogger.Debugf(
			"tls {sni=%s next=%+v}... %s in %s", serverName,
			config.NextProtos, err, elapsed)
		return nil, err
	}
	state := tlsconn.ConnectionState()
	h.DebugLogger.Debugf(
		"tls {sni=%s next=%+v}... ok in %s {next=%s cipher=%s v=%s}",
		serverName, config.NextProtos, elapsed, state.NegotiatedProtocol,
		TLSCipherSuiteString(state.CipherSuite),
		TLSVersionString(state.Version))
	return tlsconn, nil
}

// tlsHandshakerErrWrapper wraps the returned error to be an ErrWrapper.
type tlsHandshakerErrWrapper struct {
	TLSHandshaker model.TLSHandshaker
}

var _ model.TLSHandshaker = &tlsHandshakerErrWrapper{}

// Handshake implements model.TLSHandshaker.Handshake
func (h *tlsHandshakerErrWrapper) Handshake(
	ctx context.Context, conn net.Conn, config *tls.Config, serverName string,
) (model.TLSConn, error) {
	tlsconn, err := h.TLSHandshaker.Handshake(ctx, conn, config, serverName)
	if err != nil {
		return nil, NewErrWrapper(
			ClassifyTLSHandshakeError, TLSHandshakeOperation, err)
	}
	return tlsconn, nil
}
