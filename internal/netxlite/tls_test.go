package netxlite

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/model/mocks"
	"github.com/ooni/connectx/internal/testingx"
)

func TestTLSVersionString(t *testing.T) {
	if TLSVersionString(tls.VersionTLS13) != "TLSv1.3" {
		t.Fatal("not working for existing version")
	}
	if TLSVersionString(1) != "TLS_VERSION_UNKNOWN_1" {
		t.Fatal("not working for nonexisting version")
	}
	if TLSVersionString(0) != "" {
		t.Fatal("not working with zero")
	}
}

func TestTLSCipherSuiteString(t *testing.T) {
	if TLSCipherSuiteString(tls.TLS_AES_128_GCM_SHA256) != "TLS_AES_128_GCM_SHA256" {
		t.Fatal("not working for existing cipher suite")
	}
	if TLSCipherSuiteString(tls.TLS_RSA_WITH_RC4_128_SHA) != "TLS_RSA_WITH_RC4_128_SHA" {
		t.Fatal("not working for insecure cipher suite")
	}
	if TLSCipherSuiteString(1) != "TLS_CIPHER_SUITE_UNKNOWN_1" {
		t.Fatal("not working for nonexisting cipher suite")
	}
	if TLSCipherSuiteString(0) != "" {
		t.Fatal("not working with zero")
	}
}

func TestParseTLSVersion(t *testing.T) {
	tests := []struct {
		version string
		expect  uint16
		err     error
	}{
		{"TLSv1.3", tls.VersionTLS13, nil},
		{"TLSv1.2", tls.VersionTLS12, nil},
		{"TLSv1.1", tls.VersionTLS11, nil},
		{"TLSv1.0", tls.VersionTLS10, nil},
		{"TLSv1", tls.VersionTLS10, nil},
		{"", 0, nil},
		{"SSLv3", 0, ErrInvalidTLSVersion},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := ParseTLSVersion(tt.version)
			if !errors.Is(err, tt.err) {
				t.Fatal("unexpected err", err)
			}
			if got != tt.expect {
				t.Fatal("unexpected version", got)
			}
		})
	}
}

func TestNewTLSHandshakerStdlib(t *testing.T) {
	th := NewTLSHandshakerStdlib(log.Log)
	logger := th.(*tlsHandshakerLogger)
	if logger.DebugLogger != log.Log {
		t.Fatal("invalid logger")
	}
	errWrapper := logger.TLSHandshaker.(*tlsHandshakerErrWrapper)
	configurable := errWrapper.TLSHandshaker.(*tlsHandshakerConfigurable)
	if configurable.NewConn != nil {
		t.Fatal("expected nil NewConn")
	}
}

func TestTLSHandshakerConfigurable(t *testing.T) {
	t.Run("does not clone the config when ServerName matches", func(t *testing.T) {
		config := &tls.Config{ServerName: "dns.google"}
		var gotConfig *tls.Config
		th := &tlsHandshakerConfigurable{
			NewConn: func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
				gotConfig = config
				return &mocks.TLSConn{
					MockHandshakeContext: func(ctx context.Context) error {
						return nil
					},
				}, nil
			},
		}
		if _, err := th.Handshake(context.Background(), &mocks.Conn{}, config, "dns.google"); err != nil {
			t.Fatal(err)
		}
		if gotConfig != config {
			t.Fatal("expected the same config")
		}
	})

	t.Run("clones the config to set ServerName", func(t *testing.T) {
		config := &tls.Config{NextProtos: []string{"h2"}}
		var gotConfig *tls.Config
		th := &tlsHandshakerConfigurable{
			NewConn: func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
				gotConfig = config
				return &mocks.TLSConn{
					MockHandshakeContext: func(ctx context.Context) error {
						return nil
					},
				}, nil
			},
		}
		if _, err := th.Handshake(context.Background(), &mocks.Conn{}, config, "dns.google"); err != nil {
			t.Fatal(err)
		}
		if gotConfig == config {
			t.Fatal("expected a clone")
		}
		if gotConfig.ServerName != "dns.google" || config.ServerName != "" {
			t.Fatal("unexpected ServerName values")
		}
		if gotConfig.NextProtos[0] != "h2" {
			t.Fatal("clone lost NextProtos")
		}
	})

	t.Run("leaves the conn deadlines to the caller", func(t *testing.T) {
		conn := &mocks.Conn{
			MockSetDeadline: func(t time.Time) error {
				panic("unexpected SetDeadline call")
			},
		}
		th := &tlsHandshakerConfigurable{
			NewConn: func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
				return &mocks.TLSConn{
					MockHandshakeContext: func(ctx context.Context) error {
						return io.EOF
					},
				}, nil
			},
		}
		if _, err := th.Handshake(context.Background(), conn, &tls.Config{}, "dns.google"); !errors.Is(err, io.EOF) {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("NewConn failure", func(t *testing.T) {
		expected := errors.New("mocked error")
		th := &tlsHandshakerConfigurable{
			NewConn: func(conn net.Conn, config *tls.Config) (model.TLSConn, error) {
				return nil, expected
			},
		}
		_, err := th.Handshake(context.Background(), &mocks.Conn{}, &tls.Config{}, "dns.google")
		if !errors.Is(err, expected) {
			t.Fatal("unexpected err", err)
		}
	})
}

func TestTLSHandshakerLogger(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		var count int
		lo := &mocks.Logger{
			MockDebugf: func(format string, v ...interface{}) {
				count++
			},
		}
		expected := &mocks.TLSConn{
			MockConnectionState: func() tls.ConnectionState {
				return tls.ConnectionState{Version: tls.VersionTLS13}
			},
		}
		th := &tlsHandshakerLogger{
			DebugLogger: lo,
			TLSHandshaker: &mocks.TLSHandshaker{
				MockHandshake: func(ctx context.Context, conn net.Conn,
					config *tls.Config, serverName string) (model.TLSConn, error) {
					return expected, nil
				},
			},
		}
		conn, err := th.Handshake(context.Background(), &mocks.Conn{}, &tls.Config{}, "dns.google")
		if err != nil {
			t.Fatal(err)
		}
		if conn != expected || count != 2 {
			t.Fatal("unexpected result")
		}
	})

	t.Run("on failure", func(t *testing.T) {
		var count int
		lo := &mocks.Logger{
			MockDebugf: func(format string, v ...interface{}) {
				count++
			},
		}
		th := &tlsHandshakerLogger{
			DebugLogger: lo,
			TLSHandshaker: &mocks.TLSHandshaker{
				MockHandshake: func(ctx context.Context, conn net.Conn,
					config *tls.Config, serverName string) (model.TLSConn, error) {
					return nil, io.EOF
				},
			},
		}
		conn, err := th.Handshake(context.Background(), &mocks.Conn{}, &tls.Config{}, "dns.google")
		if !errors.Is(err, io.EOF) {
			t.Fatal("unexpected err", err)
		}
		if conn != nil || count != 2 {
			t.Fatal("unexpected result")
		}
	})
}

func TestTLSHandshakerErrWrapper(t *testing.T) {
	th := &tlsHandshakerErrWrapper{
		TLSHandshaker: &mocks.TLSHandshaker{
			MockHandshake: func(ctx context.Context, conn net.Conn,
				config *tls.Config, serverName string) (model.TLSConn, error) {
				return nil, io.EOF
			},
		},
	}
	_, err := th.Handshake(context.Background(), &mocks.Conn{}, &tls.Config{}, "dns.google")
	var ew *ErrWrapper
	if !errors.As(err, &ew) {
		t.Fatal("not an ErrWrapper", err)
	}
	if ew.Failure != FailureEOFError || ew.Operation != TLSHandshakeOperation {
		t.Fatal("unexpected wrapper", ew.Failure, ew.Operation)
	}
}

func TestTLSHandshakerStdlibIntegration(t *testing.T) {
	t.Run("with a trusted server", func(t *testing.T) {
		ca := testingx.MustNewTLSCA()
		srv := testingx.MustNewTLSServer(testingx.TLSHandlerHandshakeAndWriteText(ca, []byte("hello")))
		defer srv.Close()
		conn, err := net.Dial("tcp", srv.Endpoint())
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		config := &tls.Config{RootCAs: ca.CertPool(), NextProtos: []string{"http/1.1"}}
		th := NewTLSHandshakerStdlib(model.DiscardLogger)
		tlsConn, err := th.Handshake(context.Background(), conn, config, "www.example.com")
		if err != nil {
			t.Fatal(err)
		}
		state := tlsConn.ConnectionState()
		if state.NegotiatedProtocol != "http/1.1" {
			t.Fatal("unexpected ALPN", state.NegotiatedProtocol)
		}
	})

	t.Run("with an untrusted server", func(t *testing.T) {
		ca := testingx.MustNewTLSCA()
		srv := testingx.MustNewTLSServer(testingx.TLSHandlerHandshakeAndWriteText(ca, nil))
		defer srv.Close()
		conn, err := net.Dial("tcp", srv.Endpoint())
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		th := NewTLSHandshakerStdlib(model.DiscardLogger)
		config := &tls.Config{RootCAs: testingx.MustNewTLSCA().CertPool()}
		_, err = th.Handshake(context.Background(), conn, config, "www.example.com")
		if err == nil || err.Error() != FailureSSLUnknownAuthority {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("with the server closing the connection", func(t *testing.T) {
		srv := testingx.MustNewTLSServer(testingx.TLSHandlerEOF())
		defer srv.Close()
		conn, err := net.Dial("tcp", srv.Endpoint())
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		th := NewTLSHandshakerStdlib(model.DiscardLogger)
		_, err = th.Handshake(context.Background(), conn, &tls.Config{}, "www.example.com")
		if err == nil || !strings.HasPrefix(err.Error(), "eof_error") && err.Error() != FailureConnectionReset {
			t.Fatal("unexpected err", err)
		}
	})
}
