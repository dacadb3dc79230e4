package connector

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/connectx/config"
	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/ooni/connectx/internal/stagex"
	"github.com/ooni/connectx/internal/testingx"
	"github.com/ooni/connectx/internal/tlsconnect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// writeCAFile writes the CA certificate to a temporary file.
func writeCAFile(t *testing.T, ca *testingx.TLSCA) string {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, ca.CACertPEM(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// callAndRead connects to the URL and reads what the server writes.
func callAndRead(t *testing.T, stage Stage, URL string) (model.TLSConn, string) {
	u, err := url.Parse(URL)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := stagex.Run(context.Background(), stage, u)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	return conn, string(data)
}

func TestNew(t *testing.T) {
	ca := testingx.MustNewTLSCA()
	srv := testingx.MustNewTLSServer(testingx.TLSHandlerHandshakeAndWriteText(ca, []byte("hello")))
	defer srv.Close()
	URL := "https://" + srv.Endpoint() + "/"

	t.Run("with the default config and a custom CA", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Fatal(err)
		}
		conn, data := callAndRead(t, stage, URL)
		defer conn.Close()
		if data != "hello" {
			t.Fatal("unexpected data", data)
		}
		if proto := conn.ConnectionState().NegotiatedProtocol; proto != "http/1.1" {
			t.Fatal("unexpected protocol", proto)
		}
	})

	t.Run("without ALPN", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		cfg.ALPN = nil
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Fatal(err)
		}
		conn, _ := callAndRead(t, stage, URL)
		defer conn.Close()
		if proto := conn.ConnectionState().NegotiatedProtocol; proto != "" {
			t.Fatal("unexpected protocol", proto)
		}
	})

	t.Run("with a server name override", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		cfg.ServerName = "www.example.com"
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Fatal(err)
		}
		conn, _ := callAndRead(t, stage, URL)
		defer conn.Close()
		certs := conn.ConnectionState().PeerCertificates
		if len(certs) <= 0 {
			t.Fatal("expected peer certificates")
		}
		if diff := cmp.Diff([]string{"www.example.com"}, certs[0].DNSNames); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with a SOCKS5 proxy", func(t *testing.T) {
		dialer := netxlite.NewDialerWithoutResolver(model.DiscardLogger)
		proxy := testingx.MustNewSOCKS5Server(dialer)
		defer proxy.Close()
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		cfg.ProxyURL = proxy.URL().String()
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Fatal(err)
		}
		conn, data := callAndRead(t, stage, URL)
		defer conn.Close()
		if data != "hello" {
			t.Fatal("unexpected data", data)
		}
		if diff := cmp.Diff([]string{srv.Endpoint()}, proxy.Destinations()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with metrics and an observer", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		metrics, err := stagex.NewMetrics(reg)
		if err != nil {
			t.Fatal(err)
		}
		var (
			mu     sync.Mutex
			states []tlsconnect.State
		)
		options := &Options{
			Metrics: metrics,
			Observer: func(u *url.URL, state tlsconnect.State) {
				mu.Lock()
				states = append(states, state)
				mu.Unlock()
			},
		}
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		stage, err := New(cfg, model.DiscardLogger, options)
		if err != nil {
			t.Fatal(err)
		}
		conn, _ := callAndRead(t, stage, URL)
		conn.Close()
		count, err := testutil.GatherAndCount(reg, "connectx_stage_calls_total")
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Fatal("expected a series for tcp and one for tls, got", count)
		}
		if len(states) <= 0 || states[len(states)-1] != tlsconnect.StateSecured {
			t.Fatal("unexpected states", states)
		}
	})

	t.Run("with the system trust store", func(t *testing.T) {
		cfg := config.Default()
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Skip("cannot load the system trust store", err)
		}
		u, err := url.Parse(URL)
		if err != nil {
			t.Fatal(err)
		}
		_, err = stagex.Run(context.Background(), stage, u)
		var ew *netxlite.ErrWrapper
		if !errors.As(err, &ew) || ew.Failure != netxlite.FailureSSLUnknownAuthority {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("with a uTLS fingerprint", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		cfg.Fingerprint = config.FingerprintFirefox
		stage, err := New(cfg, model.DiscardLogger, nil)
		if err != nil {
			t.Fatal(err)
		}
		if stage == nil {
			t.Fatal("expected a stage")
		}
	})

	t.Run("with a DNS server", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = writeCAFile(t, ca)
		cfg.DNSServer = "127.0.0.1:53"
		if _, err := New(cfg, model.DiscardLogger, nil); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("with an invalid config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Fingerprint = "safari"
		if _, err := New(cfg, model.DiscardLogger, nil); !errors.Is(err, config.ErrUnknownFingerprint) {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("with a nonexistent CA file", func(t *testing.T) {
		cfg := config.Default()
		cfg.CAFile = filepath.Join(t.TempDir(), "nonexistent.pem")
		if _, err := New(cfg, model.DiscardLogger, nil); !errors.Is(err, os.ErrNotExist) {
			t.Fatal("unexpected err", err)
		}
	})
}
