package testingx

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/connectx/internal/model/mocks"
	"golang.org/x/net/proxy"
)

// directDialer is a model.Dialer using net.Dialer.
func directDialer() *mocks.Dialer {
	return &mocks.Dialer{
		MockDialContext: (&net.Dialer{}).DialContext,
	}
}

func TestSOCKS5Server(t *testing.T) {
	t.Run("we proxy the connection", func(t *testing.T) {
		ca := MustNewTLSCA()
		tlsSrv := MustNewTLSServer(TLSHandlerHandshakeAndWriteText(ca, []byte("hello")))
		defer tlsSrv.Close()

		srv := MustNewSOCKS5Server(directDialer())
		defer srv.Close()

		dialer, err := proxy.SOCKS5("tcp", srv.Endpoint(), nil, proxy.Direct)
		if err != nil {
			t.Fatal(err)
		}
		conn, err := dialer.Dial("tcp", tlsSrv.Endpoint())
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		if diff := cmp.Diff([]string{tlsSrv.Endpoint()}, srv.Destinations()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("we report unreachable destinations", func(t *testing.T) {
		expected := errors.New("mocked error")
		srv := MustNewSOCKS5Server(&mocks.Dialer{
			MockDialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, expected
			},
		})
		defer srv.Close()

		dialer, err := proxy.SOCKS5("tcp", srv.Endpoint(), nil, proxy.Direct)
		if err != nil {
			t.Fatal(err)
		}
		conn, err := dialer.Dial("tcp", "www.example.com:443")
		if err == nil {
			conn.Close()
			t.Fatal("expected an error")
		}
		if diff := cmp.Diff([]string{"www.example.com:443"}, srv.Destinations()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("we reject clients without acceptable auth methods", func(t *testing.T) {
		srv := MustNewSOCKS5Server(directDialer())
		defer srv.Close()
		conn, err := net.Dial("tcp", srv.Endpoint())
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		if _, err := conn.Write([]byte{5, 1, 2}); err != nil {
			t.Fatal(err)
		}
		buffer := make([]byte, 2)
		if _, err := io.ReadFull(conn, buffer); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]byte{5, 255}, buffer); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("URL", func(t *testing.T) {
		srv := MustNewSOCKS5Server(directDialer())
		defer srv.Close()
		if u := srv.URL(); u.Scheme != "socks5h" || u.Host != srv.Endpoint() {
			t.Fatal("unexpected URL", u)
		}
	})
}
