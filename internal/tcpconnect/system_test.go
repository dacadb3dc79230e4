package tcpconnect

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/model/mocks"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/ooni/connectx/internal/testingx"
)

func mustSplitTarget(t *testing.T, endpoint string) Target {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		t.Fatal(err)
	}
	value, err := strconv.Atoi(port)
	if err != nil {
		t.Fatal(err)
	}
	return Target{Host: host, Port: uint16(value)}
}

func TestSystem(t *testing.T) {
	t.Run("connects to a listening endpoint", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer listener.Close()
		s := NewSystem(model.DiscardLogger, nil)
		conn, err := s.Connect(context.Background(), mustSplitTarget(t, listener.Addr().String()))
		if err != nil {
			t.Fatal(err)
		}
		conn.Close()
	})

	t.Run("wraps connection refused", func(t *testing.T) {
		s := NewSystem(model.DiscardLogger, nil)
		target := mustSplitTarget(t, testingx.MustNewClosedTCPEndpoint())
		conn, err := s.Connect(context.Background(), target)
		if conn != nil {
			t.Fatal("expected nil conn")
		}
		var ew *netxlite.ErrWrapper
		if !errors.As(err, &ew) {
			t.Fatal("not an ErrWrapper", err)
		}
		if ew.Failure != netxlite.FailureConnectionRefused || ew.Operation != netxlite.ConnectOperation {
			t.Fatal("unexpected wrapper", ew.Failure, ew.Operation)
		}
	})

	t.Run("uses the given dialer", func(t *testing.T) {
		var gotAddress string
		expected := &mocks.Conn{}
		s := NewSystemWithDialer(&mocks.Dialer{
			MockDialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				gotAddress = address
				return expected, nil
			},
		})
		conn, err := s.Connect(context.Background(), Target{Host: "::1", Port: 443})
		if err != nil {
			t.Fatal(err)
		}
		if conn != expected || gotAddress != "[::1]:443" {
			t.Fatal("unexpected result", gotAddress)
		}
		if s.Dialer() == nil {
			t.Fatal("expected non-nil dialer")
		}
	})
}
