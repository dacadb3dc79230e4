package tcpconnect

import (
	"context"
	"net"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
)

// System is the [Connect] substrate that dials on the calling goroutine
// using a context-aware [model.Dialer]. Errors are *netxlite.ErrWrapper
// instances classified by the dialer stack.
type System struct {
	dialer model.Dialer
}

var _ Connect = &System{}

// NewSystem creates a [*System] dialing through the netxlite dialer
// stack with the given logger and resolver. A nil resolver means we
// use the system resolver.
func NewSystem(logger model.Logger, resolver model.Resolver) *System {
	logger = model.ValidLoggerOrDefault(logger)
	if resolver == nil {
		resolver = netxlite.NewResolverStdlib(logger)
	}
	return NewSystemWithDialer(netxlite.NewDialerWithResolver(logger, resolver))
}

// NewSystemWithDialer creates a [*System] using the given dialer.
func NewSystemWithDialer(dialer model.Dialer) *System {
	return &System{dialer: dialer}
}

// Connect implements Connect.
func (s *System) Connect(ctx context.Context, target Target) (net.Conn, error) {
	return s.dialer.DialContext(ctx, "tcp", target.Address())
}

// Dialer returns the underlying dialer, which is useful to reach a
// proxy through the same dialer stack.
func (s *System) Dialer() model.Dialer {
	return s.dialer
}
