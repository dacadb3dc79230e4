package tcpconnect

import (
	"context"
	"net"
	"net/url"

	"github.com/ooni/connectx/internal/logx"
	"github.com/ooni/connectx/internal/model"
)

// Connect is a transport substrate, i.e., the mechanism we use to
// open a TCP connection to a [Target].
type Connect interface {
	// Connect opens a connection to the target. The context bounds
	// the whole operation; when it is done before Connect returns, no
	// connection is leaked to the caller.
	Connect(ctx context.Context, target Target) (net.Conn, error)
}

// Connector is the transport connect stage. The zero value is
// invalid; use [New] to construct.
type Connector struct {
	connect Connect
	logger  model.Logger
}

var _ model.Stage[*url.URL, net.Conn] = &Connector{}

// New creates a new [*Connector] using the given substrate and logger.
func New(connect Connect, logger model.Logger) *Connector {
	return &Connector{
		connect: connect,
		logger:  model.ValidLoggerOrDefault(logger),
	}
}

// Ready implements model.Stage. A Connector is always ready.
func (c *Connector) Ready(ctx context.Context) error {
	return nil
}

// Call implements model.Stage. We fail with [ErrInvalidTarget] before
// performing any I/O when the URL does not identify a target.
func (c *Connector) Call(ctx context.Context, u *url.URL) (net.Conn, error) {
	target, err := NewTarget(u)
	if err != nil {
		return nil, err
	}
	ol := logx.NewOperationLogger(c.logger, "TCPConnect %s", target.Address())
	conn, err := c.connect.Connect(ctx, target)
	ol.Stop(err)
	return conn, err
}

// ConnectFunc adapts a function to the [Connect] interface.
type ConnectFunc func(ctx context.Context, target Target) (net.Conn, error)

var _ Connect = ConnectFunc(nil)

// Connect implements Connect.
func (fx ConnectFunc) Connect(ctx context.Context, target Target) (net.Conn, error) {
	return fx(ctx, target)
}
