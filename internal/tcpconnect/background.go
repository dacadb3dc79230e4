package tcpconnect

import (
	"context"
	"net"

	"github.com/ooni/connectx/internal/erroror"
	"github.com/ooni/connectx/internal/model"
)

// Background is the [Connect] substrate for dialers that do not support
// contexts, such as SOCKS5 dialers from golang.org/x/net/proxy. It runs
// the blocking dial on a helper goroutine. When the context is done
// first, Connect returns the context error and the helper closes the
// connection if the dial later succeeds.
type Background struct {
	dialer model.LegacyDialer
	logger model.Logger
}

var _ Connect = &Background{}

// NewBackground creates a new [*Background] using the given dialer.
func NewBackground(logger model.Logger, dialer model.LegacyDialer) *Background {
	return &Background{
		dialer: dialer,
		logger: model.ValidLoggerOrDefault(logger),
	}
}

// Connect implements Connect.
func (b *Background) Connect(ctx context.Context, target Target) (net.Conn, error) {
	address := target.Address()
	// buffered so the helper never blocks when nobody is reading
	outch := make(chan erroror.Value[net.Conn], 1)
	go func() {
		conn, err := b.dialer.Dial("tcp", address)
		outch <- erroror.Value[net.Conn]{Err: err, Value: conn}
	}()
	select {
	case out := <-outch:
		return out.Unwrap()
	case <-ctx.Done():
		go b.closeLateConn(address, outch)
		return nil, ctx.Err()
	}
}

// closeLateConn waits for an abandoned dial and closes its connection.
func (b *Background) closeLateConn(address string, outch <-chan erroror.Value[net.Conn]) {
	out := <-outch
	if out.Err == nil {
		b.logger.Debugf("tcpconnect: closing abandoned connection to %s", address)
		out.Value.Close()
	}
}
