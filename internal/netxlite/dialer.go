package netxlite

//
// Dialers
//

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/ooni/connectx/internal/model"
)

// NewDialerWithResolver creates a dialer using the given resolver and logger.
//
// The returned dialer guarantees:
//
// 1. logging of the whole dial and of each per-address attempt;
//
// 2. every per-address error is wrapped with ConnectOperation;
//
// 3. IPv4 addresses are attempted before IPv6 addresses.
func NewDialerWithResolver(logger model.DebugLogger, resolver model.Resolver) model.Dialer {
	return &dialerLogger{
		Dialer: &dialerResolver{
			Dialer: &dialerLogger{
				Dialer: &dialerErrWrapper{
					Dialer: &dialerSystem{},
				},
				DebugLogger:     logger,
				operationSuffix: "_address",
			},
			Resolver: resolver,
		},
		DebugLogger: logger,
	}
}

// NewDialerWithoutResolver creates a dialer that uses the given
// logger and fails with ErrNoResolver when it is passed a domain name.
func NewDialerWithoutResolver(logger model.DebugLogger) model.Dialer {
	return NewDialerWithResolver(logger, &nullResolver{})
}

// dialerSystem dials using Go stdlib. Only the context bounds
// each connect attempt.
type dialerSystem struct{}

var _ model.Dialer = &dialerSystem{}

func (d *dialerSystem) newUnderlyingDialer() *net.Dialer {
	return &net.Dialer{
		KeepAlive: 15 * time.Second,
	}
}

// DialContext implements model.Dialer.DialContext.
func (d *dialerSystem) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.newUnderlyingDialer().DialContext(ctx, network, address)
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerSystem) CloseIdleConnections() {
	// nothing to do
}

// dialerResolver is a dialer that uses the configured Resolver to resolve a
// domain name to IP addresses, and the configured Dialer to connect.
type dialerResolver struct {
	// Dialer is the underlying Dialer.
	Dialer model.Dialer

	// Resolver is the underlying Resolver.
	Resolver model.Resolver
}

var _ model.Dialer = &dialerResolver{}

// DialContext implements model.Dialer.DialContext.
func (d *dialerResolver) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	onlyhost, onlyport, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	addrs, err := d.lookupHost(ctx, onlyhost)
	if err != nil {
		return nil, err
	}
	addrs = sortIPAddrs(addrs)
	var errorslist []error
	for _, addr := range addrs {
		target := net.JoinHostPort(addr, onlyport)
		conn, err := d.Dialer.DialContext(ctx, network, target)
		if err == nil {
			return conn, nil
		}
		errorslist = append(errorslist, err)
	}
	return nil, reduceErrors(errorslist)
}

// lookupHost performs a domain name resolution.
func (d *dialerResolver) lookupHost(ctx context.Context, hostname string) ([]string, error) {
	if net.ParseIP(hostname) != nil {
		return []string{hostname}, nil
	}
	return d.Resolver.LookupHost(ctx, hostname)
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerResolver) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
	d.Resolver.CloseIdleConnections()
}

// errReduceErrorsEmptyList indicates that we had no errors to reduce,
// which happens when a resolver returns an empty list without an error.
var errReduceErrorsEmptyList = errors.New("netxlite: reduceErrors given an empty list")

// reduceErrors returns the first classified error in the list, if
// any, and otherwise the first error. A classified error is more
// informative than an unknown_failure and, because we attempt IPv4
// first, the first error is less likely to be a missing-IPv6 error.
func reduceErrors(errorslist []error) error {
	if len(errorslist) == 0 {
		return errReduceErrorsEmptyList
	}
	for _, err := range errorslist {
		var wrapper *ErrWrapper
		if errors.As(err, &wrapper) && !strings.HasPrefix(err.Error(), "unknown_failure") {
			return err
		}
	}
	return errorslist[0]
}

// sortIPAddrs sorts IP addresses so that IPv4 appears before IPv6.
func sortIPAddrs(addrs []string) (out []string) {
	isIPv6 := func(x string) bool {
		return strings.Contains(x, ":")
	}
	for _, addr := range addrs {
		if !isIPv6(addr) {
			out = append(out, addr)
		}
	}
	for _, addr := range addrs {
		if isIPv6(addr) {
			out = append(out, addr)
		}
	}
	return
}

// dialerLogger is a Dialer with logging.
type dialerLogger struct {
	// Dialer is the underlying dialer.
	Dialer model.Dialer

	// DebugLogger is the underlying logger.
	DebugLogger model.DebugLogger

	// operationSuffix is appended to the operation name.
	//
	// We use this suffix to distinguish the output from dialing
	// with the output from dialing an IP address, where otherwise
	// both lines would read something like `dial 8.8.8.8:443...`
	operationSuffix string
}

var _ model.Dialer = &dialerLogger{}

// DialContext implements model.Dialer.DialContext
func (d *dialerLogger) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.DebugLogger.Debugf("dial%s %s/%s...", d.operationSuffix, address, network)
	start := time.Now()
	conn, err := d.Dialer.DialContext(ctx, network, address)
	elapsed := time.Since(start)
	if err != nil {
		d.DebugLogger.Debugf("dial%s %s/%s... %s in %s", d.operationSuffix,
			address, network, err, elapsed)
		return nil, err
	}
	d.DebugLogger.Debugf("dial%s %s/%s... ok in %s", d.operationSuffix,
		address, network, elapsed)
	return conn, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerLogger) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}

// dialerErrWrapper is a dialer that performs error wrapping.
type dialerErrWrapper struct {
	Dialer model.Dialer
}

var _ model.Dialer = &dialerErrWrapper{}

// DialContext implements model.Dialer.DialContext.
func (d *dialerErrWrapper) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, NewErrWrapper(ClassifyGenericError, ConnectOperation, err)
	}
	return conn, nil
}

// CloseIdleConnections implements model.Dialer.CloseIdleConnections.
func (d *dialerErrWrapper) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}
