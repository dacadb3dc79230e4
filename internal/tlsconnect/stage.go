package tlsconnect

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"

	"github.com/ooni/connectx/internal/logx"
	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
)

// ErrUnsupportedStream indicates that the inner stage returned a value
// that is neither a [net.Conn] nor a [model.TaggedConn].
var ErrUnsupportedStream = errors.New("tlsconnect: unsupported stream")

// Stage is the TLS handshake stage wrapping an inner stage whose output
// has type T. The zero value is invalid; use [Wrap] to construct.
type Stage[T any] struct {
	inner model.Stage[*url.URL, T]
	layer *Layer
}

var _ model.Stage[*url.URL, model.TLSConn] = &Stage[net.Conn]{}

// Wrap binds the layer to the inner stage.
func Wrap[T any](layer *Layer, inner model.Stage[*url.URL, T]) *Stage[T] {
	return &Stage[T]{
		inner: inner,
		layer: layer,
	}
}

// Ready implements model.Stage by delegating to the inner stage.
func (s *Stage[T]) Ready(ctx context.Context) error {
	if err := s.inner.Ready(ctx); err != nil {
		return netxlite.NewErrWrapper(netxlite.ClassifyGenericError, netxlite.ConnectOperation, err)
	}
	return nil
}

// Call implements model.Stage. We resolve the server name before calling
// the inner stage, so the inner stage performs no I/O when the URL does
// not contain a valid identity.
func (s *Stage[T]) Call(ctx context.Context, u *url.URL) (model.TLSConn, error) {
	s.observe(u, StateIdle)

	name, err := s.layer.resolver.ResolveServerName(u)
	if err != nil {
		return nil, s.fail(u, netxlite.NewErrWrapper(
			classifyServerNameError, netxlite.ResolveServerNameOperation, err))
	}
	s.observe(u, StateIdentityResolved)

	if err := s.Ready(ctx); err != nil {
		return nil, s.fail(u, err)
	}
	stream, err := s.inner.Call(ctx, u)
	if err != nil {
		return nil, s.fail(u, netxlite.NewErrWrapper(
			netxlite.ClassifyGenericError, netxlite.ConnectOperation, err))
	}
	s.observe(u, StateInnerConnected)

	conn, protocols, tagged, err := unwrap(stream)
	if err != nil {
		if closer, good := any(stream).(io.Closer); good {
			closer.Close()
		}
		return nil, s.fail(u, netxlite.NewErrWrapper(
			classifyUnsupportedStream, netxlite.TLSHandshakeOperation, err))
	}
	s.observe(u, StateUnwrapped)

	config := s.layer.configFor(tagged, protocols)
	s.observe(u, StateConfigDerived)

	s.observe(u, StateHandshakeInFlight)
	ol := logx.NewOperationLogger(s.layer.logger,
		"TLSHandshake %s sni=%s alpn=%v", u.Host, name, config.NextProtos)
	tlsConn, err := s.layer.handshaker.Handshake(ctx, conn, config, name.String())
	ol.Stop(err)
	if err != nil {
		conn.Close()
		return nil, s.fail(u, netxlite.NewErrWrapper(
			netxlite.ClassifyTLSHandshakeError, netxlite.TLSHandshakeOperation, err))
	}
	s.observe(u, StateSecured)
	return tlsConn, nil
}

// unwrap extracts the raw conn and the protocols from the inner stage
// output. A tagged conn overrides the base protocols even when its
// protocol list is empty.
func unwrap(stream any) (conn net.Conn, protocols []string, tagged bool, err error) {
	switch value := stream.(type) {
	case model.TaggedConn:
		conn, protocols = value.Untag()
		return conn, protocols, true, nil
	case net.Conn:
		return value, nil, false, nil
	default:
		return nil, nil, false, ErrUnsupportedStream
	}
}

func (s *Stage[T]) observe(u *url.URL, state State) {
	if s.layer.observer != nil {
		s.layer.observer(u, state)
	}
}

func (s *Stage[T]) fail(u *url.URL, err error) error {
	s.observe(u, StateFailed)
	return err
}

func classifyServerNameError(err error) string {
	return netxlite.FailureInvalidServerName
}

func classifyUnsupportedStream(err error) string {
	return netxlite.FailureUnsupportedStream
}
