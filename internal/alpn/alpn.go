// Package alpn contains the pipeline stage that tags a raw connection
// with the list of ALPN protocols the TLS handshake should advertise.
package alpn

import (
	"context"
	"net"
	"net/url"
	"slices"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/runtimex"
)

// Tagged is a raw connection paired with the ALPN protocols.
type Tagged struct {
	// Conn is the raw connection.
	Conn net.Conn

	// Protocols contains the ALPN protocols in preference order.
	Protocols []string
}

var _ model.TaggedConn = &Tagged{}

// Untag implements model.TaggedConn.
func (t *Tagged) Untag() (net.Conn, []string) {
	return t.Conn, t.Protocols
}

// Layer is a reusable factory for [*Stage] instances sharing
// the same list of protocols.
type Layer struct {
	protocols []string
}

// NewLayer creates a new [*Layer]. This function panics if the list
// of protocols is empty, which is a programming error.
func NewLayer(protocols ...string) *Layer {
	runtimex.Assert(len(protocols) > 0, "alpn: empty protocols list")
	return &Layer{protocols: slices.Clone(protocols)}
}

// Protocols returns a copy of the configured protocols.
func (l *Layer) Protocols() []string {
	return slices.Clone(l.protocols)
}

// Wrap returns a [*Stage] that tags the connections returned by inner.
func (l *Layer) Wrap(inner model.Stage[*url.URL, net.Conn]) *Stage {
	return &Stage{inner: inner, protocols: l.protocols}
}

// Stage tags the connections returned by the inner stage. It
// performs no I/O and is safe for concurrent use.
type Stage struct {
	inner     model.Stage[*url.URL, net.Conn]
	protocols []string
}

var _ model.Stage[*url.URL, *Tagged] = &Stage{}

// Ready implements model.Stage.
func (s *Stage) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

// Call implements model.Stage. Errors from the inner stage propagate
// unchanged. Each tagged connection owns its copy of the protocols.
func (s *Stage) Call(ctx context.Context, u *url.URL) (*Tagged, error) {
	conn, err := s.inner.Call(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Tagged{Conn: conn, Protocols: slices.Clone(s.protocols)}, nil
}
