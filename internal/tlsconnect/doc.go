// Package tlsconnect contains the TLS handshake stage.
//
// A [*Layer] holds the pipeline-scoped state (the base TLS config, the
// handshaker, the server name resolver) and [Wrap] binds it to an
// inner stage producing either a [net.Conn] or a [model.TaggedConn].
//
// The base config is cloned once by [NewLayer] and is then read-only:
// tagged connections handshake using a connection-scoped clone with
// the tagged protocols, untagged ones share the base pointer.
//
// Every error returned by a [*Stage] is a [*netxlite.ErrWrapper].
package tlsconnect
