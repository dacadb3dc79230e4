package tlsconnect

import (
	"crypto/tls"
	"slices"

	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/runtimex"
	"github.com/ooni/connectx/internal/servername"
)

// Layer contains the pipeline-scoped state of the TLS stage. The zero
// value is invalid; use [NewLayer] or [NewLayerWithResolver].
//
// A Layer is immutable after construction and safe for concurrent use.
type Layer struct {
	config     *tls.Config
	handshaker model.TLSHandshaker
	logger     model.Logger
	observer   Observer
	resolver   servername.Resolver
}

// Option is an option for [NewLayer].
type Option func(l *Layer)

// WithResolver overrides the default [servername.Resolver].
func WithResolver(resolver servername.Resolver) Option {
	return func(l *Layer) {
		runtimex.PanicIfNil(resolver, "tlsconnect: nil resolver")
		l.resolver = resolver
	}
}

// WithObserver registers an [Observer] for state transitions.
func WithObserver(observer Observer) Option {
	return func(l *Layer) {
		l.observer = observer
	}
}

// NewLayer creates a new [*Layer]. We clone the config, so that changes
// made by the caller after this function returns do not affect us. A nil
// config is equivalent to an empty one. Unless [WithResolver] is used,
// the server name comes from [servername.Default].
func NewLayer(config *tls.Config, handshaker model.TLSHandshaker,
	logger model.Logger, options ...Option) *Layer {
	runtimex.PanicIfNil(handshaker, "tlsconnect: nil handshaker")
	if config == nil {
		config = &tls.Config{}
	}
	config = config.Clone()
	config.NextProtos = slices.Clone(config.NextProtos) // Clone is shallow
	l := &Layer{
		config:     config,
		handshaker: handshaker,
		logger:     model.ValidLoggerOrDefault(logger),
		observer:   nil,
		resolver:   servername.Default{},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// NewLayerWithResolver is like [NewLayer] with an explicit resolver.
func NewLayerWithResolver(config *tls.Config, handshaker model.TLSHandshaker,
	logger model.Logger, resolver servername.Resolver, options ...Option) *Layer {
	return NewLayer(config, handshaker, logger, append([]Option{WithResolver(resolver)}, options...)...)
}

// BaseConfig returns a copy of the base config.
func (l *Layer) BaseConfig() *tls.Config {
	return l.config.Clone()
}

// configFor returns the config to use for a conn. Untagged conns share
// the base config. Tagged conns get a clone advertising their protocols.
func (l *Layer) configFor(tagged bool, protocols []string) *tls.Config {
	if !tagged {
		return l.config
	}
	config := l.config.Clone()
	config.NextProtos = protocols
	return config
}
