// Package connector assembles a connection pipeline from a [*config.Config].
package connector

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/url"
	"time"

	"github.com/ooni/connectx/config"
	"github.com/ooni/connectx/internal/alpn"
	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/ooni/connectx/internal/servername"
	"github.com/ooni/connectx/internal/stagex"
	"github.com/ooni/connectx/internal/tcpconnect"
	"github.com/ooni/connectx/internal/tlsconnect"
)

// Stage is the type of the pipeline returned by [New].
type Stage = model.Stage[*url.URL, model.TLSConn]

// Options contains OPTIONAL settings for [New].
type Options struct {
	// Metrics OPTIONALLY records the outcome of the tcp and tls stages.
	Metrics *stagex.Metrics

	// Observer OPTIONALLY observes the tls stage state transitions.
	Observer tlsconnect.Observer
}

// New builds the pipeline described by cfg, which must be valid:
//
//	timeout(tls(alpn(tcp)))
//
// where the alpn stage only exists when cfg.ALPN is not empty.
func New(cfg *config.Config, logger model.Logger, options *Options) (Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if options == nil {
		options = &Options{}
	}
	logger = model.ValidLoggerOrDefault(logger)

	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	substrate, err := newSubstrate(cfg, logger)
	if err != nil {
		return nil, err
	}
	handshaker, err := newHandshaker(cfg, logger)
	if err != nil {
		return nil, err
	}
	layerOptions := []tlsconnect.Option{tlsconnect.WithObserver(options.Observer)}
	if cfg.ServerName != "" {
		name, err := servername.Parse(cfg.ServerName)
		if err != nil {
			return nil, err
		}
		layerOptions = append(layerOptions, tlsconnect.WithResolver(servername.Static{Name: name}))
	}
	layer := tlsconnect.NewLayer(tlsConfig, handshaker, logger, layerOptions...)

	var tcp model.Stage[*url.URL, net.Conn] = tcpconnect.New(substrate, logger)
	if options.Metrics != nil {
		tcp = stagex.WithMetrics(tcp, options.Metrics, "tcp")
	}

	var stage Stage
	if len(cfg.ALPN) > 0 {
		stage = tlsconnect.Wrap(layer, alpn.NewLayer(cfg.ALPN...).Wrap(tcp))
	} else {
		stage = tlsconnect.Wrap(layer, tcp)
	}
	if options.Metrics != nil {
		stage = stagex.WithMetrics(stage, options.Metrics, "tls")
	}
	return stagex.WithTimeout(stage, time.Duration(cfg.Timeout)), nil
}

// newTLSConfig creates the base TLS config.
func newTLSConfig(cfg *config.Config) (*tls.Config, error) {
	var (
		pool *x509.CertPool
		err  error
	)
	if cfg.CAFile != "" {
		pool, err = netxlite.NewCertPoolFromPEMFile(cfg.CAFile)
	} else {
		pool, err = netxlite.NewSystemCertPool()
	}
	if err != nil {
		return nil, err
	}
	version, err := netxlite.ParseTLSVersion(cfg.MinTLSVersion)
	if err != nil {
		return nil, err
	}
	return &tls.Config{RootCAs: pool, MinVersion: version}, nil
}

// newSubstrate creates the TCP connect substrate. With a proxy, we use
// the background substrate, since proxy dialers do not support contexts.
func newSubstrate(cfg *config.Config, logger model.Logger) (tcpconnect.Connect, error) {
	if cfg.ProxyURL != "" {
		proxyURL, err := cfg.ParseProxyURL()
		if err != nil {
			return nil, err
		}
		dialer := netxlite.NewDialerWithResolver(logger, netxlite.NewResolverStdlib(logger))
		proxyDialer, err := netxlite.NewProxyDialer(proxyURL, dialer)
		if err != nil {
			return nil, err
		}
		return tcpconnect.NewBackground(logger, proxyDialer), nil
	}
	var resolver model.Resolver
	if cfg.DNSServer != "" {
		resolver = netxlite.NewResolverUDP(logger, cfg.DNSServer)
	}
	return tcpconnect.NewSystem(logger, resolver), nil
}

// newHandshaker creates the TLS handshaker for the configured fingerprint.
func newHandshaker(cfg *config.Config, logger model.Logger) (model.TLSHandshaker, error) {
	switch cfg.Fingerprint {
	case "", config.FingerprintStdlib:
		return netxlite.NewTLSHandshakerStdlib(logger), nil
	default:
		id, err := netxlite.ClientHelloIDByName(cfg.Fingerprint)
		if err != nil {
			return nil, err
		}
		return netxlite.NewTLSHandshakerUTLS(logger, id), nil
	}
}
