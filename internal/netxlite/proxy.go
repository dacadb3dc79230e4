package netxlite

//
// Optional proxy support
//

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/ooni/connectx/internal/model"
	"golang.org/x/net/proxy"
)

// ErrProxyUnsupportedScheme indicates we don't support the proxy scheme.
var ErrProxyUnsupportedScheme = errors.New("proxy: unsupported scheme")

// NewProxyDialer returns a dialer that connects through the SOCKS5
// proxy at proxyURL, using dialer to reach the proxy itself.
//
// The returned dialer does not support contexts, so you should use
// it through a substrate that knows how to run blocking dialers.
func NewProxyDialer(proxyURL *url.URL, dialer model.Dialer) (model.LegacyDialer, error) {
	switch proxyURL.Scheme {
	case "socks5", "socks5h":
	default:
		return nil, ErrProxyUnsupportedScheme
	}
	return proxy.FromURL(proxyURL, &proxyDialerWrapper{dialer})
}

// proxyDialerWrapper is required because SOCKS5 expects a Dialer.Dial type but internally
// it checks whether DialContext is available and prefers that. So, we need to use this
// structure to cast our inner Dialer the way in which SOCKS5 likes it.
type proxyDialerWrapper struct {
	model.Dialer
}

var (
	_ proxy.Dialer        = &proxyDialerWrapper{}
	_ proxy.ContextDialer = &proxyDialerWrapper{}
)

// Dial implements proxy.Dialer.
func (d *proxyDialerWrapper) Dial(network, address string) (net.Conn, error) {
	return d.Dialer.DialContext(context.Background(), network, address)
}
