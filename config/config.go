// Package config contains the connectx configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ooni/connectx/internal/hujsonx"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/ooni/connectx/internal/servername"
	"github.com/pkg/errors"
)

// ReadConfig reads the configuration from the path. The file uses the
// HuJSON format, i.e., JSON with comments and trailing commas.
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig returns the config from HuJSON bytes. Fields missing
// from the input get their default value.
func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := hujsonx.Unmarshal(b, c); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating")
	}
	return c, nil
}

// Fingerprint names accepted by the config.
const (
	FingerprintStdlib     = "stdlib"
	FingerprintChrome     = "chrome"
	FingerprintFirefox    = "firefox"
	FingerprintRandomized = "randomized"
)

// Config describes how to build a connection pipeline.
type Config struct {
	// Comment is ignored and allows to document the config file.
	Comment string `json:"_"`

	// ALPN contains the protocols to negotiate. When empty, we do not
	// tag connections and the handshake uses the base config protocols.
	ALPN []string `json:"alpn"`

	// CAFile is the OPTIONAL PEM file containing the trusted CAs. When
	// empty, we use the system trust store.
	CAFile string `json:"ca_file"`

	// ServerName OPTIONALLY overrides the server name derived from the URL.
	ServerName string `json:"server_name"`

	// ProxyURL is the OPTIONAL socks5:// or socks5h:// proxy URL.
	ProxyURL string `json:"proxy_url"`

	// DNSServer is the OPTIONAL DNS-over-UDP server endpoint. When
	// empty, we use the system resolver.
	DNSServer string `json:"dns_server"`

	// Fingerprint selects the TLS ClientHello fingerprint.
	Fingerprint string `json:"fingerprint"`

	// MinTLSVersion is the OPTIONAL minimum TLS version (e.g., TLSv1.2).
	MinTLSVersion string `json:"min_tls_version"`

	// Timeout bounds each connection attempt. Zero means no timeout.
	Timeout Duration `json:"timeout"`

	// Parallelism is the number of concurrent connection attempts.
	Parallelism int `json:"parallelism"`
}

// Duration is a time.Duration serialized as a Go duration string.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	value, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(value)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the default config.
func Default() *Config {
	return &Config{
		ALPN:        []string{"http/1.1"},
		Fingerprint: FingerprintStdlib,
		Timeout:     Duration(30 * time.Second),
		Parallelism: 4,
	}
}

// Errors returned by Validate.
var (
	ErrEmptyALPN           = errors.New("config: empty ALPN protocol")
	ErrUnknownFingerprint  = errors.New("config: unknown fingerprint")
	ErrNegativeTimeout     = errors.New("config: negative timeout")
	ErrNegativeParallelism = errors.New("config: negative parallelism")
	ErrProxyAndDNSServer   = errors.New("config: proxy_url and dns_server are mutually exclusive")
	ErrFingerprintVersion  = errors.New("config: min_tls_version requires the stdlib fingerprint")
)

// Validate returns an error if the config is not valid.
func (c *Config) Validate() error {
	for _, proto := range c.ALPN {
		if proto == "" {
			return ErrEmptyALPN
		}
	}
	if c.ServerName != "" {
		if _, err := servername.Parse(c.ServerName); err != nil {
			return errors.Wrap(err, "server_name")
		}
	}
	if c.ProxyURL != "" {
		if _, err := c.ParseProxyURL(); err != nil {
			return err
		}
		if c.DNSServer != "" {
			return ErrProxyAndDNSServer
		}
	}
	if c.DNSServer != "" {
		if _, _, err := net.SplitHostPort(c.DNSServer); err != nil {
			return errors.Wrap(err, "dns_server")
		}
	}
	switch c.Fingerprint {
	case "", FingerprintStdlib:
	case FingerprintChrome, FingerprintFirefox, FingerprintRandomized:
		if c.MinTLSVersion != "" {
			return ErrFingerprintVersion
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFingerprint, c.Fingerprint)
	}
	if _, err := netxlite.ParseTLSVersion(c.MinTLSVersion); err != nil {
		return errors.Wrap(err, "min_tls_version")
	}
	if c.Timeout < 0 {
		return ErrNegativeTimeout
	}
	if c.Parallelism < 0 {
		return ErrNegativeParallelism
	}
	return nil
}

// ParseProxyURL parses the proxy URL and checks its scheme.
func (c *Config) ParseProxyURL() (*url.URL, error) {
	u, err := url.Parse(c.ProxyURL)
	if err != nil {
		return nil, errors.Wrap(err, "proxy_url")
	}
	switch u.Scheme {
	case "socks5", "socks5h":
		return u, nil
	default:
		return nil, errors.Wrapf(netxlite.ErrProxyUnsupportedScheme, "proxy_url: %s", u.Scheme)
	}
}
