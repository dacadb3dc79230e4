// Package servername derives the TLS server identity from a URL.
package servername

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"
)

// Name is the identity of a TLS server: either a canonical domain
// name (lowercase ASCII, with IDNA labels in punycode) or an IP
// address. The zero value is invalid.
type Name struct {
	domain string
	addr   netip.Addr
}

// ErrEmptyName indicates that we cannot build a [Name] from an empty string.
var ErrEmptyName = errors.New("servername: empty name")

// ErrInvalidDNSName indicates that a string is not a valid domain name.
var ErrInvalidDNSName = errors.New("servername: invalid DNS name")

// Parse returns the [Name] corresponding to host, which must be either
// an IP address without brackets or a domain name.
func Parse(host string) (Name, error) {
	if host == "" {
		return Name{}, ErrEmptyName
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" {
			return Name{}, fmt.Errorf("%w: IPv6 zones are not allowed", ErrInvalidDNSName)
		}
		return Name{addr: addr}, nil
	}
	domain, err := lookupProfile.ToASCII(host)
	if err != nil {
		return Name{}, err
	}
	if err := checkDNSName(domain); err != nil {
		return Name{}, err
	}
	return Name{domain: domain}, nil
}

// lookupProfile is like idna.Lookup without the STD3 rules, which would
// reject underscores (e.g., _dmarc.example.com). We check the ASCII
// form ourselves with checkDNSName.
var lookupProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
	idna.Transitional(false),
)

// checkDNSName enforces the RFC 1035 length limits and only allows
// letters, digits, hyphens, and underscores inside labels.
func checkDNSName(domain string) error {
	trimmed := strings.TrimSuffix(domain, ".")
	if trimmed == "" || len(trimmed) > 253 {
		return ErrInvalidDNSName
	}
	for _, label := range strings.Split(trimmed, ".") {
		if label == "" || len(label) > 63 {
			return ErrInvalidDNSName
		}
		for _, c := range label {
			if !isLabelRune(c) {
				return fmt.Errorf("%w: invalid character %q", ErrInvalidDNSName, c)
			}
		}
	}
	return nil
}

func isLabelRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// IsIP returns whether the name is an IP address.
func (n Name) IsIP() bool {
	return n.addr.IsValid()
}

// IP returns the IP address, which is only valid when IsIP is true.
func (n Name) IP() netip.Addr {
	return n.addr
}

// String returns the domain name or the IP address without brackets.
func (n Name) String() string {
	if n.addr.IsValid() {
		return n.addr.String()
	}
	return n.domain
}
