package netxlite

//
// DNS-over-UDP resolver
//

import (
	"context"
	"errors"
	"time"

	"github.com/miekg/dns"
	"github.com/ooni/connectx/internal/model"
)

// resolverUDP sends A and AAAA queries over UDP to a given server.
type resolverUDP struct {
	// address is the server endpoint (e.g., 8.8.8.8:53).
	address string

	// client is the miekg/dns client.
	client *dns.Client
}

var _ model.Resolver = &resolverUDP{}

// newResolverUDP creates a new resolverUDP for the given address.
func newResolverUDP(address string) *resolverUDP {
	return &resolverUDP{
		address: address,
		client: &dns.Client{
			Net: "udp",
			// Use five seconds timeout like Bionic does.
			Timeout: 5 * time.Second,
		},
	}
}

// LookupHost implements model.Resolver.LookupHost. We send the A query
// first and stop early if the domain does not exist. Otherwise we also
// send the AAAA query and merge the results.
func (r *resolverUDP) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	addrsA, errA := r.lookup(ctx, hostname, dns.TypeA)
	if errors.Is(errA, ErrOODNSNoSuchHost) {
		return nil, errA
	}
	addrsAAAA, errAAAA := r.lookup(ctx, hostname, dns.TypeAAAA)
	if errA != nil && errAAAA != nil {
		return nil, errA
	}
	addrs := append(addrsA, addrsAAAA...)
	if len(addrs) <= 0 {
		return nil, ErrOODNSNoAnswer
	}
	return addrs, nil
}

// lookup sends a single query and decodes the response.
func (r *resolverUDP) lookup(ctx context.Context, hostname string, qtype uint16) ([]string, error) {
	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(hostname), qtype)
	query.RecursionDesired = true
	resp, _, err := r.client.ExchangeContext(ctx, query, r.address)
	if err != nil {
		return nil, err
	}
	if err := rcodeToError(resp); err != nil {
		return nil, err
	}
	var addrs []string
	for _, answer := range resp.Answer {
		switch rr := answer.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				addrs = append(addrs, rr.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}
	if len(addrs) <= 0 {
		return nil, ErrOODNSNoAnswer
	}
	return addrs, nil
}

// rcodeToError maps the response code to an error.
func rcodeToError(resp *dns.Msg) error {
	if !resp.Response {
		return ErrOODNSMisbehaving
	}
	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNameError:
		return ErrOODNSNoSuchHost
	case dns.RcodeRefused:
		return ErrOODNSRefused
	case dns.RcodeServerFailure:
		return ErrOODNSServfail
	default:
		return ErrOODNSMisbehaving
	}
}

// Network implements model.Resolver.Network.
func (r *resolverUDP) Network() string {
	return "udp"
}

// Address implements model.Resolver.Address.
func (r *resolverUDP) Address() string {
	return r.address
}

// CloseIdleConnections implements model.Resolver.CloseIdleConnections.
func (r *resolverUDP) CloseIdleConnections() {
	// nothing to do
}
