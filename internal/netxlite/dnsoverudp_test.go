package netxlite

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
	"github.com/ooni/connectx/internal/model"
)

// startDNSServer starts a DNS-over-UDP server on loopback using the
// given handler and returns its endpoint and a function to stop it.
func startDNSServer(t *testing.T, handler dns.HandlerFunc) (string, func()) {
	pconn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pconn,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go server.ActivateAndServe()
	<-started
	return pconn.LocalAddr().String(), func() { server.Shutdown() }
}

// dnsHandlerWithRecords answers every query using the given records.
func dnsHandlerWithRecords(rcode int, ipv4, ipv6 []string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, query *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetRcode(query, rcode)
		q := query.Question[0]
		switch q.Qtype {
		case dns.TypeA:
			for _, addr := range ipv4 {
				resp.Answer = append(resp.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
					A:   net.ParseIP(addr),
				})
			}
		case dns.TypeAAAA:
			for _, addr := range ipv6 {
				resp.Answer = append(resp.Answer, &dns.AAAA{
					Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 60},
					AAAA: net.ParseIP(addr),
				})
			}
		}
		w.WriteMsg(resp)
	}
}

func TestResolverUDP(t *testing.T) {
	t.Run("Network and Address", func(t *testing.T) {
		r := newResolverUDP("8.8.8.8:53")
		if r.Network() != "udp" {
			t.Fatal("invalid Network")
		}
		if r.Address() != "8.8.8.8:53" {
			t.Fatal("invalid Address")
		}
		r.CloseIdleConnections() // should not crash
	})

	t.Run("LookupHost with A and AAAA records", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(
			dns.RcodeSuccess, []string{"8.8.8.8", "8.8.4.4"}, []string{"2001:4860:4860::8888"}))
		defer stop()
		r := newResolverUDP(endpoint)
		addrs, err := r.LookupHost(context.Background(), "dns.google")
		if err != nil {
			t.Fatal(err)
		}
		expected := []string{"8.8.8.8", "8.8.4.4", "2001:4860:4860::8888"}
		if diff := cmp.Diff(expected, addrs); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("LookupHost with only A records", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(
			dns.RcodeSuccess, []string{"8.8.8.8"}, nil))
		defer stop()
		r := newResolverUDP(endpoint)
		addrs, err := r.LookupHost(context.Background(), "dns.google")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"8.8.8.8"}, addrs); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("LookupHost with NXDOMAIN", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(dns.RcodeNameError, nil, nil))
		defer stop()
		r := newResolverUDP(endpoint)
		_, err := r.LookupHost(context.Background(), "antani.ooni.io")
		if !errors.Is(err, ErrOODNSNoSuchHost) {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("LookupHost with refused", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(dns.RcodeRefused, nil, nil))
		defer stop()
		r := newResolverUDP(endpoint)
		_, err := r.LookupHost(context.Background(), "dns.google")
		if !errors.Is(err, ErrOODNSRefused) {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("LookupHost with no answer", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(dns.RcodeSuccess, nil, nil))
		defer stop()
		r := newResolverUDP(endpoint)
		_, err := r.LookupHost(context.Background(), "dns.google")
		if !errors.Is(err, ErrOODNSNoAnswer) {
			t.Fatal("unexpected err", err)
		}
	})

	t.Run("LookupHost with canceled context", func(t *testing.T) {
		endpoint, stop := startDNSServer(t, func(w dns.ResponseWriter, query *dns.Msg) {
			// never reply
		})
		defer stop()
		r := newResolverUDP(endpoint)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := r.LookupHost(ctx, "dns.google"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestNewResolverUDP(t *testing.T) {
	endpoint, stop := startDNSServer(t, dnsHandlerWithRecords(dns.RcodeNameError, nil, nil))
	defer stop()
	r := NewResolverUDP(model.DiscardLogger, endpoint)
	if r.Network() != "udp" || r.Address() != endpoint {
		t.Fatal("unexpected Network or Address")
	}
	_, err := r.LookupHost(context.Background(), "antani.ooni.io")
	var ew *ErrWrapper
	if !errors.As(err, &ew) {
		t.Fatal("not an ErrWrapper", err)
	}
	if ew.Failure != FailureDNSNXDOMAINError || ew.Operation != ResolveOperation {
		t.Fatal("unexpected wrapper", ew.Failure, ew.Operation)
	}
}
