package tcpconnect

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewTarget(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect Target
		err    error
	}{{
		name:   "https without port",
		input:  "https://example.com/",
		expect: Target{Host: "example.com", Port: 443},
	}, {
		name:   "http without port",
		input:  "http://example.com/",
		expect: Target{Host: "example.com", Port: 80},
	}, {
		name:   "other scheme without port",
		input:  "ftp://example.com/",
		expect: Target{Host: "example.com", Port: 80},
	}, {
		name:   "explicit port wins",
		input:  "http://example.com:8080/",
		expect: Target{Host: "example.com", Port: 8080},
	}, {
		name:   "explicit port wins with https",
		input:  "https://example.com:8443/",
		expect: Target{Host: "example.com", Port: 8443},
	}, {
		name:   "IPv6 literal",
		input:  "https://[::1]:4443/",
		expect: Target{Host: "::1", Port: 4443},
	}, {
		name:  "missing host",
		input: "/just/a/path",
		err:   ErrInvalidTarget,
	}, {
		name:  "port out of range",
		input: "https://example.com:65536/",
		err:   ErrInvalidTarget,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			target, err := NewTarget(u)
			if !errors.Is(err, tt.err) {
				t.Fatal("unexpected err", err)
			}
			if diff := cmp.Diff(tt.expect, target); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestTargetAddress(t *testing.T) {
	if addr := (Target{Host: "::1", Port: 443}).Address(); addr != "[::1]:443" {
		t.Fatal("unexpected address", addr)
	}
	if addr := (Target{Host: "example.com", Port: 80}).String(); addr != "example.com:80" {
		t.Fatal("unexpected address", addr)
	}
}
