package netxlite

//
// Trust stores
//

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertificates indicates that a PEM file contained no certificates.
var ErrNoCertificates = errors.New("netxlite: no certificates in PEM file")

// NewCertPoolFromPEMFile returns a new *x509.CertPool containing all
// the certificates inside the given PEM file.
func NewCertPoolFromPEMFile(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewCertPoolFromPEM(data)
}

// NewCertPoolFromPEM is like NewCertPoolFromPEMFile but reads the
// PEM encoded certificates from memory.
func NewCertPoolFromPEM(data []byte) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, ErrNoCertificates
	}
	return pool, nil
}

// NewSystemCertPool returns a copy of the system's trust store.
func NewSystemCertPool() (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("netxlite: cannot load system roots: %w", err)
	}
	return pool, nil
}
