package testingx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/ooni/connectx/internal/runtimex"
)

// TLSCA is an ephemeral certificate authority issuing leaf
// certificates on the fly for test servers.
type TLSCA struct {
	cert  *x509.Certificate
	key   *ecdsa.PrivateKey
	mu    sync.Mutex
	cache map[string]*tls.Certificate
}

// MustNewTLSCA creates a new [*TLSCA] or panics.
func MustNewTLSCA() *TLSCA {
	key := runtimex.Try1(ecdsa.GenerateKey(elliptic.P256(), rand.Reader))
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "connectx testing CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der := runtimex.Try1(x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key))
	cert := runtimex.Try1(x509.ParseCertificate(der))
	return &TLSCA{
		cert:  cert,
		key:   key,
		cache: map[string]*tls.Certificate{},
	}
}

// CACert returns the CA certificate.
func (ca *TLSCA) CACert() *x509.Certificate {
	return ca.cert
}

// CACertPEM returns the PEM encoding of the CA certificate.
func (ca *TLSCA) CACertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.cert.Raw})
}

// CertPool returns a new [*x509.CertPool] trusting only this CA.
func (ca *TLSCA) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(ca.cert)
	return pool
}

// MustNewLeafCertificate returns a leaf certificate valid for the given
// name, which is either a domain name or an IP address. Certificates are
// cached by name.
func (ca *TLSCA) MustNewLeafCertificate(name string) *tls.Certificate {
	defer ca.mu.Unlock()
	ca.mu.Lock()
	if cert, found := ca.cache[name]; found {
		return cert
	}
	key := runtimex.Try1(ecdsa.GenerateKey(elliptic.P256(), rand.Reader))
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: name},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	if ip := net.ParseIP(name); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{name}
	}
	der := runtimex.Try1(x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key))
	cert := &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
	ca.cache[name] = cert
	return cert
}
