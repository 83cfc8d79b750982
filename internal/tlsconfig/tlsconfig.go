// Package tlsconfig builds crypto/tls configuration for the connection
// substrate. TLS primitives themselves stay an external collaborator
// (crypto/tls) — this package only assembles the tls.Config the dialer
// hands to tls.Client.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// Files describes the certificate material a caller may supply.
type Files struct {
	InsecureSkipVerify bool
	RootCAs            []string
	ClientCert         string
	ClientKey          string
}

// Build constructs a *tls.Config for dialing host with SNI set to host.
// System roots are used unless custom RootCAs are supplied.
func Build(host string, cfg Files) (*tls.Config, error) {
	tc := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: cfg.InsecureSkipVerify, // nolint:gosec
	}

	if len(cfg.RootCAs) > 0 {
		pool, err := loadRootCAs(cfg.RootCAs)
		if err != nil {
			return nil, err
		}
		tc.RootCAs = pool
	}

	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		if cfg.ClientCert == "" || cfg.ClientKey == "" {
			return nil, httperr.New(httperr.CodeTLSHandshake, "client certificate and key must both be set")
		}
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, httperr.Wrap(httperr.CodeTLSHandshake, err, "load client certificate")
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	return tc, nil
}

func loadRootCAs(paths []string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, httperr.Wrap(httperr.CodeTLSHandshake, err, "read root ca %s", p)
		}
		if ok := pool.AppendCertsFromPEM(data); !ok {
			return nil, httperr.New(httperr.CodeTLSHandshake, "append cert from %s", p)
		}
	}
	return pool, nil
}
