// Package tlsutil builds server and client TLS settings shared by the HTTP and
// gRPC listeners, and mints throwaway certificates for development and tests.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc/credentials"
)

// Files names the PEM files a listener is configured from.
type Files struct {
	CertFile string
	KeyFile  string

	// ClientCAFile turns on mutual TLS when set.
	ClientCAFile string
}

// Enabled reports whether a key pair was configured.
func (f Files) Enabled() bool {
	return f.CertFile != "" && f.KeyFile != ""
}

// ServerConfig loads the key pair and, for mutual TLS, the client CA pool.
func ServerConfig(f Files) (*tls.Config, error) {
	if !f.Enabled() {
		return nil, errors.New("tlsutil: certificate and key files are required")
	}
	pair, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: load key pair %s: %w", f.CertFile, err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}
	if f.ClientCAFile != "" {
		if cfg.ClientCAs, err = readPool(f.ClientCAFile); err != nil {
			return nil, err
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// ServerCredentials wraps ServerConfig for grpc.Creds.
func ServerCredentials(f Files) (credentials.TransportCredentials, error) {
	cfg, err := ServerConfig(f)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(cfg), nil
}

// ClientCredentials trusts caFile, or the system roots when caFile is empty.
func ClientCredentials(caFile string, insecureSkipVerify bool) (credentials.TransportCredentials, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // development only
	}
	if caFile != "" {
		pool, err := readPool(caFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	return credentials.NewTLS(cfg), nil
}

func readPool(path string) (*x509.CertPool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, fmt.Errorf("tlsutil: %s holds no PEM certificates", path)
	}
	return pool, nil
}

// DevCertificates lists the files written by GenerateDevCertificates.
type DevCertificates struct {
	CAFile     string
	ServerCert Files
}

// GenerateDevCertificates writes a private CA and a server certificate for
// hosts, signed by that CA, into dir. Hosts may be DNS names or IP literals.
func GenerateDevCertificates(dir string, hosts ...string) (DevCertificates, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DevCertificates{}, fmt.Errorf("tlsutil: create %s: %w", dir, err)
	}
	now := time.Now()

	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"txshield dev CA"}},
		NotBefore:             now,
		NotAfter:              now.AddDate(5, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caCert, caKey, err := issue(dir, "ca", caTmpl, nil, nil)
	if err != nil {
		return DevCertificates{}, err
	}

	srvTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"txshield dev"}, CommonName: firstOr(hosts, "localhost")},
		NotBefore:    now,
		NotAfter:     now.AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			srvTmpl.IPAddresses = append(srvTmpl.IPAddresses, ip)
			continue
		}
		srvTmpl.DNSNames = append(srvTmpl.DNSNames, h)
	}
	if _, _, err := issue(dir, "server", srvTmpl, caCert, caKey); err != nil {
		return DevCertificates{}, err
	}

	return DevCertificates{
		CAFile: filepath.Join(dir, "ca.pem"),
		ServerCert: Files{
			CertFile: filepath.Join(dir, "server.pem"),
			KeyFile:  filepath.Join(dir, "server-key.pem"),
		},
	}, nil
}

// issue creates a P-256 key, signs tmpl with parent (self-signed when parent
// is nil) and writes <name>.pem and <name>-key.pem.
func issue(dir, name string, tmpl, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: %s key: %w", name, err)
	}
	if parent == nil {
		parent, parentKey = tmpl, key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: sign %s certificate: %w", name, err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: encode %s key: %w", name, err)
	}

	if err := writePEM(filepath.Join(dir, name+".pem"), "CERTIFICATE", der); err != nil {
		return nil, nil, err
	}
	if err := writePEM(filepath.Join(dir, name+"-key.pem"), "EC PRIVATE KEY", keyDER); err != nil {
		return nil, nil, err
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("tlsutil: parse %s certificate: %w", name, err)
	}
	return cert, key, nil
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", path, err)
	}
	return nil
}

func firstOr(s []string, fallback string) string {
	if len(s) > 0 {
		return s[0]
	}
	return fallback
}
