package scim

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

const pinPrefix = "sha256//"

// ParsePins splits a ';' separated list of "sha256//<base64>" public key
// pins, the format curl uses for --pinnedpubkey.
func ParsePins(raw string) ([]string, error) {
	var pins []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, pinPrefix) {
			return nil, fmt.Errorf("%w: %q must start with %s", ErrInvalidPin, part, pinPrefix)
		}
		encoded := strings.TrimPrefix(part, pinPrefix)
		digest, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(digest) != sha256.Size {
			return nil, fmt.Errorf("%w: %q is not a base64 sha256 digest", ErrInvalidPin, part)
		}
		pins = append(pins, encoded)
	}
	return pins, nil
}

// PublicKeyPin returns the base64 sha256 digest of a certificate's
// SubjectPublicKeyInfo.
func PublicKeyPin(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// newTLSConfig builds the client TLS settings. When pins are configured the
// pinned key is the trust anchor and chain verification only applies if a
// CA bundle is also given.
func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, ErrIncompleteCert
	}
	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if len(cfg.PinnedPublicKeys) == 0 {
		return tlsConfig, nil
	}

	pins := make(map[string]struct{}, len(cfg.PinnedPublicKeys))
	for _, pin := range cfg.PinnedPublicKeys {
		pins[pin] = struct{}{}
	}

	if cfg.CAFile == "" {
		tlsConfig.InsecureSkipVerify = true
	}
	tlsConfig.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return ErrPinMismatch
		}
		if _, ok := pins[PublicKeyPin(cs.PeerCertificates[0])]; !ok {
			return ErrPinMismatch
		}
		return nil
	}
	return tlsConfig, nil
}
