// Package certs supplies the control channel's TLS material: an ephemeral
// self-signed certificate when none is configured, loading a configured
// cert/key pair otherwise, and an optional CA bundle to turn on mutual-TLS
// client verification. Grounded on a self-signed-cert helper,
// generalized with file-loading and ClientCAs for mutual TLS.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"net"
	"os"
	"time"
)

// Load builds the *tls.Config for the control channel. If certFile is
// empty, an ephemeral self-signed certificate is generated; otherwise
// certFile/keyFile are loaded from disk. If caFile is non-empty, it is
// parsed as a PEM bundle and installed as ClientCAs, which control.New
// turns into a mutual-TLS requirement.
func Load(certFile, keyFile, caFile string) (*tls.Config, error) {
	var cert tls.Certificate
	var err error
	if certFile == "" {
		cert, err = selfSigned()
	} else {
		cert, err = fromFiles(certFile, keyFile)
	}
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	if caFile != "" {
		pool, err := loadCAPool(caFile)
		if err != nil {
			return nil, fmt.Errorf("certs: load CA bundle: %w", err)
		}
		cfg.ClientCAs = pool
	}
	return cfg, nil
}

func fromFiles(certFile, keyFile string) (tls.Certificate, error) {
	if keyFile == "" {
		return tls.Certificate{}, fmt.Errorf("certs: -tls-key is required when -tls-cert is set")
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: load key pair: %w", err)
	}
	return cert, nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	pemBytes, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, fmt.Errorf("no certificates parsed from %s", caFile)
	}
	return pool, nil
}

// selfSigned generates an ephemeral ECDSA P-256 certificate valid for one
// year, with SANs covering localhost and every non-loopback interface IP
// so LAN clients can pin it. The SHA-256 fingerprint is logged so a user
// can verify it out of band.
func selfSigned() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: generate key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: generate serial: %w", err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serialNumber,
		NotBefore:             now,
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
				tmpl.IPAddresses = append(tmpl.IPAddresses, ipNet.IP)
			}
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: create certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: marshal key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certs: load generated key pair: %w", err)
	}

	fp := sha256.Sum256(certDER)
	log.Printf("certs: generated self-signed certificate, fingerprint %X", fp)
	return tlsCert, nil
}
