package testutils

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"testing"
	"time"

	"certgen/pkg/helper/x509x"
)

// CA test certificate authority, key and cert as PEM
type CA struct {
	KeyPEM  []byte
	CertPEM []byte
}

// NewCA generate a self-signed CA usable as issuing authority in tests
func NewCA(t *testing.T, cn string) *CA {
	t.Helper()

	key := Must1(x509x.GenerateRSAKey(2048))

	template := &x509.Certificate{
		SerialNumber: x509x.RandomSerial(),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"certgen test"},
		},
		NotBefore:             time.Now().UTC().Add(-time.Hour),
		NotAfter:              time.Now().UTC().AddDate(10, 0, 0),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}

	derBytes := Must1(x509.CreateCertificate(rand.Reader, template, template, key.Public(), key))
	keyPEM := Must1(x509x.EncodePrivateKeyToPEM(key))

	return &CA{
		KeyPEM:  keyPEM,
		CertPEM: x509x.EncodeCertificateToPEM(derBytes),
	}
}
