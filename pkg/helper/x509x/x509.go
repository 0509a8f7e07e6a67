package x509x

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/whitekid/goxp/fx"
)

const (
	CertificatePEMBlockType     = "CERTIFICATE"
	CsrPEMBlockType             = "CERTIFICATE REQUEST"
	RsaPrivateKeyPEMBlockType   = "RSA PRIVATE KEY"
	EcdsaPrivateKeyPEMBlockType = "EC PRIVATE KEY"
	Pkcs8PrivateKeyPEMBlockType = "PRIVATE KEY"

	pemPrefix = "-----BEGIN "
)

var (
	pemPrefixCertificate     = []byte(pemPrefix + CertificatePEMBlockType)
	pemPrefixCSR             = []byte(pemPrefix + CsrPEMBlockType)
	pemPrefixRsaPrivateKey   = []byte(pemPrefix + RsaPrivateKeyPEMBlockType)
	pemPrefixEcdsaPrivateKey = []byte(pemPrefix + EcdsaPrivateKeyPEMBlockType)
	pemPrefixPkcs8PrivateKey = []byte(pemPrefix + Pkcs8PrivateKeyPEMBlockType)
)

var randReader = rand.Reader

// ParseCertificate parse x509 certificate PEM block or DER bytes
func ParseCertificate(certBytes []byte) (*x509.Certificate, error) {
	if bytes.HasPrefix(certBytes, pemPrefixCertificate) {
		p, _ := pem.Decode(certBytes)
		if p == nil {
			return nil, errors.New("invalid PEM")
		}

		certBytes = p.Bytes
	}

	return x509.ParseCertificate(certBytes)
}

// ParseCSR parse x509 CSR PEM block or DER bytes
func ParseCSR(csrBytes []byte) (*x509.CertificateRequest, error) {
	if bytes.HasPrefix(csrBytes, pemPrefixCSR) {
		p, _ := pem.Decode(csrBytes)
		if p == nil {
			return nil, errors.New("invalid PEM")
		}

		csrBytes = p.Bytes
	}

	return x509.ParseCertificateRequest(csrBytes)
}

// PrivateKey private key that can also sign
type PrivateKey interface {
	crypto.PrivateKey
	crypto.Signer
}

// GenerateRSAKey generate RSA key pair of the requested bit size
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(randReader, bits)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to generate %d bits rsa key", bits)
	}

	return key, nil
}

// ParsePrivateKey parse pem formatted private key
func ParsePrivateKey(keyPemBytes []byte) (PrivateKey, error) {
	p, _ := pem.Decode(keyPemBytes)
	if p == nil {
		return nil, errors.New("invalid PEM")
	}

	var key PrivateKey
	var err error
	switch {
	case bytes.HasPrefix(keyPemBytes, pemPrefixRsaPrivateKey):
		key, err = x509.ParsePKCS1PrivateKey(p.Bytes)

	case bytes.HasPrefix(keyPemBytes, pemPrefixEcdsaPrivateKey):
		key, err = x509.ParseECPrivateKey(p.Bytes)

	case bytes.HasPrefix(keyPemBytes, pemPrefixPkcs8PrivateKey):
		var parsed any
		parsed, err = x509.ParsePKCS8PrivateKey(p.Bytes)
		if err == nil {
			var ok bool
			if key, ok = parsed.(PrivateKey); !ok {
				return nil, errors.Errorf("unsupported pkcs8 key: %T", parsed)
			}
		}

	default:
		return nil, errors.New("unknown pem type")
	}

	if err != nil {
		return nil, errors.Wrap(err, "fail to parse private key")
	}
	return key, nil
}

// SignatureAlgorithm map digest name to RSA signature algorithm
func SignatureAlgorithm(digest string) (x509.SignatureAlgorithm, error) {
	switch strings.ToLower(digest) {
	case "", "sha256":
		return x509.SHA256WithRSA, nil
	case "sha384":
		return x509.SHA384WithRSA, nil
	case "sha512":
		return x509.SHA512WithRSA, nil
	default:
		return x509.UnknownSignatureAlgorithm, errors.Errorf("unsupported digest: %s", digest)
	}
}

// SignatureAlgorithmFor digest paired with the given signer key family
func SignatureAlgorithmFor(key PrivateKey, digest string) (x509.SignatureAlgorithm, error) {
	switch key.(type) {
	case *rsa.PrivateKey:
		return SignatureAlgorithm(digest)
	case *ecdsa.PrivateKey:
		switch strings.ToLower(digest) {
		case "", "sha256":
			return x509.ECDSAWithSHA256, nil
		case "sha384":
			return x509.ECDSAWithSHA384, nil
		case "sha512":
			return x509.ECDSAWithSHA512, nil
		default:
			return x509.UnknownSignatureAlgorithm, errors.Errorf("unsupported digest: %s", digest)
		}
	default:
		return x509.UnknownSignatureAlgorithm, errors.Errorf("unsupported signer key: %T", key)
	}
}

// CreateCertificateRequest create CSR signed by privateKey, returns DER and PEM
func CreateCertificateRequest(template *x509.CertificateRequest, privateKey PrivateKey) (derBytes []byte, pemBytes []byte, err error) {
	derBytes, err = x509.CreateCertificateRequest(randReader, template, privateKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fail to create certificate request")
	}

	return derBytes, pem.EncodeToMemory(&pem.Block{
		Type:  CsrPEMBlockType,
		Bytes: derBytes,
	}), nil
}

func EncodeCertificateToPEM(derBytes []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  CertificatePEMBlockType,
		Bytes: derBytes,
	})
}

func EncodePrivateKeyToPEM(privateKey PrivateKey) ([]byte, error) {
	var pemType string
	var keyBytes []byte

	switch key := privateKey.(type) {
	case *rsa.PrivateKey:
		pemType = RsaPrivateKeyPEMBlockType
		keyBytes = x509.MarshalPKCS1PrivateKey(key)
	case *ecdsa.PrivateKey:
		pemType = EcdsaPrivateKeyPEMBlockType
		derBytes, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, errors.Wrap(err, "fail to encode private key")
		}
		keyBytes = derBytes
	default:
		return nil, errors.Errorf("unsupported private key: %T", privateKey)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  pemType,
		Bytes: keyBytes,
	}), nil
}

// SubjectKeyID RFC 5280 4.2.1.2 method 1: SHA-1 of the subject public key bit string
func SubjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	spki, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, errors.Wrap(err, "fail to compute subject key id")
	}

	var info struct {
		Algorithm asn1.RawValue
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(spki, &info); err != nil {
		return nil, errors.Wrap(err, "fail to compute subject key id")
	}

	sum := sha1.Sum(info.PublicKey.RightAlign())
	return sum[:], nil
}

var (
	keyUsageToStr = map[x509.KeyUsage]string{
		x509.KeyUsageDigitalSignature:  "Digital Signature",
		x509.KeyUsageContentCommitment: "Non Repudiation",
		x509.KeyUsageKeyEncipherment:   "Key Encipherment",
		x509.KeyUsageDataEncipherment:  "Data Encipherment",
		x509.KeyUsageKeyAgreement:      "Key Agreement",
		x509.KeyUsageCertSign:          "Certificate Sign",
		x509.KeyUsageCRLSign:           "CRL Sign",
		x509.KeyUsageEncipherOnly:      "Encipher Only",
		x509.KeyUsageDecipherOnly:      "Decipher Only",
	}
	extKeyUsageToStr = map[x509.ExtKeyUsage]string{
		x509.ExtKeyUsageAny:             "Any Usage",
		x509.ExtKeyUsageServerAuth:      "TLS Web Server Authentication",
		x509.ExtKeyUsageClientAuth:      "TLS Web Client Authentication",
		x509.ExtKeyUsageCodeSigning:     "Code Signing",
		x509.ExtKeyUsageEmailProtection: "Email Protection",
		x509.ExtKeyUsageTimeStamping:    "Time Stamping",
		x509.ExtKeyUsageOCSPSigning:     "OCSP Signing",
	}

	keyUsages    []x509.KeyUsage
	extKeyUsages []x509.ExtKeyUsage
)

func init() {
	keyUsages = fx.Keys(keyUsageToStr)
	sort.Slice(keyUsages, func(i, j int) bool { return int(keyUsages[i]) < int(keyUsages[j]) })

	extKeyUsages = fx.Keys(extKeyUsageToStr)
	sort.Slice(extKeyUsages, func(i, j int) bool { return int(extKeyUsages[i]) < int(extKeyUsages[j]) })
}

// KeyUsageToStr
func KeyUsageToStr(keyUsage x509.KeyUsage) (usages []string) {
	for _, u := range keyUsages {
		if keyUsage&u > 0 {
			usages = append(usages, keyUsageToStr[u])
		}
	}
	return usages
}

// ExtKeyUsageToStr
func ExtKeyUsageToStr(keyUsage []x509.ExtKeyUsage) (usages []string) {
	for _, u := range keyUsage {
		usages = append(usages, extKeyUsageToStr[u])
	}
	return usages
}

// RandomSerial random 128 bit serial, used to seed fresh serial counters
func RandomSerial() *big.Int {
	s, _ := rand.Int(randReader, new(big.Int).Lsh(big.NewInt(1), 128))
	return s
}
