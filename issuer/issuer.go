package issuer

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/whitekid/goxp/log"

	"certgen/issuer/provider"
	"certgen/issuer/store"
	"certgen/issuer/types"
	"certgen/pkg/helper/x509x"
)

type (
	Provider = provider.Interface
	Store    = store.Interface

	CreateRequest = provider.CreateRequest
	Issuance      = types.Issuance
)

// CAInput the issuing authority, PEM encoded key and certificate
type CAInput struct {
	KeyPEM  []byte
	CertPEM []byte
}

// Interface certificate issuer
type Interface interface {
	// IssueCertificate generate a key, CSR, and CA-signed leaf certificate,
	// verify the result against the CA, and record the issuance.
	// All-or-nothing: on error none of the artifacts are valid.
	IssueCertificate(ctx context.Context, ca *CAInput, req *CreateRequest) (*Issuance, error)
}

// New create new issuer
func New(provider Provider, store Store) Interface {
	return &issuerImpl{
		provider: provider,
		store:    store,
	}
}

func NativeProvider() Provider             { return provider.Native() }
func FileStore(caCertPath string) Store    { return store.NewFile(caCertPath) }
func SQLStore(dburl string) (Store, error) { return store.NewSQL(dburl) }

type issuerImpl struct {
	provider Provider
	store    Store
}

var _ Interface = (*issuerImpl)(nil)

func (iss *issuerImpl) IssueCertificate(ctx context.Context, ca *CAInput, req *CreateRequest) (*Issuance, error) {
	req.SetDefaults()

	// validation comes before any cryptographic work
	if err := req.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "validate request: %s", err.Error())
	}

	caCert, caKey, err := parseCA(ca)
	if err != nil {
		return nil, err
	}

	caKeyID := CAKeyID(caCert)

	serial, err := iss.store.NextSerial(ctx, caKeyID)
	if err != nil {
		return nil, errors.Wrap(err, "allocate serial")
	}
	req.SerialNumber = serial

	certPEM, csrPEM, keyPEM, err := iss.provider.CreateCertificate(ctx, req, caCert, caKey)
	if err != nil {
		return nil, errors.Wrapf(ErrCrypto, "create certificate: %s", err.Error())
	}

	cert, err := x509x.ParseCertificate(certPEM)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedCertificate, "parse issued certificate: %s", err.Error())
	}

	if err := verifyChain(cert, caCert); err != nil {
		return nil, errors.Wrapf(ErrChainVerification, "verify issued certificate: %s", err.Error())
	}

	rec, err := iss.store.CreateRecord(ctx, &types.Record{
		CAKeyID:    caKeyID,
		Serial:     cert.SerialNumber.Text(16),
		CommonName: cert.Subject.CommonName,
		Status:     types.StatusIssued,
		NotBefore:  cert.NotBefore,
		NotAfter:   cert.NotAfter,
	})
	if err != nil {
		return nil, errors.Wrap(err, "record issuance")
	}

	log.Infof("issued certificate: cn=%s, serial=%s, notAfter=%s", cert.Subject.CommonName, cert.SerialNumber.Text(16), cert.NotAfter)

	return &Issuance{
		ID:           rec.ID,
		SerialNumber: cert.SerialNumber,
		CommonName:   cert.Subject.CommonName,
		KeyPEM:       keyPEM,
		CsrPEM:       csrPEM,
		CertPEM:      certPEM,
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		Created:      rec.Created,
	}, nil
}

func parseCA(ca *CAInput) (*x509.Certificate, x509x.PrivateKey, error) {
	if ca == nil || len(ca.KeyPEM) == 0 || len(ca.CertPEM) == 0 {
		return nil, nil, errors.Wrap(ErrInvalidArgument, "ca key and certificate required")
	}

	caCert, err := x509x.ParseCertificate(ca.CertPEM)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidArgument, "parse ca certificate: %s", err.Error())
	}

	caKey, err := x509x.ParsePrivateKey(ca.KeyPEM)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidArgument, "parse ca key: %s", err.Error())
	}

	return caCert, caKey, nil
}

// CAKeyID stable identifier of a CA certificate for serial scoping
func CAKeyID(caCert *x509.Certificate) string {
	if len(caCert.SubjectKeyId) > 0 {
		return hex.EncodeToString(caCert.SubjectKeyId)
	}

	keyID, err := x509x.SubjectKeyID(caCert.PublicKey)
	if err != nil {
		// parseable certificate always has a derivable key id
		return hex.EncodeToString(caCert.Raw[:20])
	}
	return hex.EncodeToString(keyID)
}

func verifyChain(cert *x509.Certificate, caCert *x509.Certificate) error {
	roots := x509.NewCertPool()
	roots.AddCert(caCert)

	_, err := cert.Verify(x509.VerifyOptions{
		Roots:       roots,
		CurrentTime: time.Now().UTC(),
		KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	})
	return err
}
