package provider

import (
	"context"
	"crypto/rand"
	"crypto/x509"

	"github.com/pkg/errors"
	"github.com/whitekid/goxp/log"

	"certgen/pkg/helper/x509x"
)

func Native() Interface {
	return &nativeImpl{}
}

type nativeImpl struct {
}

var _ Interface = (*nativeImpl)(nil)

// CreateCertificate issue leaf certificate signed by signer
//
// A CSR is always produced and self-signed by the new key to prove possession.
// The final certificate is built from req, not from the CSR's requested
// extensions, so the issued extensions are exactly the intended ones no matter
// what the CSR declared.
func (na *nativeImpl) CreateCertificate(ctx context.Context, req *CreateRequest, signer *x509.Certificate, signerPrivateKey x509x.PrivateKey) ([]byte, []byte, []byte, error) {
	log.Debugf("CreateCertificate(): cn=%s, keySize=%d, days=%d", req.CommonName, req.KeySize, req.ValidityDays)

	if signer == nil || signerPrivateKey == nil {
		return nil, nil, nil, errors.New("signer required")
	}

	privateKey, err := x509x.GenerateRSAKey(req.KeySize)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to generate key")
	}

	csrTemplate, err := req.CsrTemplate()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build csr")
	}

	csrDerBytes, csrPEMBytes, err := x509x.CreateCertificateRequest(csrTemplate, privateKey)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build csr")
	}

	csr, err := x509.ParseCertificateRequest(csrDerBytes)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build csr")
	}

	if err := csr.CheckSignature(); err != nil {
		return nil, nil, nil, errors.Wrap(err, "csr signature does not verify")
	}

	template, err := req.Template()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build certificate template")
	}

	template.SignatureAlgorithm, err = x509x.SignatureAlgorithmFor(signerPrivateKey, req.Digest)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build certificate template")
	}

	template.SubjectKeyId, err = x509x.SubjectKeyID(privateKey.Public())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to build certificate template")
	}

	certDerBytes, err := x509.CreateCertificate(rand.Reader, template, signer, privateKey.Public(), signerPrivateKey)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to sign certificate")
	}

	privatePEMBytes, err := x509x.EncodePrivateKeyToPEM(privateKey)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fail to encode private key")
	}

	return x509x.EncodeCertificateToPEM(certDerBytes), csrPEMBytes, privatePEMBytes, nil
}
