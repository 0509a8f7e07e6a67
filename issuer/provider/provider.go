package provider

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"net"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/whitekid/goxp/fx"

	"certgen/pkg/helper"
	"certgen/pkg/helper/x509x"
)

// Interface leaf certificate provider
type Interface interface {
	// CreateCertificate generate new key, CSR, and certificate signed by signer
	// returns PEM encoded certificate, CSR and private key
	CreateCertificate(ctx context.Context, req *CreateRequest, signer *x509.Certificate, signerPrivateKey x509x.PrivateKey) (certPEMBytes []byte, csrPEMBytes []byte, privateKeyPEMBytes []byte, err error)
}

const (
	DefaultKeySize      = 2048
	DefaultValidityDays = 825
	DefaultDigest       = "sha256"
)

type CreateRequest struct {
	SerialNumber *big.Int

	CommonName         string `validate:"required"`
	Country            string
	Province           string
	Locality           string
	Organization       string
	OrganizationalUnit string
	Email              string

	DNSNames    []string // alternate DNS names; common name is always prepended
	IPAddresses []string

	KeySize      int    // RSA key size in bits
	ValidityDays int    // validity from today
	Digest       string // sha256, sha384, sha512
}

// SetDefaults fill unset issuance parameters
func (req *CreateRequest) SetDefaults() {
	req.KeySize = fx.Ternary(req.KeySize == 0, DefaultKeySize, req.KeySize)
	req.ValidityDays = fx.Ternary(req.ValidityDays == 0, DefaultValidityDays, req.ValidityDays)
	req.Digest = fx.Ternary(req.Digest == "", DefaultDigest, req.Digest)
}

// Validate check subject and alternative names; issuance parameters out of the
// supported range are left to the crypto layer
func (req *CreateRequest) Validate() error {
	var errs *multierror.Error

	if err := helper.ValidateStruct(req); err != nil {
		errs = multierror.Append(errs, err)
	}

	for _, name := range req.DNSNames {
		if _, ok := dns.IsDomainName(name); !ok {
			errs = multierror.Append(errs, errors.Errorf("invalid dns name: %s", name))
		}
	}

	for _, ip := range req.IPAddresses {
		if net.ParseIP(ip) == nil {
			errs = multierror.Append(errs, errors.Errorf("invalid ip address: %s", ip))
		}
	}

	return errs.ErrorOrNil()
}

// OidEmailAddress PKCS#9 emailAddress attribute
var OidEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// subject distinguished name; absent fields are omitted entirely
func (req *CreateRequest) subject() pkix.Name {
	name := pkix.Name{CommonName: req.CommonName}

	set := func(target *[]string, value string) {
		if value != "" {
			*target = []string{value}
		}
	}
	set(&name.Country, req.Country)
	set(&name.Province, req.Province)
	set(&name.Locality, req.Locality)
	set(&name.Organization, req.Organization)
	set(&name.OrganizationalUnit, req.OrganizationalUnit)

	// pkix.Name has no email field; emailAddress goes into the DN as IA5String
	if req.Email != "" {
		name.ExtraNames = []pkix.AttributeTypeAndValue{{
			Type:  OidEmailAddress,
			Value: asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagIA5String, Bytes: []byte(req.Email)},
		}}
	}

	return name
}

// sans DNS names with the common name always first; IP list is independent
func (req *CreateRequest) sans() (dnsNames []string, ips []net.IP) {
	dnsNames = append([]string{req.CommonName}, req.DNSNames...)
	ips = fx.Map(req.IPAddresses, func(e string) net.IP { return net.ParseIP(e) })
	return dnsNames, ips
}

// CsrTemplate CSR declaring subject and requested names; the final certificate
// does not trust these, see Template()
func (req *CreateRequest) CsrTemplate() (*x509.CertificateRequest, error) {
	sigAlg, err := x509x.SignatureAlgorithm(req.Digest)
	if err != nil {
		return nil, err
	}

	dnsNames, ips := req.sans()

	template := &x509.CertificateRequest{
		SignatureAlgorithm: sigAlg,
		Subject:            req.subject(),
		DNSNames:           dnsNames,
		IPAddresses:        ips,
	}

	if req.Email != "" {
		template.EmailAddresses = []string{req.Email}
	}

	return template, nil
}

// Template leaf certificate template; extensions are fixed here and applied at
// signing time regardless of what the CSR requested. SignatureAlgorithm is
// chosen by the provider to match the signer key.
func (req *CreateRequest) Template() (*x509.Certificate, error) {
	dnsNames, ips := req.sans()
	notBefore := helper.StartOfToday()

	template := &x509.Certificate{
		SerialNumber: fx.Ternary(req.SerialNumber == nil, x509x.RandomSerial(), req.SerialNumber),
		Subject:      req.subject(),
		DNSNames:     dnsNames,
		IPAddresses:  ips,

		NotBefore: notBefore,
		NotAfter:  notBefore.AddDate(0, 0, req.ValidityDays),

		IsCA:                  false,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}

	if req.Email != "" {
		template.EmailAddresses = []string{req.Email}
	}

	return template, nil
}
