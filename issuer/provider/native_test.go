package provider

import (
	"context"
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"certgen/pkg/helper"
	"certgen/pkg/helper/x509x"
	"certgen/pkg/testutils"
)

func Test_nativeImpl_CreateCertificate(t *testing.T) {
	type args struct {
		req *CreateRequest
	}
	tests := [...]struct {
		name    string
		args    args
		wantErr bool
	}{
		{`valid`, args{&CreateRequest{
			CommonName:   "server.example.com",
			Organization: "example",
			KeySize:      2048,
			ValidityDays: 825,
			Digest:       "sha256",
		}}, false},
		{`valid with email`, args{&CreateRequest{
			CommonName:   "mail.example.test",
			Email:        "admin@example.test",
			KeySize:      2048,
			ValidityDays: 365,
			Digest:       "sha256",
		}}, false},
		{`valid with alternative names`, args{&CreateRequest{
			CommonName:   "example.test",
			DNSNames:     []string{"www.example.test"},
			IPAddresses:  []string{"10.0.0.1"},
			KeySize:      2048,
			ValidityDays: 30,
			Digest:       "sha256",
		}}, false},
		{`invalid digest`, args{&CreateRequest{
			CommonName:   "server.example.com",
			KeySize:      2048,
			ValidityDays: 825,
			Digest:       "md5",
		}}, true},
		{`key size out of range`, args{&CreateRequest{
			CommonName:   "server.example.com",
			KeySize:      -1,
			ValidityDays: 825,
			Digest:       "sha256",
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ca := testutils.NewCA(t, "ca.example.com")
			caCert := testutils.Must1(x509x.ParseCertificate(ca.CertPEM))
			caKey := testutils.Must1(x509x.ParsePrivateKey(ca.KeyPEM))

			na := Native().(*nativeImpl)
			gotCert, gotCsr, gotKey, err := na.CreateCertificate(ctx, tt.args.req, caCert, caKey)
			require.Truef(t, (err != nil) == tt.wantErr, `CreateCertificate() failed: error = %+v, wantErr = %v`, err, tt.wantErr)
			if tt.wantErr {
				return
			}

			cert, err := x509x.ParseCertificate(gotCert)
			require.NoError(t, err)

			require.Equal(t, tt.args.req.CommonName, cert.Subject.CommonName)
			require.Equal(t, "ca.example.com", cert.Issuer.CommonName)
			require.True(t, cert.NotBefore.Equal(helper.StartOfToday()))
			require.True(t, cert.NotAfter.Equal(helper.StartOfToday().AddDate(0, 0, tt.args.req.ValidityDays)))
			require.NoError(t, cert.CheckSignatureFrom(caCert))

			// common name is always the first DNS SAN
			require.Equal(t, append([]string{tt.args.req.CommonName}, tt.args.req.DNSNames...), cert.DNSNames)
			require.Len(t, cert.IPAddresses, len(tt.args.req.IPAddresses))
			for i, ip := range tt.args.req.IPAddresses {
				require.Equal(t, ip, cert.IPAddresses[i].String())
			}

			// the v3 extension set is fixed regardless of subject content
			require.False(t, cert.IsCA)
			require.True(t, cert.BasicConstraintsValid)
			require.Equal(t, x509.KeyUsageDigitalSignature|x509.KeyUsageKeyEncipherment, cert.KeyUsage)
			require.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}, cert.ExtKeyUsage)
			require.NotEmpty(t, cert.SubjectKeyId)
			requireCriticalExtension(t, cert, "2.5.29.19") // basic constraints
			requireCriticalExtension(t, cert, "2.5.29.15") // key usage

			// email appears in the subject DN and as a SAN rfc822Name
			if tt.args.req.Email != "" {
				require.Equal(t, tt.args.req.Email, subjectEmail(cert.Subject))
				require.Equal(t, []string{tt.args.req.Email}, cert.EmailAddresses)
			}

			// CSR proves possession of the new key
			csr, err := x509x.ParseCSR(gotCsr)
			require.NoError(t, err)
			require.NoError(t, csr.CheckSignature())
			require.Equal(t, tt.args.req.CommonName, csr.Subject.CommonName)
			if tt.args.req.Email != "" {
				require.Equal(t, tt.args.req.Email, subjectEmail(csr.Subject))
			}

			key, err := x509x.ParsePrivateKey(gotKey)
			require.NoError(t, err)
			require.True(t, cert.PublicKey.(interface{ Equal(x crypto.PublicKey) bool }).Equal(key.Public()))
		})
	}
}

func subjectEmail(subject pkix.Name) string {
	for _, atv := range subject.Names {
		if atv.Type.Equal(OidEmailAddress) {
			if email, ok := atv.Value.(string); ok {
				return email
			}
		}
	}
	return ""
}

func requireCriticalExtension(t *testing.T, cert *x509.Certificate, oid string) {
	t.Helper()

	for _, ext := range cert.Extensions {
		if ext.Id.String() == oid {
			require.Truef(t, ext.Critical, "extension %s must be critical", oid)
			return
		}
	}
	require.Failf(t, "extension not found", "oid=%s", oid)
}

func TestCreateRequestValidate(t *testing.T) {
	type args struct {
		req *CreateRequest
	}
	tests := [...]struct {
		name    string
		args    args
		wantErr bool
	}{
		{`valid`, args{&CreateRequest{CommonName: "example.test"}}, false},
		{`missing common name`, args{&CreateRequest{}}, true},
		{`bad ip`, args{&CreateRequest{CommonName: "example.test", IPAddresses: []string{"not-an-ip"}}}, true},
		{`bad dns name`, args{&CreateRequest{CommonName: "example.test", DNSNames: []string{strings.Repeat("a", 300)}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args.req.SetDefaults()
			err := tt.args.req.Validate()
			require.Truef(t, (err != nil) == tt.wantErr, `Validate() failed: error = %+v, wantErr = %v`, err, tt.wantErr)
		})
	}
}
