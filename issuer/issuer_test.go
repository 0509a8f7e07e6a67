package issuer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"certgen/pkg/helper/x509x"
	"certgen/pkg/testutils"
)

func newTestIssuer(t *testing.T) (Interface, *CAInput) {
	t.Helper()

	ca := testutils.NewCA(t, "ca.example.com")
	caCertPath := filepath.Join(t.TempDir(), "ca.crt")

	return New(NativeProvider(), FileStore(caCertPath)), &CAInput{KeyPEM: ca.KeyPEM, CertPEM: ca.CertPEM}
}

func TestIssueCertificate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iss, ca := newTestIssuer(t)

	issued, err := iss.IssueCertificate(ctx, ca, &CreateRequest{
		CommonName:  "example.test",
		DNSNames:    []string{"www.example.test"},
		IPAddresses: []string{"10.0.0.1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)
	require.Equal(t, "example.test", issued.CommonName)
	require.NotEmpty(t, issued.KeyPEM)
	require.NotEmpty(t, issued.CsrPEM)
	require.NotEmpty(t, issued.CertPEM)
	require.True(t, issued.NotAfter.After(issued.NotBefore))
}

func TestIssueCertificateDistinctSerials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iss, ca := newTestIssuer(t)

	first, err := iss.IssueCertificate(ctx, ca, &CreateRequest{CommonName: "first.example.test"})
	require.NoError(t, err)

	second, err := iss.IssueCertificate(ctx, ca, &CreateRequest{CommonName: "second.example.test"})
	require.NoError(t, err)

	require.NotEqual(t, first.SerialNumber, second.SerialNumber)
}

func TestIssueCertificateErrors(t *testing.T) {
	type args struct {
		ca  func(t *testing.T) *CAInput
		req *CreateRequest
	}
	tests := [...]struct {
		name     string
		args     args
		wantKind error
	}{
		{`missing common name`, args{
			func(t *testing.T) *CAInput {
				ca := testutils.NewCA(t, "ca.example.com")
				return &CAInput{KeyPEM: ca.KeyPEM, CertPEM: ca.CertPEM}
			},
			&CreateRequest{},
		}, ErrInvalidArgument},
		{`missing ca`, args{
			func(t *testing.T) *CAInput { return &CAInput{} },
			&CreateRequest{CommonName: "example.test"},
		}, ErrInvalidArgument},
		{`garbage ca certificate`, args{
			func(t *testing.T) *CAInput {
				ca := testutils.NewCA(t, "ca.example.com")
				return &CAInput{KeyPEM: ca.KeyPEM, CertPEM: []byte("not a certificate")}
			},
			&CreateRequest{CommonName: "example.test"},
		}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			iss := New(NativeProvider(), FileStore(filepath.Join(t.TempDir(), "ca.crt")))

			_, err := iss.IssueCertificate(ctx, tt.args.ca(t), tt.args.req)
			require.Error(t, err)
			require.Truef(t, errors.Is(err, tt.wantKind), "error = %+v, want kind = %v", err, tt.wantKind)
		})
	}
}

func TestIssueCertificateChainMismatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sign with one CA, verify against an unrelated one
	ca := testutils.NewCA(t, "ca.example.com")
	unrelated := testutils.NewCA(t, "other-ca.example.com")

	iss := New(NativeProvider(), FileStore(filepath.Join(t.TempDir(), "ca.crt")))

	issued, err := iss.IssueCertificate(ctx, &CAInput{KeyPEM: ca.KeyPEM, CertPEM: ca.CertPEM}, &CreateRequest{CommonName: "example.test"})
	require.NoError(t, err)

	issuedCert := testutils.Must1(x509x.ParseCertificate(issued.CertPEM))
	unrelatedCert := testutils.Must1(x509x.ParseCertificate(unrelated.CertPEM))

	require.NoError(t, verifyChain(issuedCert, testutils.Must1(x509x.ParseCertificate(ca.CertPEM))))
	require.Error(t, verifyChain(issuedCert, unrelatedCert))
}
