package main

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/whitekid/goxp/fx"

	"certgen/pkg/helper"
	"certgen/pkg/helper/x509x"
)

var x509cmd *cobra.Command

func init() {
	x509cmd = &cobra.Command{
		Use:   "x509",
		Short: "x509 utility commands",
	}
	rootCmd.AddCommand(x509cmd)
}

func init() {
	cmd := &cobra.Command{
		Use: "csr",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info csr...",
		Short: "show CSR informations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if err := csrInfo(cmd.Context(), arg); err != nil {
					return err
				}
			}
			return nil
		},
	})

	x509cmd.AddCommand(cmd)
}

// csrInfo show csr information
// openssl req -text -in <filename>
func csrInfo(ctx context.Context, filename string) error {
	pemBytes, err := helper.ReadFile(filename)
	if err != nil {
		return err
	}

	csr, err := x509x.ParseCSR(pemBytes)
	if err != nil {
		return err
	}

	return helper.WriteJSON(os.Stdout, &struct {
		Version            int    `json:",omitempty"`
		CommonName         string `json:",omitempty"`
		PublicKeyAlgorithm string `json:",omitempty"`
		Country            string `json:",omitempty"`
		Organization       string `json:",omitempty"`
		OrganizationalUnit string `json:",omitempty"`
		Locality           string `json:",omitempty"`
		Province           string `json:",omitempty"`

		DNSName      string `json:",omitempty"`
		EmailAddress string `json:",omitempty"`
		IPAddress    string `json:",omitempty"`
	}{
		Version:            csr.Version,
		CommonName:         csr.Subject.CommonName,
		PublicKeyAlgorithm: csr.PublicKeyAlgorithm.String(),
		Country:            strings.Join(csr.Subject.Country, ", "),
		Organization:       strings.Join(csr.Subject.Organization, ", "),
		OrganizationalUnit: strings.Join(csr.Subject.OrganizationalUnit, ", "),
		Locality:           strings.Join(csr.Subject.Locality, ", "),
		Province:           strings.Join(csr.Subject.Province, ", "),
		DNSName:            strings.Join(csr.DNSNames, ", "),
		EmailAddress:       strings.Join(csr.EmailAddresses, ", "),
		IPAddress:          strings.Join(fx.Map(csr.IPAddresses, func(e net.IP) string { return e.String() }), ", "),
	})
}

func init() {
	cmd := &cobra.Command{
		Use: "cert",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info cert...",
		Short: "show x509 certificate informations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				if err := certInfo(cmd.Context(), filename); err != nil {
					return err
				}
			}
			return nil
		},
	})

	x509cmd.AddCommand(cmd)
}

// certInfo show certificate info
// openssl x509 -text -in <filename>
func certInfo(ctx context.Context, filename string) error {
	pemBytes, err := helper.ReadFile(filename)
	if err != nil {
		return err
	}

	cert, err := x509x.ParseCertificate(pemBytes)
	if err != nil {
		return err
	}

	return helper.WriteJSON(os.Stdout, &struct {
		Version            int    `json:",omitempty"`
		CommonName         string `json:",omitempty"`
		PublicKeyAlgorithm string `json:",omitempty"`
		Country            string `json:",omitempty"`
		Organization       string `json:",omitempty"`
		OrganizationalUnit string `json:",omitempty"`
		Locality           string `json:",omitempty"`
		Province           string `json:",omitempty"`

		DNSName      string `json:",omitempty"`
		EmailAddress string `json:",omitempty"`
		IPAddress    string `json:",omitempty"`

		SerialNumber string `json:",omitempty"`
		SubjectKeyId []byte `json:",omitempty"`
		IsCA         bool
		KeyUsage     []string
		ExtKeyUsage  []string

		NotBefore time.Time `json:",omitempty"`
		NotAfter  time.Time `json:",omitempty"`

		IssuerCommonName string
	}{
		Version:            cert.Version,
		CommonName:         cert.Subject.CommonName,
		PublicKeyAlgorithm: cert.PublicKeyAlgorithm.String(),
		Country:            strings.Join(cert.Subject.Country, ", "),
		Organization:       strings.Join(cert.Subject.Organization, ", "),
		OrganizationalUnit: strings.Join(cert.Subject.OrganizationalUnit, ", "),
		Locality:           strings.Join(cert.Subject.Locality, ", "),
		Province:           strings.Join(cert.Subject.Province, ", "),
		DNSName:            strings.Join(cert.DNSNames, ", "),
		EmailAddress:       strings.Join(cert.EmailAddresses, ", "),
		IPAddress:          strings.Join(fx.Map(cert.IPAddresses, func(e net.IP) string { return e.String() }), ", "),
		SerialNumber:       cert.SerialNumber.String(),
		SubjectKeyId:       cert.SubjectKeyId,
		IsCA:               cert.IsCA,
		KeyUsage:           x509x.KeyUsageToStr(cert.KeyUsage),
		ExtKeyUsage:        x509x.ExtKeyUsageToStr(cert.ExtKeyUsage),
		NotBefore:          cert.NotBefore,
		NotAfter:           cert.NotAfter,
		IssuerCommonName:   cert.Issuer.CommonName,
	})
}
