package main

import (
	"os"

	"github.com/spf13/cobra"

	"certgen/issuer"
	"certgen/issuer/provider"
	"certgen/pkg/helper"
	"certgen/profile"
)

var issueFlags struct {
	cn       string
	country  string
	state    string
	locality string
	org      string
	orgUnit  string
	email    string

	altDNS string
	altIP  string

	keySize int
	days    int
	digest  string

	dburl       string
	profilePath string
	verbose     bool
}

func init() {
	cmd := &cobra.Command{
		Use:   "issue ca-key ca-cert out-key out-csr out-cert",
		Short: "issue a leaf certificate signed by the given CA",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueCertificate(cmd, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&issueFlags.cn, "cn", "n", "", "common name (required)")
	fs.StringVarP(&issueFlags.country, "country", "c", "", "subject country")
	fs.StringVar(&issueFlags.state, "state", "", "subject state or province")
	fs.StringVar(&issueFlags.locality, "locality", "", "subject locality")
	fs.StringVarP(&issueFlags.org, "org", "o", "", "subject organization")
	fs.StringVarP(&issueFlags.orgUnit, "org-unit", "u", "", "subject organizational unit")
	fs.StringVarP(&issueFlags.email, "email", "e", "", "subject email address")
	fs.StringVarP(&issueFlags.altDNS, "alt-dns", "a", "", "comma separated alternate DNS names")
	fs.StringVarP(&issueFlags.altIP, "alt-ip", "i", "", "comma separated alternate IP addresses")
	fs.IntVarP(&issueFlags.keySize, "key-size", "k", provider.DefaultKeySize, "RSA key size in bits")
	fs.IntVarP(&issueFlags.days, "days", "d", provider.DefaultValidityDays, "validity in days")
	fs.StringVar(&issueFlags.digest, "digest", provider.DefaultDigest, "signature digest: sha256, sha384, sha512")
	fs.StringVar(&issueFlags.dburl, "db", "", "record issuances in a database instead of CA sidecar files")
	fs.StringVar(&issueFlags.profilePath, "profile", "", "YAML profile with default subject and issuance parameters")
	fs.BoolVarP(&issueFlags.verbose, "verbose", "v", false, "print issued certificate details")
	cmd.MarkFlagRequired("cn")

	rootCmd.AddCommand(cmd)
}

func issueCertificate(cmd *cobra.Command, args []string) error {
	caKeyPath, caCertPath := args[0], args[1]
	outKeyPath, outCsrPath, outCertPath := args[2], args[3], args[4]

	req := &provider.CreateRequest{
		CommonName:         issueFlags.cn,
		Country:            issueFlags.country,
		Province:           issueFlags.state,
		Locality:           issueFlags.locality,
		Organization:       issueFlags.org,
		OrganizationalUnit: issueFlags.orgUnit,
		Email:              issueFlags.email,
		DNSNames:           helper.SplitList(issueFlags.altDNS),
		IPAddresses:        helper.SplitList(issueFlags.altIP),
		KeySize:            issueFlags.keySize,
		ValidityDays:       issueFlags.days,
		Digest:             issueFlags.digest,
	}

	if issueFlags.profilePath != "" {
		p, err := profile.Load(issueFlags.profilePath)
		if err != nil {
			return err
		}
		p.Apply(req)
	}

	caKeyPEM, err := helper.ReadFile(caKeyPath)
	if err != nil {
		return err
	}

	caCertPEM, err := helper.ReadFile(caCertPath)
	if err != nil {
		return err
	}

	st := issuer.FileStore(caCertPath)
	if issueFlags.dburl != "" {
		if st, err = issuer.SQLStore(issueFlags.dburl); err != nil {
			return err
		}
	}

	iss := issuer.New(issuer.NativeProvider(), st)

	issued, err := iss.IssueCertificate(cmd.Context(), &issuer.CAInput{KeyPEM: caKeyPEM, CertPEM: caCertPEM}, req)
	if err != nil {
		return err
	}

	if err := helper.WriteFile(outKeyPath, issued.KeyPEM, 0600); err != nil {
		return err
	}
	if err := helper.WriteFile(outCsrPath, issued.CsrPEM, 0644); err != nil {
		return err
	}
	if err := helper.WriteFile(outCertPath, issued.CertPEM, 0644); err != nil {
		return err
	}

	if issueFlags.verbose {
		return helper.WriteJSON(os.Stdout, &struct {
			CommonName   string
			SerialNumber string
			NotBefore    string
			NotAfter     string
		}{
			CommonName:   issued.CommonName,
			SerialNumber: issued.SerialNumber.Text(16),
			NotBefore:    issued.NotBefore.String(),
			NotAfter:     issued.NotAfter.String(),
		})
	}

	return nil
}
