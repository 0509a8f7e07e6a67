package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"certgen/issuer"
	"certgen/issuer/store"
	"certgen/issuer/types"
	"certgen/pkg/helper"
	"certgen/pkg/helper/x509x"
)

var recordFlags struct {
	cn     string
	status string
	dburl  string
}

func init() {
	cmd := &cobra.Command{
		Use:   "records ca-cert",
		Short: "list certificates issued against a CA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caCertPEM, err := helper.ReadFile(args[0])
			if err != nil {
				return err
			}

			caCert, err := x509x.ParseCertificate(caCertPEM)
			if err != nil {
				return err
			}

			st := issuer.FileStore(args[0])
			if recordFlags.dburl != "" {
				if st, err = issuer.SQLStore(recordFlags.dburl); err != nil {
					return err
				}
			}

			var status types.Status
			switch recordFlags.status {
			case "":
			case types.StatusIssued.String(), types.StatusRevoked.String():
				status = types.Status(recordFlags.status)
			default:
				return errors.Errorf("unknown status: %s", recordFlags.status)
			}

			records, err := st.ListRecord(cmd.Context(), issuer.CAKeyID(caCert), store.RecordListOpt{CommonName: recordFlags.cn, Status: status})
			if err != nil {
				return err
			}

			return helper.WriteJSON(os.Stdout, records)
		},
	}

	cmd.Flags().StringVarP(&recordFlags.cn, "cn", "n", "", "filter by common name")
	cmd.Flags().StringVar(&recordFlags.status, "status", "", "filter by status: issued, revoked")
	cmd.Flags().StringVar(&recordFlags.dburl, "db", "", "database url")

	rootCmd.AddCommand(cmd)
}
