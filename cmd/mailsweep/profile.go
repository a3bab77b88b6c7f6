package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the total number of messages in the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller(cmd.Context(), nil)
			if err != nil {
				return err
			}
			st := ctl.RefreshProfile(cmd.Context())
			if st.Profile.EmailAddress != "" {
				fmt.Fprintf(a.stdout, "Account: %s\n", st.Profile.EmailAddress)
			}
			fmt.Fprintf(a.stdout, "Total emails in account: %s\n", st.TotalLabel())
			return nil
		},
	}
}
