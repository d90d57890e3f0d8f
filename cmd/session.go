package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			if err := a.sessions.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func validateCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored session against the live site",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := rootContext(cmd)
			defer stop()
			res := a.sessions.Validate(ctx)
			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !res.Valid {
				return fmt.Errorf("session invalid: %s", res.Reason)
			}
			return nil
		},
	}
}
