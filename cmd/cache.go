package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCMD(cfgPath *string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or sweep the result cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove expired entries",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(*cfgPath)
				if err != nil {
					return err
				}
				store, err := a.openCache(cmd.Context())
				if err != nil {
					return err
				}
				defer closeStore(store)
				n, err := store.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print the entry count",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(*cfgPath)
				if err != nil {
					return err
				}
				store, err := a.openCache(cmd.Context())
				if err != nil {
					return err
				}
				defer closeStore(store)
				st, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", st.Backend, st.Count)
				return nil
			},
		},
	)
	return cmd
}
