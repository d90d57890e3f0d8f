package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wildscan/models"
)

func scanCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan ORIGIN DESTINATION DATE",
		Short: "Scan one route through the cache and print the result as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.NewRoute(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := rootContext(cmd)
			defer stop()
			store, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			res, err := a.orchestrator(store).ScanRoute(ctx, r)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
