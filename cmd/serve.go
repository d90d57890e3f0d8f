package main

import (
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wildscan/internal/cache"
	"github.com/mohammad-safakhou/wildscan/internal/orchestrator"
	srv "github.com/mohammad-safakhou/wildscan/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			janitor, err := cache.NewJanitor(store, a.cfg.Cache.CleanupCron, nil)
			if err != nil {
				return err
			}
			go janitor.Run(ctx)

			flow := a.loginFlow()
			defer flow.Cancel()

			e := srv.New(srv.Deps{
				Sessions: a.sessions,
				Login:    flow,
				Scans:    a.orchestrator(store),
				Limiter:  orchestrator.NewBatchLimiter(a.cfg.Scan.MinInterval),
				Limits:   a.cfg.Scan,
				Metrics:  a.metrics,
			})

			addr := a.cfg.Server.Address
			if serveAddr != "" {
				addr = serveAddr
			}
			return srv.Run(ctx, e, addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	return serve
}
