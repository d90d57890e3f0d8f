package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wildscan/internal/login"
)

func loginCMD(cfgPath *string) *cobra.Command {
	var interval, timeout time.Duration
	var cmd = &cobra.Command{
		Use:   "login",
		Short: "Open a browser window and wait for a manual login",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := rootContext(cmd)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			flow := a.loginFlow()
			defer flow.Cancel()
			res, err := flow.Start(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "login flow %s started: finish logging in in the browser window\n", res.ID)
			return waitForLogin(ctx, flow, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "give up and close the browser after this long")
	return cmd
}

type poller interface {
	Poll(ctx context.Context) login.PollResult
}

// waitForLogin polls until the flow leaves the waiting state or ctx ends.
func waitForLogin(ctx context.Context, p poller, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("login timed out")
			}
			return fmt.Errorf("login aborted")
		case <-t.C:
		}
		res := p.Poll(ctx)
		switch res.Status {
		case login.PollWaiting:
			continue
		case login.PollLoggedIn:
			return nil
		default:
			return fmt.Errorf("login failed (%s): %s", res.Status, res.Message)
		}
	}
}
