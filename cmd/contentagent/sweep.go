package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	srv "github.com/mohammad-safakhou/contentagent/internal/server"
)

func sweepCMD(cfgPath *string) *cobra.Command {
	var noLock bool
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Mark content stuck in writing as failed, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *cfgPath, !noLock)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			var lock srv.Lock
			if !noLock {
				lock = srv.RedisLock{Client: a.rdb}
			}
			sched, err := srv.NewScheduler(a.store, lock, a.cfg.Sweep.Schedule, a.cfg.Sweep.StaleAfter, a.cfg.Sweep.LockTTL, newLogger("[SCHED] "))
			if err != nil {
				return err
			}
			ids, err := sched.SweepOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d items failed\n", len(ids))
			return nil
		},
	}
	sweep.Flags().BoolVar(&noLock, "no-lock", false, "skip the Redis lock (single replica deployments)")
	return sweep
}
