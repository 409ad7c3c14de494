package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/contentagent/internal/queue/streams"
	"github.com/mohammad-safakhou/contentagent/internal/runtime"
	srv "github.com/mohammad-safakhou/contentagent/internal/server"
	"github.com/mohammad-safakhou/contentagent/internal/worker"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	var noSweep bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the content worker, the sweep scheduler and the ops HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := runtime.SignalContext(cmd.Context(), "serve")
			defer cancel()

			a, err := loadApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			if addr == "" {
				addr = a.cfg.Server.Address
			}

			orch, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			q := a.cfg.Queue
			if err := streams.EnsureGroup(ctx, a.rdb, q.RequestStream, q.Group); err != nil {
				return err
			}
			consumer := streams.NewConsumer(a.rdb, a.registry, q.Group, "worker-"+uuid.NewString()[:8])
			router := worker.NewRouter(a.store, orch, newLogger("[WORKER] "))
			proc := worker.NewProcessor(newLogger("[WORKER] "), a.store, router, consumer,
				streams.NewPublisher(a.rdb, a.registry),
				worker.Options{RequestStream: q.RequestStream, ResultStream: q.ResultStream, Concurrency: q.Concurrency, Block: q.Block},
				a.telemetry.Meter, a.telemetry.Tracer)

			ops := srv.NewOpsServer(srv.OpsOptions{
				Checks: map[string]srv.HealthCheck{
					"postgres": a.store.DB.PingContext,
					"redis":    func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() },
				},
				Lag: func(ctx context.Context) (streams.LagMetrics, error) {
					return streams.GroupLag(ctx, a.rdb, q.RequestStream, q.Group)
				},
				Gatherer: a.telemetry.Gatherer,
				Logger:   newLogger("[HTTP] "),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return proc.Start(gctx) })
			if !noSweep {
				sched, err := srv.NewScheduler(a.store, srv.RedisLock{Client: a.rdb}, a.cfg.Sweep.Schedule,
					a.cfg.Sweep.StaleAfter, a.cfg.Sweep.LockTTL, newLogger("[SCHED] "))
				if err != nil {
					return err
				}
				g.Go(func() error { sched.Start(gctx); return nil })
			}
			g.Go(func() error {
				newLogger("[HTTP] ").Printf("ops server listening on %s", addr)
				if err := ops.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return ops.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "ops listen address (default server.address)")
	serve.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the stale content sweep in this process")
	return serve
}
