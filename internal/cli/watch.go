package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Mastokube/internal/scheduler"
)

// NewWatchCmd создаёт команду watch: периодическая сверка кластера
// с планом по расписанию из конфигурации.
func NewWatchCmd(f *Factory) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile the cluster with the plan on a schedule",
		Long: `Run the full plan periodically. Thanks to idempotent apply a
reconcile pass over a healthy cluster is a chain of no-ops, while
manually deleted resources get recreated. Exposes /healthz and
Prometheus /metrics on the listen address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := f.Environment()
			if err != nil {
				return err
			}

			orch, cleanup, err := f.Orchestrator(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := scheduler.New(scheduler.Config{
				Schedule: env.Watch.Schedule,
				Run:      orch.Execute,
				Logger:   f.Logger,
			})
			if err != nil {
				return err
			}

			srv := newMetricsServer(listenAddr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					f.Logger.Error("metrics server failed", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			f.Logger.Info("watch mode started",
				"schedule", env.Watch.Schedule,
				"listen", listenAddr,
			)

			err = rec.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":9090", "Address for /healthz and /metrics")

	return cmd
}

// newMetricsServer собирает HTTP-сервер с /healthz и /metrics.
func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
