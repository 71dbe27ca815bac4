package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts the queue workers and the ops HTTP server, then blocks until
// ctx is cancelled. The ops server carries only health and metrics; engine
// operations are invoked in-process, never over HTTP.
func (a *App) Run(ctx context.Context) error {
	if err := a.QueueService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue service: %w", err)
	}

	a.httpServer = &http.Server{
		Addr:              a.Config.Observability.MetricsAddress,
		Handler:           a.opsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ops server listening", slog.String("address", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("ops server failed: %w", err)
	}
}

func (a *App) opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		if err := a.db.GetDB().PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := a.QueueService.HealthCheck(ctx); err != nil {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return r
}
