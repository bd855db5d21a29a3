package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/rollcall/internal/telemetry"
)

func CreateRouter(cluster Cluster, store Store) *chi.Mux {
	r := chi.NewRouter()
	newMembersAPI(cluster, store).Bind(r)
	r.Handle("/metrics", telemetry.MetricsHandler())

	return r
}

// StartServer serves the admin API until the context is canceled.
func StartServer(ctx context.Context, cluster Cluster, store Store, logger kitlog.Logger, bindAddr string) error {
	server := &http.Server{
		Addr:    bindAddr,
		Handler: CreateRouter(cluster, store),
	}

	go func() {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			level.Error(logger).Log("msg", "failed to shutdown server", "err", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
