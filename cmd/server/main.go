package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/maxpoletaev/rollcall/internal/multierror"
)

const shutdownTimeout = 30 * time.Second

type namedShutdown struct {
	name string
	f    shutdownFunc
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	if err := applyDefaults(); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wg := sync.WaitGroup{}
	logger, closeLogger := setupLogger()

	level.Info(logger).Log(
		"msg", "starting silo",
		"silo_id", opts.Silo.ID,
		"cluster_id", opts.Cluster.ClusterID,
		"service_id", opts.Cluster.ServiceID,
	)

	table, closeTable, err := setupTable(ctx, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start", "err", err)
		os.Exit(1)
	}

	cluster, closeCluster, err := setupCluster(ctx, table, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start", "err", err)
		_ = closeTable(context.Background())
		os.Exit(1)
	}

	_, closeGRPCServer, err := setupGRPCServer(&wg, cluster, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start", "err", err)
		_ = closeCluster(context.Background())
		_ = closeTable(context.Background())
		os.Exit(1)
	}

	// The silo leaves the cluster before it stops serving, so that clients
	// stop picking it while the in-flight calls finish.
	shutdownOrder := []namedShutdown{
		{"cluster", closeCluster},
		{"grpc", closeGRPCServer},
		{"table", closeTable},
		{"logger", closeLogger},
	}

	if opts.RestAPI.Enabled {
		closeAPIServer := setupAPIServer(&wg, cluster, table, logger)
		shutdownOrder = append([]namedShutdown{{"api", closeAPIServer}}, shutdownOrder...)
	}

	exitCode := 0

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "received interrupt signal, shutting down")
	case <-cluster.Evicted():
		level.Error(logger).Log("msg", "evicted from the cluster, shutting down")
		exitCode = 1
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	errs := multierror.New[string]()
	for _, s := range shutdownOrder {
		errs.Add(s.name, s.f(shutdownCtx))
	}

	if err := errs.Combined(); err != nil {
		level.Error(logger).Log("msg", "failed to shutdown components", "err", err)
		exitCode = 1
	}

	wg.Wait()
	os.Exit(exitCode)
}
