package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"

	"github.com/maxpoletaev/rollcall/api"
	"github.com/maxpoletaev/rollcall/membership"
	membershippb "github.com/maxpoletaev/rollcall/membership/proto"
	membershipsvc "github.com/maxpoletaev/rollcall/membership/service"
	"github.com/maxpoletaev/rollcall/storage"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

func setupLogger() (kitlog.Logger, shutdownFunc) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger, noopShutdown
}

func setupTable(ctx context.Context, logger kitlog.Logger) (storage.Table, shutdownFunc, error) {
	table, closeTable, err := storage.Open(ctx, opts.Cluster.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open membership table: %w", err)
	}

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "closing membership table")
		return closeTable()
	}

	return table, shutdown, nil
}

func membershipConfig(logger kitlog.Logger) membership.Config {
	conf := membership.DefaultConfig()
	conf.ClusterID = opts.Cluster.ClusterID
	conf.ServiceID = opts.Cluster.ServiceID
	conf.HeartbeatInterval = opts.Cluster.HeartbeatInterval
	conf.ProbeInterval = opts.Cluster.ProbeInterval
	conf.DeathTimeout = opts.Cluster.DeathTimeout
	conf.GCInterval = opts.Cluster.GCInterval
	conf.DefunctRetention = opts.Cluster.DefunctRetention
	conf.Logger = logger

	return conf
}

// setupCluster joins the cluster, retrying while the table is unreachable, and
// starts the membership loops.
func setupCluster(ctx context.Context, table membership.Table, logger kitlog.Logger) (*membership.Cluster, shutdownFunc, error) {
	conf := membershipConfig(logger)
	if err := conf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid cluster config: %w", err)
	}

	provider := membership.NewProvider(table, conf)
	cluster := membership.NewCluster(provider, conf)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = opts.Cluster.JoinTimeout

	err := backoff.RetryNotify(func() error {
		err := cluster.Join(ctx, opts.Silo.ID, opts.GRPC.PublicAddr)
		if err != nil && !membership.IsTransient(err) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		level.Warn(logger).Log("msg", "failed to join the cluster, retrying", "err", err, "next", next)
	})

	if err != nil {
		return nil, nil, fmt.Errorf("failed to join the cluster: %w", err)
	}

	cluster.Start()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "leaving cluster")

		if err := cluster.Leave(ctx); err != nil {
			return fmt.Errorf("failed to leave cluster: %w", err)
		}

		return nil
	}

	return cluster, shutdown, nil
}

func setupGRPCServer(wg *sync.WaitGroup, cluster *membership.Cluster, logger kitlog.Logger) (*grpc.Server, shutdownFunc, error) {
	listener, err := net.Listen("tcp", opts.GRPC.BindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GRPC listener: %w", err)
	}

	grpcServer := grpc.NewServer()

	membershipService := membershipsvc.NewMembershipService(cluster)
	membershippb.RegisterMembershipServer(grpcServer, membershipService)

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := grpcServer.Serve(listener); err != nil {
			level.Error(logger).Log("msg", "grpc server stopped", "err", err)
		}
	}()

	level.Info(logger).Log("msg", "grpc server started", "addr", opts.GRPC.BindAddr)

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down GRPC server")
		grpcServer.GracefulStop()

		return nil
	}

	return grpcServer, shutdown, nil
}

func setupAPIServer(wg *sync.WaitGroup, cluster *membership.Cluster, store api.Store, logger kitlog.Logger) shutdownFunc {
	ctx, cancel := context.WithCancel(context.Background())

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := api.StartServer(ctx, cluster, store, logger, opts.RestAPI.BindAddr); err != nil {
			level.Error(logger).Log("msg", "admin API stopped", "err", err)
		}
	}()

	return func(ctx context.Context) error {
		logger.Log("msg", "shutting down API server")
		cancel()

		return nil
	}
}
