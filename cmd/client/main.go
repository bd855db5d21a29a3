package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/maxpoletaev/rollcall/gateway"
	"github.com/maxpoletaev/rollcall/internal/grpcutil"
	"github.com/maxpoletaev/rollcall/membership"
	"github.com/maxpoletaev/rollcall/nodeapi"
	nodeapigrpc "github.com/maxpoletaev/rollcall/nodeapi/grpc"
	"github.com/maxpoletaev/rollcall/storage"
)

const dialTimeout = 5 * time.Second

func setupLogger() kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger
}

// connect picks a live silo and dials it, retrying until a silo responds.
func connect(ctx context.Context, gateways *gateway.List, logger kitlog.Logger) (nodeapi.Client, error) {
	var client nodeapi.Client

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = opts.ConnectTimeout

	err := backoff.RetryNotify(func() error {
		if err := gateways.Refresh(ctx); err != nil {
			return err
		}

		gw, err := gateways.Pick()
		if err != nil {
			return err
		}

		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()

		client, err = nodeapigrpc.Dial(dialCtx, gw.Address)
		if err != nil {
			return fmt.Errorf("dial %s (%s): %w", gw.SiloID, gw.Address, err)
		}

		level.Info(logger).Log("msg", "connected to silo", "silo_id", gw.SiloID, "addr", gw.Address)

		return nil
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		level.Warn(logger).Log("msg", "failed to connect to the cluster, retrying", "err", err, "next", next)
	})

	return client, err
}

func sayHello(ctx context.Context, client nodeapi.Client) error {
	for i := 0; i < opts.Calls; i++ {
		reply, err := client.Hello(ctx, opts.Greeting)
		if err != nil {
			return err
		}

		fmt.Printf("\n\n%s\n\n", reply)
	}

	return nil
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

	logger := setupLogger()

	table, closeTable, err := storage.Open(ctx, opts.ConnectionString)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open membership table", "err", err)
		os.Exit(1)
	}

	defer closeTable()

	conf := membership.DefaultConfig()
	conf.ClusterID = opts.ClusterID
	conf.ServiceID = opts.ServiceID
	conf.Logger = logger

	listConf := gateway.DefaultConfig()
	listConf.Logger = logger
	listConf.DeathTimeout = opts.DeathTimeout
	listConf.RefreshInterval = opts.RefreshInterval

	gateways := gateway.NewList(membership.NewProvider(table, conf), listConf)

	client, err := connect(ctx, gateways, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to connect to the cluster", "err", err)
		os.Exit(1)
	}

	defer client.Close()

	fmt.Println("Client successfully connected to silo host")

	if err := sayHello(ctx, client); err != nil {
		level.Error(logger).Log("msg", "hello call failed", "code", grpcutil.ErrorCode(err), "err", err)
	}

	// Keep the gateway list fresh until interrupted, as a long-running client would.
	if err := gateways.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		level.Error(logger).Log("msg", "gateway list stopped", "err", err)
	}
}
