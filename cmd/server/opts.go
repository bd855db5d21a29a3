package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var opts struct {
	Silo struct {
		ID string `long:"id" env:"ID" description:"silo id, random when empty"`
	} `group:"silo" namespace:"silo" env-namespace:"SILO"`

	Cluster struct {
		ClusterID        string `long:"cluster-id" env:"CLUSTER_ID" description:"cluster id"`
		ServiceID        string `long:"service-id" env:"SERVICE_ID" description:"service id"`
		ConnectionString string `long:"connection-string" env:"POSTGRES_CONNECTION_STRING" description:"membership table (postgres, sqlite:// or memory://)"`

		HeartbeatInterval time.Duration `long:"heartbeat-interval" env:"HEARTBEAT_INTERVAL" default:"5s" description:"how often the silo writes a heartbeat"`
		ProbeInterval     time.Duration `long:"probe-interval" env:"PROBE_INTERVAL" default:"10s" description:"how often the table is scanned for dead silos"`
		DeathTimeout      time.Duration `long:"death-timeout" env:"DEATH_TIMEOUT" default:"30s" description:"heartbeat age after which a silo is dead"`
		GCInterval        time.Duration `long:"gc-interval" env:"GC_INTERVAL" default:"1h" description:"how often defunct rows are removed"`
		DefunctRetention  time.Duration `long:"defunct-retention" env:"DEFUNCT_RETENTION" default:"168h" description:"how long dead rows are kept"`
		JoinTimeout       time.Duration `long:"join-timeout" env:"JOIN_TIMEOUT" default:"1m" description:"give up joining after this time"`
	} `group:"cluster" namespace:"cluster"`

	GRPC struct {
		BindAddr   string `long:"bind-addr" description:"address to bind grpc server" env:"BIND_ADDR" default:":3000"`
		PublicAddr string `long:"public-addr" description:"address to advertise to clients" env:"PUBLIC_ADDR" default:"127.0.0.1:3000"`
	} `group:"grpc" namespace:"grpc" env-namespace:"GRPC"`

	RestAPI struct {
		Enabled  bool   `long:"enabled" description:"enable the admin API" env:"ENABLED"`
		BindAddr string `long:"bind-addr" description:"address to bind the admin API" env:"BIND_ADDR" default:":8000"`
	} `group:"api" namespace:"api" env-namespace:"API"`

	Dev     bool `long:"dev" description:"local development defaults: test cluster ids and in-memory table" env:"DEV"`
	Verbose bool `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

// applyDefaults fills the settings that depend on other settings, and checks
// the ones that have no sensible default outside of development.
func applyDefaults() error {
	if opts.Dev {
		if opts.Cluster.ClusterID == "" {
			opts.Cluster.ClusterID = "testcluster"
		}

		if opts.Cluster.ServiceID == "" {
			opts.Cluster.ServiceID = "testservice"
		}

		if opts.Cluster.ConnectionString == "" {
			opts.Cluster.ConnectionString = "memory://"
		}
	}

	if opts.Silo.ID == "" {
		opts.Silo.ID = uuid.NewString()
	}

	switch {
	case opts.Cluster.ConnectionString == "":
		return errors.New("POSTGRES_CONNECTION_STRING is required")
	case opts.Cluster.ClusterID == "":
		return errors.New("CLUSTER_ID is required")
	case opts.Cluster.ServiceID == "":
		return errors.New("SERVICE_ID is required")
	}

	return nil
}
