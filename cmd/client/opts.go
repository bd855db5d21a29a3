package main

import (
	"errors"
	"time"
)

var opts struct {
	ClusterID        string        `long:"cluster-id" env:"CLUSTER_ID" description:"cluster id"`
	ServiceID        string        `long:"service-id" env:"SERVICE_ID" description:"service id"`
	ConnectionString string        `long:"connection-string" env:"POSTGRES_CONNECTION_STRING" description:"membership table (postgres or sqlite://)"`
	DeathTimeout     time.Duration `long:"death-timeout" env:"DEATH_TIMEOUT" default:"30s" description:"heartbeat age after which a silo is dead"`
	RefreshInterval  time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"30s" description:"how often the gateway list is refreshed"`
	ConnectTimeout   time.Duration `long:"connect-timeout" env:"CONNECT_TIMEOUT" default:"1m" description:"give up connecting to the cluster after this time"`
	Greeting         string        `long:"greeting" env:"GREETING" default:"Good morning, my friend!" description:"message sent to the silo"`
	Calls            int           `long:"calls" env:"CALLS" default:"10" description:"number of hello calls"`
	Dev              bool          `long:"dev" description:"use the test cluster ids" env:"DEV"`
	Verbose          bool          `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

func applyDefaults() error {
	if opts.Dev {
		if opts.ClusterID == "" {
			opts.ClusterID = "testcluster"
		}

		if opts.ServiceID == "" {
			opts.ServiceID = "testservice"
		}
	}

	switch {
	case opts.ConnectionString == "":
		return errors.New("POSTGRES_CONNECTION_STRING is required")
	case opts.ClusterID == "":
		return errors.New("CLUSTER_ID is required")
	case opts.ServiceID == "":
		return errors.New("SERVICE_ID is required")
	}

	return nil
}
