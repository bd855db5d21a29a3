package membership

import "context"

func (cl *Cluster) HeartbeatOnce(ctx context.Context) { cl.heartbeat(ctx) }

func (cl *Cluster) ProbeOnce(ctx context.Context) { cl.probe(ctx) }

func (cl *Cluster) CollectGarbageOnce(ctx context.Context) { cl.collectGarbage(ctx) }
