package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/keepalive"

	membershippb "github.com/maxpoletaev/rollcall/membership/proto"
	"github.com/maxpoletaev/rollcall/nodeapi"
)

var _ nodeapi.Dialer = Dial

func Dial(ctx context.Context, addr string) (nodeapi.Client, error) {
	creds := insecure.NewCredentials()

	conn, err := grpc.DialContext(
		ctx,
		addr,
		grpc.WithBlock(),
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time: 10 * time.Second,
		}),
		grpc.WithDefaultCallOptions(grpc.UseCompressor(gzip.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial failed: %w", err)
	}

	c := &Client{
		addr:             addr,
		membershipClient: membershippb.NewMembershipClient(conn),
	}

	c.addOnCloseHook(conn.Close)

	return c, nil
}
