package grpc

import (
	"context"
	"sync/atomic"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/maxpoletaev/rollcall/internal/grpcutil"
	"github.com/maxpoletaev/rollcall/internal/multierror"
	"github.com/maxpoletaev/rollcall/membership/proto"
	"github.com/maxpoletaev/rollcall/nodeapi"
)

var (
	_ nodeapi.Client = (*Client)(nil)
)

type Client struct {
	addr             string
	membershipClient proto.MembershipClient
	onClose          []func() error
	closed           uint32
}

func (c *Client) addOnCloseHook(f func() error) {
	c.onClose = append(c.onClose, f)
}

func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil // already closed
	}

	errs := multierror.New[int]()

	for idx, f := range c.onClose {
		if err := f(); err != nil {
			errs.Add(idx, err)
		}
	}

	return errs.Combined()
}

func (c *Client) IsClosed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}

func (c *Client) Hello(ctx context.Context, greeting string) (string, error) {
	resp, err := c.membershipClient.Hello(ctx, wrapperspb.String(greeting))
	if err != nil {
		return "", grpcutil.FromStatus(err)
	}

	return resp.GetValue(), nil
}

func (c *Client) Members(ctx context.Context) ([]nodeapi.Member, error) {
	resp, err := c.membershipClient.Members(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, grpcutil.FromStatus(err)
	}

	list, err := proto.FromListValue(resp)
	if err != nil {
		return nil, err
	}

	members := make([]nodeapi.Member, len(list))

	for idx, m := range list {
		members[idx] = nodeapi.Member{
			SiloID:       m.SiloID,
			Address:      m.Address,
			Status:       m.Status,
			StartTime:    m.StartTime,
			IAmAliveTime: m.IAmAliveTime,
			Version:      m.Version,
		}
	}

	return members, nil
}
