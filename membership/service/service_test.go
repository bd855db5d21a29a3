package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/maxpoletaev/rollcall/internal/grpcutil"
	"github.com/maxpoletaev/rollcall/membership"
	"github.com/maxpoletaev/rollcall/membership/proto"
)

func TestMembers(t *testing.T) {
	ctrl := gomock.NewController(t)
	cluster := NewMockCluster(ctrl)

	start := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	cluster.EXPECT().Members().Return([]membership.Row{
		{
			ClusterID:    "testcluster",
			ServiceID:    "testservice",
			SiloID:       "silo-a",
			Address:      "127.0.0.1:3000",
			StartTime:    start,
			Status:       membership.StatusActive,
			IAmAliveTime: start.Add(time.Second),
			Version:      5,
		},
	})

	svc := NewMembershipService(cluster)

	resp, err := svc.Members(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	members, err := proto.FromListValue(resp)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.Equal(t, "silo-a", members[0].SiloID)
	require.Equal(t, "127.0.0.1:3000", members[0].Address)
	require.Equal(t, "active", members[0].Status)
	require.True(t, start.Equal(members[0].StartTime))
	require.Equal(t, uint64(5), members[0].Version)
}

func TestHello(t *testing.T) {
	ctrl := gomock.NewController(t)
	cluster := NewMockCluster(ctrl)

	cluster.EXPECT().Self().Return(membership.Row{SiloID: "silo-a", Status: membership.StatusActive})

	svc := NewMembershipService(cluster)

	resp, err := svc.Hello(context.Background(), wrapperspb.String("Good morning, my friend!"))
	require.NoError(t, err)
	require.Contains(t, resp.GetValue(), "Good morning, my friend!")
	require.Contains(t, resp.GetValue(), "silo-a")
}

func TestHello_NotActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	cluster := NewMockCluster(ctrl)

	cluster.EXPECT().Self().Return(membership.Row{SiloID: "silo-a", Status: membership.StatusDead})

	svc := NewMembershipService(cluster)

	_, err := svc.Hello(context.Background(), wrapperspb.String("hi"))
	require.Equal(t, codes.FailedPrecondition, grpcutil.ErrorCode(err))
	require.ErrorIs(t, grpcutil.FromStatus(err), membership.ErrNotActive)
}
