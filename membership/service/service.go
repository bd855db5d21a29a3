package service

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/maxpoletaev/rollcall/internal/grpcutil"
	"github.com/maxpoletaev/rollcall/membership"
	"github.com/maxpoletaev/rollcall/membership/proto"
)

type MembershipService struct {
	proto.UnimplementedMembershipServer
	cluster Cluster
}

func NewMembershipService(cluster Cluster) *MembershipService {
	return &MembershipService{
		cluster: cluster,
	}
}

// Hello answers the greeting of a client. It is used as a connectivity probe.
func (s *MembershipService) Hello(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	self := s.cluster.Self()

	if self.Status != membership.StatusActive {
		return nil, grpcutil.ToStatus(fmt.Errorf("%w: silo is %s", membership.ErrNotActive, self.Status))
	}

	reply := fmt.Sprintf("You said: '%s', I say: Hello! (silo %s)", req.GetValue(), self.SiloID)

	return wrapperspb.String(reply), nil
}

func (s *MembershipService) Members(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	list, err := proto.ToListValue(toProtoMembers(s.cluster.Members()))
	if err != nil {
		return nil, grpcutil.ToStatus(err)
	}

	return list, nil
}

func toProtoMembers(rows []membership.Row) []proto.Member {
	members := make([]proto.Member, len(rows))

	for idx, row := range rows {
		members[idx] = proto.Member{
			SiloID:       row.SiloID,
			Address:      row.Address,
			Status:       row.Status.String(),
			StartTime:    row.StartTime,
			IAmAliveTime: row.IAmAliveTime,
			Version:      row.Version,
		}
	}

	return members
}
