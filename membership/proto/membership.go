// Package proto declares the Membership gRPC service. Messages are protobuf
// well-known types, so the service needs no generated message code and works
// with the default proto codec.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "rollcall.membership.Membership"

const (
	Membership_Hello_FullMethodName   = "/" + ServiceName + "/Hello"
	Membership_Members_FullMethodName = "/" + ServiceName + "/Members"
)

// MembershipClient is the client API for the Membership service.
type MembershipClient interface {
	// Hello sends a greeting to the silo and returns its reply.
	Hello(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	// Members returns the live members known to the silo, one struct per row.
	Members(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type membershipClient struct {
	cc grpc.ClientConnInterface
}

func NewMembershipClient(cc grpc.ClientConnInterface) MembershipClient {
	return &membershipClient{cc}
}

func (c *membershipClient) Hello(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)

	if err := c.cc.Invoke(ctx, Membership_Hello_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *membershipClient) Members(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)

	if err := c.cc.Invoke(ctx, Membership_Members_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// MembershipServer is the server API for the Membership service. All
// implementations must embed UnimplementedMembershipServer.
type MembershipServer interface {
	Hello(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Members(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	mustEmbedUnimplementedMembershipServer()
}

type UnimplementedMembershipServer struct{}

func (UnimplementedMembershipServer) Hello(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Hello not implemented")
}

func (UnimplementedMembershipServer) Members(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Members not implemented")
}

func (UnimplementedMembershipServer) mustEmbedUnimplementedMembershipServer() {}

func RegisterMembershipServer(s grpc.ServiceRegistrar, srv MembershipServer) {
	s.RegisterService(&Membership_ServiceDesc, srv)
}

func _Membership_Hello_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MembershipServer).Hello(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Membership_Hello_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MembershipServer).Hello(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

func _Membership_Members_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MembershipServer).Members(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Membership_Members_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MembershipServer).Members(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

var Membership_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MembershipServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Hello",
			Handler:    _Membership_Hello_Handler,
		},
		{
			MethodName: "Members",
			Handler:    _Membership_Members_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "membership.proto",
}
