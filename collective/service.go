package collective

import (
	"github.com/golang/protobuf/ptypes/empty"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
)

// Wire layout of the collective service. Vectors travel as ListValue of
// numbers; rank and broadcast root travel in metadata so that the well known
// message types are enough.
const (
	serviceName = "famo.Collective"

	methodAllReduce = "/famo.Collective/AllReduce"
	methodBroadcast = "/famo.Collective/Broadcast"
	methodBarrier   = "/famo.Collective/Barrier"

	rankKey = "famo-rank"
	rootKey = "famo-root"
)

// CollectiveServer is the server API of the collective service.
type CollectiveServer interface {
	AllReduce(context.Context, *structpb.ListValue) (*structpb.ListValue, error)
	Broadcast(context.Context, *structpb.ListValue) (*structpb.ListValue, error)
	Barrier(context.Context, *empty.Empty) (*empty.Empty, error)
}

// RegisterCollectiveServer attaches srv to s.
func RegisterCollectiveServer(s *grpc.Server, srv CollectiveServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CollectiveServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AllReduce", Handler: allReduceHandler},
		{MethodName: "Broadcast", Handler: broadcastHandler},
		{MethodName: "Barrier", Handler: barrierHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "famo/collective",
}

func allReduceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectiveServer).AllReduce(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAllReduce}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CollectiveServer).AllReduce(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

func broadcastHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectiveServer).Broadcast(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodBroadcast}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CollectiveServer).Broadcast(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

func barrierHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectiveServer).Barrier(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodBarrier}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CollectiveServer).Barrier(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
