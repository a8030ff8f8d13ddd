package collective

import (
	"strconv"

	"github.com/golang/glog"
	"github.com/golang/protobuf/ptypes/empty"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// collectiveServer lets remote ranks meet in one hub. Every rpc blocks until
// all ranks made the matching call.
type collectiveServer struct {
	hub *hub
}

// NewServer returns a gRPC server hosting the collective service for size
// ranks. The caller runs it with Serve on its listener.
func NewServer(size int, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	RegisterCollectiveServer(s, &collectiveServer{hub: newHub(size)})
	return s
}

func (c *collectiveServer) AllReduce(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	rank, _, err := fromMetadata(ctx, false)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("AllReduce of %d values called from rank %d", len(in.GetValues()), rank)
	out, err := c.hub.exchange(ctx, rank, opAllReduce, 0, fromList(in))
	if err != nil {
		return nil, toStatus(err)
	}
	return toList(out), nil
}

func (c *collectiveServer) Broadcast(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	rank, root, err := fromMetadata(ctx, true)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("Broadcast from root %d called from rank %d", root, rank)
	out, err := c.hub.exchange(ctx, rank, opBroadcast, root, fromList(in))
	if err != nil {
		return nil, toStatus(err)
	}
	return toList(out), nil
}

func (c *collectiveServer) Barrier(ctx context.Context, in *empty.Empty) (*empty.Empty, error) {
	rank, _, err := fromMetadata(ctx, false)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("Barrier called from rank %d", rank)
	if _, err := c.hub.exchange(ctx, rank, opBarrier, 0, nil); err != nil {
		return nil, toStatus(err)
	}
	return new(empty.Empty), nil
}

func fromMetadata(ctx context.Context, wantRoot bool) (rank, root int, err error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, 0, status.Error(codes.InvalidArgument, "collective: missing metadata")
	}
	if rank, err = intFrom(md, rankKey); err != nil {
		return 0, 0, err
	}
	if wantRoot {
		if root, err = intFrom(md, rootKey); err != nil {
			return 0, 0, err
		}
	}
	return rank, root, nil
}

func intFrom(md metadata.MD, key string) (int, error) {
	vs := md.Get(key)
	if len(vs) != 1 {
		return 0, status.Errorf(codes.InvalidArgument, "collective: want one %s, got %d", key, len(vs))
	}
	v, err := strconv.Atoi(vs[0])
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "collective: bad %s %q", key, vs[0])
	}
	return v, nil
}

func toStatus(err error) error {
	glog.Warningf("collective round failed: %v", err)
	switch errors.Cause(err) {
	case context.Canceled:
		return status.Error(codes.Canceled, err.Error())
	case context.DeadlineExceeded:
		return status.Error(codes.DeadlineExceeded, err.Error())
	case ErrMismatch:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.InvalidArgument, err.Error())
}
