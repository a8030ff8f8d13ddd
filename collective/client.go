package collective

import (
	"strconv"

	"github.com/golang/protobuf/ptypes/empty"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client is one rank talking to a remote collective server.
type Client struct {
	conn *grpc.ClientConn
	rank int
	size int
}

// Dial connects rank to the server at addr. Calls wait for the connection
// to become ready instead of failing fast, so ranks may start before the
// server does.
func Dial(ctx context.Context, addr string, rank, size int) (*Client, error) {
	if rank < 0 || rank >= size {
		return nil, errors.Errorf("collective: rank %d outside [0, %d)", rank, size)
	}
	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "collective: dial %s", addr)
	}
	return &Client{conn: conn, rank: rank, size: size}, nil
}

func (c *Client) Rank() int { return c.rank }

func (c *Client) Size() int { return c.size }

func (c *Client) AllReduceSum(ctx context.Context, values []float64) ([]float64, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(c.outgoing(ctx, -1), methodAllReduce, toList(values), out); err != nil {
		return nil, errors.Wrap(err, "collective: AllReduceSum")
	}
	return fromList(out), nil
}

func (c *Client) Broadcast(ctx context.Context, root int, values []float64) ([]float64, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(c.outgoing(ctx, root), methodBroadcast, toList(values), out); err != nil {
		return nil, errors.Wrap(err, "collective: Broadcast")
	}
	return fromList(out), nil
}

func (c *Client) Barrier(ctx context.Context) error {
	if err := c.conn.Invoke(c.outgoing(ctx, -1), methodBarrier, new(empty.Empty), new(empty.Empty)); err != nil {
		return errors.Wrap(err, "collective: Barrier")
	}
	return nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) outgoing(ctx context.Context, root int) context.Context {
	kv := []string{rankKey, strconv.Itoa(c.rank)}
	if root >= 0 {
		kv = append(kv, rootKey, strconv.Itoa(root))
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}
