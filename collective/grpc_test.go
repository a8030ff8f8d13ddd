package collective

import (
	"net"
	"testing"

	"github.com/taskgraph/famo"
	"golang.org/x/net/context"
)

func createListener(t *testing.T) net.Listener {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen(\"tcp4\", \"\") failed: %v", err)
	}
	return l
}

func TestGRPCCollective(t *testing.T) {
	const size = 3
	ln := createListener(t)
	s := NewServer(size)
	go s.Serve(ln)
	defer s.Stop()

	group := make([]famo.Collective, size)
	for rank := range group {
		c, err := Dial(context.Background(), ln.Addr().String(), rank, size)
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer c.Close()
		group[rank] = c
	}

	sums := make([][]float64, size)
	bcast := make([][]float64, size)
	errs := runAll(group, func(c famo.Collective) error {
		ctx := context.Background()
		out, err := c.AllReduceSum(ctx, []float64{float64(c.Rank()), 1})
		if err != nil {
			return err
		}
		sums[c.Rank()] = out
		if err := c.Barrier(ctx); err != nil {
			return err
		}
		var w []float64
		if c.Rank() == 2 {
			w = []float64{0.25, -0.5}
		}
		bcast[c.Rank()], err = c.Broadcast(ctx, 2, w)
		return err
	})
	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
		if sums[rank][0] != 3 || sums[rank][1] != 3 {
			t.Errorf("rank %d: sum = %v, want [3 3]", rank, sums[rank])
		}
		if bcast[rank][0] != 0.25 || bcast[rank][1] != -0.5 {
			t.Errorf("rank %d: broadcast = %v, want [0.25 -0.5]", rank, bcast[rank])
		}
	}
}

func TestGRPCRejectsMissingRank(t *testing.T) {
	srv := &collectiveServer{hub: newHub(1)}
	if _, err := srv.AllReduce(context.Background(), toList([]float64{1})); err == nil {
		t.Fatal("call without rank metadata accepted")
	}
}
