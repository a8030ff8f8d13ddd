package collective

import (
	"github.com/taskgraph/famo"
	"golang.org/x/net/context"
)

// member is one rank of an in-process group.
type member struct {
	hub  *hub
	rank int
}

// NewLocalGroup returns size collectives sharing one hub, for ranks that run
// as goroutines of one process. Member i has rank i.
func NewLocalGroup(size int) []famo.Collective {
	h := newHub(size)
	group := make([]famo.Collective, size)
	for i := range group {
		group[i] = &member{hub: h, rank: i}
	}
	return group
}

func (m *member) Rank() int { return m.rank }

func (m *member) Size() int { return m.hub.size }

func (m *member) AllReduceSum(ctx context.Context, values []float64) ([]float64, error) {
	return m.hub.exchange(ctx, m.rank, opAllReduce, 0, clone(values))
}

func (m *member) Broadcast(ctx context.Context, root int, values []float64) ([]float64, error) {
	return m.hub.exchange(ctx, m.rank, opBroadcast, root, clone(values))
}

func (m *member) Barrier(ctx context.Context) error {
	_, err := m.hub.exchange(ctx, m.rank, opBarrier, 0, nil)
	return err
}
